package orchestrator

import (
	"github.com/speechpipe/speechpipe/internal/backend"
	"github.com/speechpipe/speechpipe/internal/credential"
)

// Decision is the fallback policy's verdict for one failed attempt.
type Decision int

const (
	// Surface reports the failure to the caller as-is.
	Surface Decision = iota
	// RetryOffline makes one local attempt for the same frame.
	RetryOffline
)

func (d Decision) String() string {
	if d == RetryOffline {
		return "retry_offline"
	}
	return "surface"
}

// Decide maps one (tier, failure kind) pair to a fallback decision. It is a
// pure function: no state, no side effects.
//
// Personal-tier failures always surface because the user owns the
// remediation (their key, their region, their quota). Shared and public
// tiers are best-effort conveniences, so their transient failures degrade
// to the local model instead of interrupting dictation. BadRequest
// surfaces everywhere since retrying the same malformed input locally
// would not help anyone diagnose it, and a broken offline model has
// nothing left to fall back to.
func Decide(tier credential.Tier, kind backend.Kind) Decision {
	if tier == credential.TierPersonal {
		return Surface
	}
	switch kind {
	case backend.KindUnauthorized,
		backend.KindForbidden,
		backend.KindRateLimited,
		backend.KindServerError,
		backend.KindTimeout,
		backend.KindNetworkError:
		return RetryOffline
	default:
		// BadRequest, ModelUnavailable and anything unknown.
		return Surface
	}
}
