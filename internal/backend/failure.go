package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a transcription failure independently of the vendor that
// produced it. Backends map their own HTTP/transport semantics into this
// taxonomy; raw errors never cross the backend boundary.
type Kind string

const (
	KindBadRequest       Kind = "bad_request"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindRateLimited      Kind = "rate_limited"
	KindServerError      Kind = "server_error"
	KindTimeout          Kind = "timeout"
	KindNetworkError     Kind = "network_error"
	KindModelUnavailable Kind = "model_unavailable" // offline model missing or corrupt
)

// Failure is the only error type Transcribe returns.
type Failure struct {
	Kind   Kind
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

func newFailure(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// AsFailure extracts a Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	ok := errors.As(err, &f)
	return f, ok
}

// Remediation returns a short actionable hint for kinds the user can fix
// themselves; empty otherwise.
func (k Kind) Remediation() string {
	switch k {
	case KindUnauthorized:
		return "check your API key and region settings"
	case KindForbidden, KindRateLimited:
		return "quota may be exceeded; try again later or switch tier"
	case KindModelUnavailable:
		return "download the offline model or fix the configured model path"
	default:
		return ""
	}
}

// classifyStatus maps an HTTP status code to a failure kind.
func classifyStatus(code int) Kind {
	switch {
	case code == http.StatusBadRequest:
		return KindBadRequest
	case code == http.StatusUnauthorized:
		return KindUnauthorized
	case code == http.StatusForbidden:
		return KindForbidden
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= 500:
		return KindServerError
	default:
		return KindNetworkError
	}
}

// classifyTransport maps a transport-level error (request never produced a
// status code) to a failure kind.
func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetworkError
}
