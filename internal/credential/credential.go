package credential

import (
	"fmt"
	"os"
	"strings"
)

// Tier is the credential/quota class a cloud transcription attempt runs
// under.
type Tier string

const (
	// TierPersonal uses a key the user supplied and owns.
	TierPersonal Tier = "personal"
	// TierShared uses a key from a shared pool (environment or shared
	// settings); capped to protect pooled quota.
	TierShared Tier = "shared"
	// TierPublicFree needs no key and talks to a public best-effort
	// endpoint with a hard audio cap.
	TierPublicFree Tier = "public"
)

// Audio caps per tier in samples. At 16 kHz mono 16-bit these match the
// 240000/120000 byte limits the shared and public endpoints enforce.
const (
	SharedSampleCap     = 120000
	PublicFreeSampleCap = 60000
)

// ParseTier validates a tier string from config or CLI.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierPersonal, TierShared, TierPublicFree:
		return Tier(s), nil
	}
	return "", fmt.Errorf("invalid tier: %q (must be personal, shared, or public)", s)
}

// Cap returns the maximum sample count for a tier; 0 means uncapped.
func Cap(tier Tier) int {
	switch tier {
	case TierShared:
		return SharedSampleCap
	case TierPublicFree:
		return PublicFreeSampleCap
	default:
		return 0
	}
}

// Credential is a resolved secret (or the explicit absence of one, for the
// public tier).
type Credential struct {
	Key    string
	Public bool // no secret; the backend must use its public endpoint
}

// Resolver maps (backend id, tier) to the credential the attempt should
// carry. Personal keys come from the user's settings; shared keys are
// looked up in the process environment first, then the shared pool from
// the settings store.
type Resolver struct {
	personal  map[string]string
	shared    map[string]string
	lookupEnv func(string) string
}

func NewResolver(personal, shared map[string]string) *Resolver {
	return &Resolver{
		personal:  personal,
		shared:    shared,
		lookupEnv: os.Getenv,
	}
}

// sharedEnvVar is the environment variable carrying the shared-pool key
// for a backend, e.g. GOOGLE_API_KEY_SHARED.
func sharedEnvVar(backendID string) string {
	return strings.ToUpper(backendID) + "_API_KEY_SHARED"
}

// Resolve returns the credential for one attempt. The second return is
// false when the tier requires a key and none is configured.
func (r *Resolver) Resolve(backendID string, tier Tier) (Credential, bool) {
	switch tier {
	case TierPersonal:
		key := r.personal[backendID]
		if key == "" {
			return Credential{}, false
		}
		return Credential{Key: key}, true

	case TierShared:
		if key := r.lookupEnv(sharedEnvVar(backendID)); key != "" {
			return Credential{Key: key}, true
		}
		if key := r.shared[backendID]; key != "" {
			return Credential{Key: key}, true
		}
		return Credential{}, false

	case TierPublicFree:
		return Credential{Public: true}, true
	}
	return Credential{}, false
}
