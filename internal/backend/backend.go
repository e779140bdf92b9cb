package backend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/speechpipe/speechpipe/internal/audio"
	"github.com/speechpipe/speechpipe/internal/credential"
)

// Backend is one concrete transcription implementation: the local offline
// model or one cloud vendor. The orchestrator serializes all calls, so
// implementations need no internal locking.
type Backend interface {
	// ID returns the registry id of this backend.
	ID() string

	// Initialize validates configuration and loads resources for the
	// given credential and tier. It is idempotent and never panics; on
	// failure the backend simply stays not ready.
	Initialize(cred credential.Credential, tier credential.Tier) bool

	// SetLanguage changes the recognition language. Safe before or after
	// Initialize; local backends may reload their model.
	SetLanguage(tag string)

	// IsReady reports whether Transcribe can be called.
	IsReady() bool

	// Transcribe converts one frame to text. Any error is a *Failure.
	// Empty text with a nil error means no speech was detected.
	Transcribe(ctx context.Context, frame audio.Frame) (string, error)
}

// Config carries the settings the backend constructors need. Zero values
// fall back to sensible defaults.
type Config struct {
	Language       string
	RequestTimeout time.Duration

	// Offline model settings.
	ModelDir  string
	ModelSize string
	Threads   int

	// Azure settings.
	AzureRegion string
}

const defaultRequestTimeout = 15 * time.Second

func (c Config) requestTimeout() time.Duration {
	if c.RequestTimeout > 0 {
		return c.RequestTimeout
	}
	return defaultRequestTimeout
}

// Backend ids.
const (
	IDOffline = "offline"
	IDGoogle  = "google"
	IDAzure   = "azure"
	IDYandex  = "yandex"
	IDOpenAI  = "openai"
)

// Factory builds one backend variant.
type Factory func(cfg Config) Backend

var registry = map[string]Factory{
	IDOffline: func(cfg Config) Backend { return NewOffline(cfg) },
	IDGoogle:  func(cfg Config) Backend { return NewGoogle(cfg) },
	IDAzure:   func(cfg Config) Backend { return NewAzure(cfg) },
	IDYandex:  func(cfg Config) Backend { return NewYandex(cfg) },
	IDOpenAI:  func(cfg Config) Backend { return NewOpenAI(cfg) },
}

// New constructs a backend by id.
func New(id string, cfg Config) (Backend, error) {
	factory, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %q", id)
	}
	return factory(cfg), nil
}

// IDs returns all registered backend ids, sorted.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsKnown reports whether id names a registered backend.
func IsKnown(id string) bool {
	_, ok := registry[id]
	return ok
}

// capFrame applies the tier's quota cap before any encoding so truncation
// is deterministic regardless of backend wire format.
func capFrame(frame audio.Frame, tier credential.Tier) audio.Frame {
	return frame.Truncated(credential.Cap(tier))
}
