package backend

import (
	"testing"
	"time"

	"github.com/speechpipe/speechpipe/internal/credential"
)

func TestRegistry(t *testing.T) {
	t.Run("all ids construct", func(t *testing.T) {
		for _, id := range IDs() {
			b, err := New(id, Config{})
			if err != nil {
				t.Fatalf("New(%q): %v", id, err)
			}
			if b.ID() != id {
				t.Errorf("backend %q reports id %q", id, b.ID())
			}
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := New("deepgram", Config{}); err == nil {
			t.Error("expected an error for an unregistered id")
		}
		if IsKnown("deepgram") {
			t.Error("deepgram must not be known")
		}
	})

	t.Run("known ids", func(t *testing.T) {
		for _, id := range []string{IDOffline, IDGoogle, IDAzure, IDYandex, IDOpenAI} {
			if !IsKnown(id) {
				t.Errorf("IsKnown(%q) = false", id)
			}
		}
	})
}

func TestRequestTimeoutDefault(t *testing.T) {
	if got := (Config{}).requestTimeout(); got != defaultRequestTimeout {
		t.Errorf("default timeout = %v, want %v", got, defaultRequestTimeout)
	}
	if got := (Config{RequestTimeout: 2 * time.Second}).requestTimeout(); got != 2*time.Second {
		t.Errorf("explicit timeout = %v, want 2s", got)
	}
}

func TestCapFrame(t *testing.T) {
	over := testFrame(credential.SharedSampleCap + 100)

	tests := []struct {
		tier credential.Tier
		want int
	}{
		{credential.TierPersonal, credential.SharedSampleCap + 100},
		{credential.TierShared, credential.SharedSampleCap},
		{credential.TierPublicFree, credential.PublicFreeSampleCap},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			got := capFrame(over, tt.tier)
			if len(got.Samples) != tt.want {
				t.Errorf("capped to %d samples, want %d", len(got.Samples), tt.want)
			}
			if len(over.Samples) != credential.SharedSampleCap+100 {
				t.Error("capping must not mutate the input frame")
			}
		})
	}
}
