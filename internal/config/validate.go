package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/speechpipe/speechpipe/internal/backend"
	"github.com/speechpipe/speechpipe/internal/credential"
	"github.com/speechpipe/speechpipe/internal/language"
)

func (c *Config) Validate() error {
	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.Channels <= 0 {
		return fmt.Errorf("invalid recording.channels: %d", c.Recording.Channels)
	}
	if c.Recording.Format == "" {
		return fmt.Errorf("invalid recording.format: empty")
	}
	if c.Recording.FrameBytes <= 0 {
		return fmt.Errorf("invalid recording.frame_bytes: %d", c.Recording.FrameBytes)
	}
	if c.Recording.FrameBytes%(c.Recording.Channels*2) != 0 {
		return fmt.Errorf("invalid recording.frame_bytes: %d (must be a multiple of %d for %d-channel 16-bit audio)",
			c.Recording.FrameBytes, c.Recording.Channels*2, c.Recording.Channels)
	}

	if !backend.IsKnown(c.Recognition.Backend) {
		return fmt.Errorf("invalid recognition.backend: %q (must be one of %s)",
			c.Recognition.Backend, strings.Join(backend.IDs(), ", "))
	}
	if !language.IsValid(c.Recognition.Language) {
		return fmt.Errorf("invalid recognition.language: %q (use empty string for auto-detect or a supported BCP-47 tag like en-US)",
			c.Recognition.Language)
	}
	tier, err := credential.ParseTier(c.Recognition.Tier)
	if err != nil {
		return fmt.Errorf("invalid recognition.tier: %w", err)
	}
	if c.Recognition.RequestTimeout < 0 {
		return fmt.Errorf("invalid recognition.request_timeout: %v", c.Recognition.RequestTimeout)
	}

	if err := c.validateCredential(tier); err != nil {
		return err
	}

	if c.Offline.ModelSize != "" {
		validSizes := map[string]bool{"tiny": true, "base": true, "small": true, "medium": true, "large-v3": true}
		if !validSizes[c.Offline.ModelSize] {
			return fmt.Errorf("invalid offline.model_size: %s (must be tiny, base, small, medium, or large-v3)", c.Offline.ModelSize)
		}
	}
	if c.Offline.Threads < 0 {
		return fmt.Errorf("invalid offline.threads: %d", c.Offline.Threads)
	}

	if c.Notifications.Enabled {
		validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
		if !validTypes[c.Notifications.Type] {
			return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
		}
	}

	return nil
}

// validateCredential checks that the configured tier can actually resolve
// a credential for the selected backend. The public tier never needs one,
// and the offline backend ignores credentials entirely.
func (c *Config) validateCredential(tier credential.Tier) error {
	id := c.Recognition.Backend
	if id == backend.IDOffline {
		return nil
	}
	if tier == credential.TierPublicFree {
		if id == backend.IDOpenAI {
			return fmt.Errorf("backend %s has no public endpoint: use the personal tier with an API key", id)
		}
		return nil
	}

	switch tier {
	case credential.TierPersonal:
		if c.Backends[id].APIKey == "" {
			return fmt.Errorf("%s API key required for the personal tier: set backends.%s.api_key (run speechpipe configure)", id, id)
		}
	case credential.TierShared:
		envVar := strings.ToUpper(id) + "_API_KEY_SHARED"
		if os.Getenv(envVar) == "" && c.SharedKeys[id] == "" {
			return fmt.Errorf("%s shared key required: set %s or shared_keys.%s", id, envVar, id)
		}
	}
	return nil
}
