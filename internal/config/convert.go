package config

import (
	"github.com/speechpipe/speechpipe/internal/audio"
	"github.com/speechpipe/speechpipe/internal/backend"
	"github.com/speechpipe/speechpipe/internal/credential"
)

func (c *Config) ToCaptureConfig() audio.CaptureConfig {
	return audio.CaptureConfig{
		SampleRate: c.Recording.SampleRate,
		Channels:   c.Recording.Channels,
		Format:     c.Recording.Format,
		FrameBytes: c.Recording.FrameBytes,
		Device:     c.Recording.Device,
	}
}

func (c *Config) ToBackendConfig() backend.Config {
	return backend.Config{
		Language:       c.Recognition.Language,
		RequestTimeout: c.Recognition.RequestTimeout,
		ModelDir:       c.Offline.ModelDir,
		ModelSize:      c.Offline.ModelSize,
		Threads:        c.Offline.Threads,
		AzureRegion:    c.Azure.Region,
	}
}

// ToResolver builds the credential resolver from the personal keys and the
// shared pool in the settings store.
func (c *Config) ToResolver() *credential.Resolver {
	personal := make(map[string]string, len(c.Backends))
	for id, bc := range c.Backends {
		if bc.APIKey != "" {
			personal[id] = bc.APIKey
		}
	}
	shared := make(map[string]string, len(c.SharedKeys))
	for id, key := range c.SharedKeys {
		if key != "" {
			shared[id] = key
		}
	}
	return credential.NewResolver(personal, shared)
}
