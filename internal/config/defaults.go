package config

import "time"

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Recording: RecordingConfig{
			SampleRate: 16000,
			Channels:   1,
			Format:     "s16le",
			FrameBytes: 8192,
			Device:     "",
		},
		Recognition: RecognitionConfig{
			Backend:        "offline",
			Language:       "",
			Tier:           "personal",
			RequestTimeout: 15 * time.Second,
		},
		Offline: OfflineConfig{
			ModelSize: "base",
			Threads:   0,
		},
		Azure: AzureConfig{
			Region: "westeurope",
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
		Backends:   make(map[string]BackendConfig),
		SharedKeys: make(map[string]string),
	}
}
