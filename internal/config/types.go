package config

import "time"

type Config struct {
	Recording     RecordingConfig          `toml:"recording"`
	Recognition   RecognitionConfig        `toml:"recognition"`
	Offline       OfflineConfig            `toml:"offline"`
	Azure         AzureConfig              `toml:"azure"`
	Notifications NotificationsConfig      `toml:"notifications"`
	Backends      map[string]BackendConfig `toml:"backends"`
	SharedKeys    map[string]string        `toml:"shared_keys"`
}

type RecordingConfig struct {
	SampleRate int    `toml:"sample_rate"`
	Channels   int    `toml:"channels"`
	Format     string `toml:"format"`
	FrameBytes int    `toml:"frame_bytes"`
	Device     string `toml:"device"`
}

type RecognitionConfig struct {
	Backend        string        `toml:"backend"`
	Language       string        `toml:"language"` // BCP-47 tag, empty = auto-detect
	Tier           string        `toml:"tier"`     // "personal", "shared", "public"
	RequestTimeout time.Duration `toml:"request_timeout"`
}

type OfflineConfig struct {
	ModelDir  string `toml:"model_dir"`
	ModelSize string `toml:"model_size"`
	Threads   int    `toml:"threads"` // 0 = auto: NumCPU-1
}

type AzureConfig struct {
	Region string `toml:"region"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}

// BackendConfig holds the user's personal API key for one cloud backend.
type BackendConfig struct {
	APIKey string `toml:"api_key"`
}
