package whisper

import (
	"os"
	"path/filepath"
)

// ModelInfo describes one whisper.cpp model build.
type ModelInfo struct {
	ID           string // model identifier (e.g., "base.en")
	Name         string // display name
	Filename     string // on-disk name (e.g., "ggml-base.en.bin")
	Size         string // human readable size
	SizeBytes    int64  // expected size, used for progress totals
	Multilingual bool
}

// Model builds published at huggingface.co/ggerganov/whisper.cpp. The IDs
// line up with what the offline backend resolves from its configured size
// and language.
var models = []ModelInfo{
	{ID: "tiny.en", Name: "Tiny English", Filename: "ggml-tiny.en.bin", Size: "75MB", SizeBytes: 75_000_000},
	{ID: "base.en", Name: "Base English", Filename: "ggml-base.en.bin", Size: "142MB", SizeBytes: 142_000_000},
	{ID: "small.en", Name: "Small English", Filename: "ggml-small.en.bin", Size: "466MB", SizeBytes: 466_000_000},
	{ID: "medium.en", Name: "Medium English", Filename: "ggml-medium.en.bin", Size: "1.5GB", SizeBytes: 1_500_000_000},

	{ID: "tiny", Name: "Tiny", Filename: "ggml-tiny.bin", Size: "75MB", SizeBytes: 75_000_000, Multilingual: true},
	{ID: "base", Name: "Base", Filename: "ggml-base.bin", Size: "142MB", SizeBytes: 142_000_000, Multilingual: true},
	{ID: "small", Name: "Small", Filename: "ggml-small.bin", Size: "466MB", SizeBytes: 466_000_000, Multilingual: true},
	{ID: "medium", Name: "Medium", Filename: "ggml-medium.bin", Size: "1.5GB", SizeBytes: 1_500_000_000, Multilingual: true},
	{ID: "large-v3", Name: "Large V3", Filename: "ggml-large-v3.bin", Size: "3GB", SizeBytes: 3_000_000_000, Multilingual: true},
}

var modelByID = func() map[string]ModelInfo {
	m := make(map[string]ModelInfo, len(models))
	for _, model := range models {
		m[model.ID] = model
	}
	return m
}()

const baseDownloadURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// DefaultDir returns the model directory used when the config leaves
// offline.model_dir empty. Matches what the offline backend resolves.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(home, ".local", "share", "speechpipe", "models")
}

// Path returns the full path a model occupies under dir, or "" for an
// unknown model ID.
func Path(dir, modelID string) string {
	info, ok := modelByID[modelID]
	if !ok {
		return ""
	}
	return filepath.Join(dir, info.Filename)
}

// DownloadURL returns the upstream URL for a model, or "" if unknown.
func DownloadURL(modelID string) string {
	info, ok := modelByID[modelID]
	if !ok {
		return ""
	}
	return baseDownloadURL + "/" + info.Filename
}

// Get returns info for a model by ID, or nil if unknown.
func Get(modelID string) *ModelInfo {
	info, ok := modelByID[modelID]
	if !ok {
		return nil
	}
	return &info
}

// List returns all known models.
func List() []ModelInfo {
	result := make([]ModelInfo, len(models))
	copy(result, models)
	return result
}
