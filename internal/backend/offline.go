package backend

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/speechpipe/speechpipe/internal/audio"
	"github.com/speechpipe/speechpipe/internal/credential"
	"github.com/speechpipe/speechpipe/internal/language"
)

// Offline runs whisper.cpp locally via the whisper-cli binary. It needs no
// network and no credential; it can fail only when the model file is
// missing or corrupt, or when the input is malformed.
type Offline struct {
	modelDir  string
	modelSize string
	threads   int
	language  string

	modelPath string
	ready     bool
}

// Known whisper.cpp model sizes; English-only variants exist for all but
// the large models.
var whisperSizes = []string{"tiny", "base", "small", "medium", "large-v3"}

func NewOffline(cfg Config) *Offline {
	size := cfg.ModelSize
	if size == "" {
		size = "base"
	}
	dir := cfg.ModelDir
	if dir == "" {
		dir = defaultModelDir()
	}
	return &Offline{
		modelDir:  dir,
		modelSize: size,
		threads:   cfg.Threads,
		language:  cfg.Language,
	}
}

func defaultModelDir() string {
	dataDir, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(dataDir, ".local", "share", "speechpipe", "models")
}

func (o *Offline) ID() string { return IDOffline }

// Initialize resolves and checks the model file. Credential and tier are
// irrelevant for local recognition.
func (o *Offline) Initialize(cred credential.Credential, tier credential.Tier) bool {
	path, err := o.resolveModelFile()
	if err != nil {
		log.Printf("offline: %v", err)
		o.ready = false
		return false
	}
	o.modelPath = path
	o.ready = true
	return true
}

func (o *Offline) SetLanguage(tag string) {
	if tag == o.language {
		return
	}
	o.language = tag
	// The preferred model file depends on the language (.en variants), so
	// re-resolve if we were already initialized.
	if o.ready {
		o.ready = o.Initialize(credential.Credential{}, credential.TierPersonal)
	}
}

func (o *Offline) IsReady() bool { return o.ready }

// resolveModelFile picks the model file for the configured size and
// language: English gets the smaller .en variant when present.
func (o *Offline) resolveModelFile() (string, error) {
	if !validModelSize(o.modelSize) {
		return "", fmt.Errorf("unknown model size %q", o.modelSize)
	}

	candidates := []string{fmt.Sprintf("ggml-%s.bin", o.modelSize)}
	if language.WhisperCode(o.language) == "en" && !strings.HasPrefix(o.modelSize, "large") {
		candidates = append([]string{fmt.Sprintf("ggml-%s.en.bin", o.modelSize)}, candidates...)
	}

	for _, name := range candidates {
		path := filepath.Join(o.modelDir, name)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path, nil
		}
	}
	return "", fmt.Errorf("model file not found in %s (size %s)", o.modelDir, o.modelSize)
}

func validModelSize(size string) bool {
	for _, s := range whisperSizes {
		if s == size {
			return true
		}
	}
	return false
}

func (o *Offline) Transcribe(ctx context.Context, frame audio.Frame) (string, error) {
	if frame.Empty() {
		return "", nil
	}

	if !o.ready {
		if !o.Initialize(credential.Credential{}, credential.TierPersonal) {
			return "", newFailure(KindModelUnavailable, "model not loaded from %s", o.modelDir)
		}
	}

	whisperPath, err := exec.LookPath("whisper-cli")
	if err != nil {
		return "", newFailure(KindModelUnavailable, "whisper-cli not found: install whisper.cpp")
	}

	wavData := encodeWAV(frame)
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("speechpipe-%d.wav", time.Now().UnixNano()))
	if err := os.WriteFile(tmpFile, wavData, 0600); err != nil {
		return "", newFailure(KindModelUnavailable, "write temp file: %v", err)
	}
	defer os.Remove(tmpFile)

	lang := language.WhisperCode(o.language)
	if lang == "" {
		lang = "auto"
	}

	args := []string{
		"-m", o.modelPath,
		"-l", lang,
		"-nt", // no timestamps
		"-np", // no progress
		"-f", tmpFile,
	}
	if o.threads > 0 {
		args = append(args, "-t", fmt.Sprintf("%d", o.threads))
	}

	cmd := exec.CommandContext(ctx, whisperPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return "", newFailure(KindTimeout, "whisper-cli cancelled after %v", duration)
		}
		log.Printf("offline: whisper-cli failed after %v: %v\nstderr: %s", duration, err, stderr.String())
		return "", newFailure(KindModelUnavailable, "whisper-cli failed: %v", err)
	}

	text := strings.TrimSpace(stdout.String())
	log.Printf("offline: transcribed %d samples in %v: %q", len(frame.Samples), duration, text)
	return text, nil
}
