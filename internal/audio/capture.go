package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// CaptureConfig describes the microphone capture stream.
type CaptureConfig struct {
	SampleRate int
	Channels   int
	Format     string
	FrameBytes int // raw bytes accumulated before a frame is assembled
	Device     string
}

func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate: 16000,
		Channels:   1,
		Format:     "s16le",
		FrameBytes: 8192,
		Device:     "",
	}
}

// Capture is the producer side of the pipeline. It reads raw PCM from a
// pw-record subprocess, assembles frames once FrameBytes have accumulated,
// decodes them to normalized floats and pushes them into the Channel.
type Capture struct {
	config  CaptureConfig
	channel *Channel
	running atomic.Bool

	mu     sync.Mutex // guards cmd and cancel
	cmd    *exec.Cmd
	cancel context.CancelFunc

	wg sync.WaitGroup
}

func NewCapture(config CaptureConfig, channel *Channel) *Capture {
	return &Capture{config: config, channel: channel}
}

func (c *Capture) IsRunning() bool {
	return c.running.Load()
}

func (c *Capture) Start(ctx context.Context) (<-chan error, error) {
	if c.running.Load() {
		return nil, fmt.Errorf("already capturing")
	}

	if err := c.validateConfig(); err != nil {
		return nil, err
	}

	if err := CheckPipeWireAvailable(ctx); err != nil {
		return nil, fmt.Errorf("PipeWire not available: %w", err)
	}

	captureCtx, cancel := context.WithCancel(ctx)

	errCh := make(chan error, 1)

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.channel.Start()
	c.running.Store(true)
	c.wg.Add(1)
	go c.captureLoop(captureCtx, errCh)

	return errCh, nil
}

func (c *Capture) Stop() {
	if !c.running.Load() {
		return
	}

	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Capture) Wait() {
	c.wg.Wait()
}

func (c *Capture) captureLoop(ctx context.Context, errCh chan<- error) {
	defer func() {
		close(errCh)
		c.channel.Stop()
		c.running.Store(false)

		// Ensure any child process is reaped.
		c.mu.Lock()
		if c.cmd != nil {
			_ = c.cmd.Wait()
			c.cmd = nil
		}
		c.cancel = nil
		c.mu.Unlock()

		c.wg.Done()
	}()

	args := c.buildPwRecordArgs()
	cmd := exec.CommandContext(ctx, "pw-record", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.emitErr(errCh, fmt.Errorf("create stdout pipe: %w", err))
		c.requestCancel()
		return
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		c.emitErr(errCh, fmt.Errorf("create stderr pipe: %w", err))
		c.requestCancel()
		return
	}

	c.mu.Lock()
	c.cmd = cmd
	c.mu.Unlock()

	if err := cmd.Start(); err != nil {
		c.emitErr(errCh, fmt.Errorf("start pw-record: %w", err))
		c.requestCancel()
		return
	}

	// Log stderr lines to aid diagnostics.
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("Capture stderr: %s", scanner.Text())
		}
	}()

	buffer := make([]byte, 4096)
	pending := make([]byte, 0, c.config.FrameBytes*2)

	for {
		n, readErr := stdout.Read(buffer)
		if n > 0 {
			pending = append(pending, buffer[:n]...)

			// A frame becomes visible to the consumer only once fully
			// assembled from the accumulated raw bytes.
			for len(pending) >= c.config.FrameBytes {
				raw := pending[:c.config.FrameBytes]
				samples := DecodePCM16(raw)
				frame := Frame{
					Samples:    samples,
					SampleRate: c.config.SampleRate,
					Channels:   c.config.Channels,
					Timestamp:  time.Now(),
				}
				c.channel.Push(frame, ComputeLevels(samples))
				pending = append(pending[:0], pending[c.config.FrameBytes:]...)
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return
			}
			c.emitErr(errCh, fmt.Errorf("read audio: %w", readErr))
			c.requestCancel()
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (c *Capture) requestCancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Capture) emitErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
		// Best-effort; avoid blocking
	}
	log.Printf("Capture error: %v", err)
}

func (c *Capture) buildPwRecordArgs() []string {
	args := []string{
		"--format", c.config.Format,
		"--rate", strconv.Itoa(c.config.SampleRate),
		"--channels", strconv.Itoa(c.config.Channels),
		"-", // stdout
	}
	if c.config.Device != "" {
		args = append(args, "--target", c.config.Device)
	}
	return args
}

func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	// Use a short timeout to avoid hangs on misconfigured systems.
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, "pw-cli", "info")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}

func (c *Capture) validateConfig() error {
	if c.config.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", c.config.SampleRate)
	}
	if c.config.Channels <= 0 {
		return fmt.Errorf("invalid Channels: %d", c.config.Channels)
	}
	if c.config.FrameBytes <= 0 {
		return fmt.Errorf("invalid FrameBytes: %d", c.config.FrameBytes)
	}
	if c.config.Format == "" {
		return fmt.Errorf("invalid Format: empty")
	}
	// For s16le, sample frame size is 2 bytes per sample per channel.
	if c.config.Format == "s16le" {
		frameBytes := 2 * c.config.Channels
		if c.config.FrameBytes%frameBytes != 0 {
			return fmt.Errorf("FrameBytes %d not aligned to sample size %d",
				c.config.FrameBytes, frameBytes)
		}
	}
	return nil
}
