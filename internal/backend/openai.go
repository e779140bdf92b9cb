package backend

import (
	"bytes"
	"context"
	"errors"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/speechpipe/speechpipe/internal/audio"
	"github.com/speechpipe/speechpipe/internal/credential"
	"github.com/speechpipe/speechpipe/internal/language"
)

// OpenAI transcribes through the Whisper API using the go-openai SDK.
// There is no public endpoint for this vendor, so the public tier cannot
// initialize it.
type OpenAI struct {
	client   *openai.Client
	baseURL  string // test override; empty means the SDK default
	model    string
	timeout  time.Duration
	language string

	tier  credential.Tier
	ready bool
}

func NewOpenAI(cfg Config) *OpenAI {
	return &OpenAI{
		model:    openai.Whisper1,
		timeout:  cfg.requestTimeout(),
		language: cfg.Language,
	}
}

func (o *OpenAI) ID() string { return IDOpenAI }

func (o *OpenAI) Initialize(cred credential.Credential, tier credential.Tier) bool {
	if cred.Public {
		log.Printf("openai: no public endpoint available")
		o.ready = false
		return false
	}
	if cred.Key == "" {
		log.Printf("openai: no API key available for tier %s", tier)
		o.ready = false
		return false
	}

	clientConfig := openai.DefaultConfig(cred.Key)
	if o.baseURL != "" {
		clientConfig.BaseURL = o.baseURL
	}
	o.client = openai.NewClientWithConfig(clientConfig)
	o.tier = tier
	o.ready = true
	return true
}

func (o *OpenAI) SetLanguage(tag string) { o.language = tag }

func (o *OpenAI) IsReady() bool { return o.ready }

func (o *OpenAI) Transcribe(ctx context.Context, frame audio.Frame) (string, error) {
	if frame.Empty() {
		return "", nil
	}
	if !o.ready {
		return "", newFailure(KindUnauthorized, "openai backend not initialized")
	}
	frame = capFrame(frame, o.tier)

	req := openai.AudioRequest{
		Model:    o.model,
		Reader:   bytes.NewReader(encodeWAV(frame)),
		FilePath: "audio.wav",
		Language: language.WhisperCode(o.language),
	}

	reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateTranscription(reqCtx, req)
	duration := time.Since(start)

	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", newFailure(classifyStatus(apiErr.HTTPStatusCode),
				"openai api status %d after %v: %s", apiErr.HTTPStatusCode, duration, apiErr.Message)
		}
		return "", newFailure(classifyTransport(err), "openai request after %v: %v", duration, err)
	}

	log.Printf("openai: transcribed %d samples in %v: %q", len(frame.Samples), duration, resp.Text)
	return resp.Text, nil
}
