package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/speechpipe/speechpipe/internal/audio"
	"github.com/speechpipe/speechpipe/internal/credential"
	"github.com/speechpipe/speechpipe/internal/language"
)

const (
	yandexRecognizeURL = "https://stt.api.cloud.yandex.net/speech/v1/stt:recognize"
	yandexPublicURL    = "https://speech-service-public.eastus.azurecontainer.io/speech/yandex"
)

// Yandex talks to the SpeechKit short-audio recognition endpoint: one POST
// with the WAV body and an Api-Key authorization header.
type Yandex struct {
	client    *http.Client
	apiURL    string
	publicURL string
	timeout   time.Duration
	language  string

	cred  credential.Credential
	tier  credential.Tier
	ready bool
}

func NewYandex(cfg Config) *Yandex {
	return &Yandex{
		client:    &http.Client{},
		apiURL:    yandexRecognizeURL,
		publicURL: yandexPublicURL,
		timeout:   cfg.requestTimeout(),
		language:  cfg.Language,
	}
}

func (y *Yandex) ID() string { return IDYandex }

func (y *Yandex) Initialize(cred credential.Credential, tier credential.Tier) bool {
	y.cred = cred
	y.tier = tier
	y.ready = cred.Public || cred.Key != ""
	if !y.ready {
		log.Printf("yandex: no API key available for tier %s", tier)
	}
	return y.ready
}

func (y *Yandex) SetLanguage(tag string) { y.language = tag }

func (y *Yandex) IsReady() bool { return y.ready }

type yandexResponse struct {
	Result    string `json:"result"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (y *Yandex) Transcribe(ctx context.Context, frame audio.Frame) (string, error) {
	if frame.Empty() {
		return "", nil
	}
	frame = capFrame(frame, y.tier)
	wavData := encodeWAV(frame)

	endpoint := y.apiURL
	if y.cred.Public {
		endpoint = y.publicURL
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", newFailure(KindBadRequest, "parse endpoint: %v", err)
	}
	q := u.Query()
	q.Set("lang", language.VendorTag(y.language))
	q.Set("format", "lpcm")
	q.Set("sampleRateHertz", strconv.Itoa(frame.SampleRate))
	if y.cred.Public {
		q.Set("public_access", "true")
	}
	u.RawQuery = q.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, u.String(), bytes.NewReader(wavData))
	if err != nil {
		return "", newFailure(KindBadRequest, "create request: %v", err)
	}
	req.Header.Set("Content-Type", "audio/wav")
	if !y.cred.Public {
		req.Header.Set("Authorization", "Api-Key "+y.cred.Key)
	}

	start := time.Now()
	resp, err := y.client.Do(req)
	if err != nil {
		return "", newFailure(classifyTransport(err), "yandex request after %v: %v", time.Since(start), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newFailure(KindNetworkError, "read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newFailure(classifyStatus(resp.StatusCode),
			"yandex api status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result yandexResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", newFailure(KindServerError, "parse response: %v", err)
	}
	if result.ErrorCode != "" {
		return "", newFailure(KindServerError, "yandex error %s: %s", result.ErrorCode, result.Message)
	}

	log.Printf("yandex: transcribed %d samples in %v: %q", len(frame.Samples), time.Since(start), result.Result)
	return result.Result, nil
}
