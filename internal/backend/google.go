package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/speechpipe/speechpipe/internal/audio"
	"github.com/speechpipe/speechpipe/internal/credential"
	"github.com/speechpipe/speechpipe/internal/language"
)

const (
	googleRecognizeURL = "https://speech.googleapis.com/v1/speech:recognize"
	googlePublicURL    = "https://speech-api-public.eastus.azurecontainer.io/speech/google"
)

// Google talks to the Cloud Speech REST API: one JSON request per frame
// with base64-encoded LINEAR16 WAV content. The public tier goes through a
// shared container endpoint instead of the vendor API.
type Google struct {
	client    *http.Client
	apiURL    string
	publicURL string
	timeout   time.Duration
	language  string

	cred  credential.Credential
	tier  credential.Tier
	ready bool
}

func NewGoogle(cfg Config) *Google {
	return &Google{
		client:    &http.Client{},
		apiURL:    googleRecognizeURL,
		publicURL: googlePublicURL,
		timeout:   cfg.requestTimeout(),
		language:  cfg.Language,
	}
}

func (g *Google) ID() string { return IDGoogle }

func (g *Google) Initialize(cred credential.Credential, tier credential.Tier) bool {
	g.cred = cred
	g.tier = tier
	g.ready = cred.Public || cred.Key != ""
	if !g.ready {
		log.Printf("google: no API key available for tier %s", tier)
	}
	return g.ready
}

func (g *Google) SetLanguage(tag string) { g.language = tag }

func (g *Google) IsReady() bool { return g.ready }

type googleRequest struct {
	Config googleConfig `json:"config"`
	Audio  googleAudio  `json:"audio"`
}

type googleConfig struct {
	Encoding        string `json:"encoding"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	LanguageCode    string `json:"languageCode,omitempty"`
	Model           string `json:"model"`
}

type googleAudio struct {
	Content string `json:"content"`
}

type googleResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Google) Transcribe(ctx context.Context, frame audio.Frame) (string, error) {
	if frame.Empty() {
		return "", nil
	}
	frame = capFrame(frame, g.tier)

	body, err := json.Marshal(googleRequest{
		Config: googleConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: frame.SampleRate,
			LanguageCode:    language.VendorTag(g.language),
			Model:           "command_and_search",
		},
		Audio: googleAudio{Content: base64.StdEncoding.EncodeToString(encodeWAV(frame))},
	})
	if err != nil {
		return "", newFailure(KindBadRequest, "marshal request: %v", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := g.buildRequest(reqCtx, body)
	if err != nil {
		return "", newFailure(KindBadRequest, "build request: %v", err)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return "", newFailure(classifyTransport(err), "google request after %v: %v", time.Since(start), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newFailure(KindNetworkError, "read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", newFailure(classifyStatus(resp.StatusCode),
			"google api status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result googleResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", newFailure(KindServerError, "parse response: %v", err)
	}
	if result.Error != nil {
		return "", newFailure(classifyStatus(result.Error.Code),
			"google api error %d: %s", result.Error.Code, result.Error.Message)
	}

	if len(result.Results) == 0 || len(result.Results[0].Alternatives) == 0 {
		return "", nil // no speech detected
	}

	text := result.Results[0].Alternatives[0].Transcript
	log.Printf("google: transcribed %d samples in %v: %q", len(frame.Samples), time.Since(start), text)
	return text, nil
}

func (g *Google) buildRequest(ctx context.Context, body []byte) (*http.Request, error) {
	if g.cred.Public {
		u, err := url.Parse(g.publicURL)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("lang", language.VendorTag(g.language))
		q.Set("public_access", "true")
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	// OAuth access tokens go in a Bearer header; plain API keys ride the
	// query string.
	usingOAuth := strings.HasPrefix(g.cred.Key, "ya29.") || strings.HasPrefix(g.cred.Key, "Bearer ")

	apiURL := g.apiURL
	if !usingOAuth {
		apiURL = fmt.Sprintf("%s?key=%s", g.apiURL, url.QueryEscape(g.cred.Key))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if usingOAuth {
		auth := g.cred.Key
		if !strings.HasPrefix(auth, "Bearer ") {
			auth = "Bearer " + auth
		}
		req.Header.Set("Authorization", auth)
	}
	return req, nil
}
