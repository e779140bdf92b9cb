package backend

import (
	"bytes"
	"context"
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
	azureTokenURLFormat = "https://%s.api.cognitive.microsoft.com/sts/v1.0/issueToken"
	azureSTTURLFormat   = "https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1"
	azurePublicURL      = "https://speech-service-public.eastus.azurecontainer.io/speech/recognition"

	azureTokenTimeout = 5 * time.Second
	// Azure access tokens are valid for 10 minutes; refresh a bit early.
	azureTokenLifetime = 9 * time.Minute

	defaultAzureRegion = "westeurope"
	sharedAzureRegion  = "eastus"
)

// Azure talks to the Azure Speech REST API. A subscription key is first
// exchanged for a short-lived access token (cached across calls within the
// session); the recognition call then POSTs the WAV body with a Bearer
// header. The public tier goes through a shared container endpoint.
type Azure struct {
	client    *http.Client
	tokenURL  string
	sttURL    string
	publicURL string
	timeout   time.Duration
	language  string

	// configRegion is the region from config and never changes; region is
	// the effective region for the current tier, recomputed from
	// configRegion on every Initialize.
	configRegion string
	region       string

	cred  credential.Credential
	tier  credential.Tier
	ready bool

	token       string
	tokenExpiry time.Time
}

func NewAzure(cfg Config) *Azure {
	region := cfg.AzureRegion
	if region == "" {
		region = defaultAzureRegion
	}
	a := &Azure{
		client:       &http.Client{},
		publicURL:    azurePublicURL,
		configRegion: region,
		timeout:      cfg.requestTimeout(),
		language:     cfg.Language,
	}
	a.applyRegion(region)
	return a
}

func (a *Azure) applyRegion(region string) {
	a.region = region
	a.tokenURL = fmt.Sprintf(azureTokenURLFormat, region)
	a.sttURL = fmt.Sprintf(azureSTTURLFormat, region)
}

func (a *Azure) ID() string { return IDAzure }

func (a *Azure) Initialize(cred credential.Credential, tier credential.Tier) bool {
	a.cred = cred
	a.tier = tier
	a.token = ""
	a.tokenExpiry = time.Time{}

	// The shared pool key lives in the shared region; every other tier
	// uses the configured region. Derived fresh each time so a tier
	// switch never leaves the previous tier's endpoints behind.
	region := a.configRegion
	if tier == credential.TierShared && region == defaultAzureRegion {
		region = sharedAzureRegion
	}
	a.applyRegion(region)

	a.ready = cred.Public || cred.Key != ""
	if !a.ready {
		log.Printf("azure: no API key available for tier %s", tier)
	}
	return a.ready
}

func (a *Azure) SetLanguage(tag string) { a.language = tag }

func (a *Azure) IsReady() bool { return a.ready }

type azureResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		Display string `json:"Display"`
		Lexical string `json:"Lexical"`
	} `json:"NBest"`
}

func (a *Azure) Transcribe(ctx context.Context, frame audio.Frame) (string, error) {
	if frame.Empty() {
		return "", nil
	}
	frame = capFrame(frame, a.tier)
	wavData := encodeWAV(frame)

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if a.cred.Public {
		return a.transcribePublic(reqCtx, wavData)
	}

	token, err := a.accessToken(reqCtx)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(a.sttURL)
	if err != nil {
		return "", newFailure(KindBadRequest, "parse endpoint: %v", err)
	}
	q := u.Query()
	q.Set("language", language.VendorTag(a.language))
	q.Set("format", "detailed")
	q.Set("profanity", "raw")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, u.String(), bytes.NewReader(wavData))
	if err != nil {
		return "", newFailure(KindBadRequest, "create request: %v", err)
	}
	req.Header.Set("Content-Type", fmt.Sprintf("audio/wav; codec=audio/pcm; samplerate=%d", frame.SampleRate))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return "", newFailure(classifyTransport(err), "azure request after %v: %v", time.Since(start), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newFailure(KindNetworkError, "read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newFailure(classifyStatus(resp.StatusCode),
			"azure api status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result azureResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", newFailure(KindServerError, "parse response: %v", err)
	}

	switch result.RecognitionStatus {
	case "Success", "":
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return "", nil // no usable speech in the frame
	default:
		return "", newFailure(KindServerError, "azure recognition status: %s", result.RecognitionStatus)
	}

	text := result.DisplayText
	if text == "" && len(result.NBest) > 0 {
		text = result.NBest[0].Display
		if text == "" {
			text = result.NBest[0].Lexical
		}
	}

	log.Printf("azure: transcribed %d samples in %v: %q", len(frame.Samples), time.Since(start), text)
	return text, nil
}

func (a *Azure) transcribePublic(ctx context.Context, wavData []byte) (string, error) {
	u, err := url.Parse(a.publicURL)
	if err != nil {
		return "", newFailure(KindBadRequest, "parse endpoint: %v", err)
	}
	q := u.Query()
	q.Set("lang", language.VendorTag(a.language))
	q.Set("public_access", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(wavData))
	if err != nil {
		return "", newFailure(KindBadRequest, "create request: %v", err)
	}
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", newFailure(classifyTransport(err), "azure public request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newFailure(KindNetworkError, "read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newFailure(classifyStatus(resp.StatusCode),
			"azure public api status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result azureResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", newFailure(KindServerError, "parse response: %v", err)
	}
	return result.DisplayText, nil
}

// accessToken returns a cached token or exchanges the subscription key for
// a fresh one. Keys that already look like a JWT are used directly.
func (a *Azure) accessToken(ctx context.Context) (string, error) {
	if strings.HasPrefix(a.cred.Key, "eyJ") {
		return a.cred.Key, nil
	}
	if a.token != "" && time.Now().Before(a.tokenExpiry) {
		return a.token, nil
	}

	tokenCtx, cancel := context.WithTimeout(ctx, azureTokenTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(tokenCtx, http.MethodPost, a.tokenURL, nil)
	if err != nil {
		return "", newFailure(KindBadRequest, "create token request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Ocp-Apim-Subscription-Key", a.cred.Key)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", newFailure(classifyTransport(err), "azure token request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newFailure(KindNetworkError, "read token response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newFailure(classifyStatus(resp.StatusCode),
			"azure token status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	token := strings.TrimSpace(string(body))
	if token == "" {
		return "", newFailure(KindUnauthorized, "azure returned an empty access token")
	}

	a.token = token
	a.tokenExpiry = time.Now().Add(azureTokenLifetime)
	return token, nil
}
