package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/speechpipe/speechpipe/internal/audio"
	"github.com/speechpipe/speechpipe/internal/credential"
)

func newTestGoogle(t *testing.T, handler http.HandlerFunc) (*Google, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewGoogle(Config{Language: "en-US"})
	g.apiURL = srv.URL
	g.publicURL = srv.URL
	return g, srv
}

func googleResultBody(transcript string) string {
	return `{"results":[{"alternatives":[{"transcript":"` + transcript + `"}]}]}`
}

func TestGoogleTranscribe(t *testing.T) {
	t.Run("success with api key in query", func(t *testing.T) {
		var gotKey string
		var gotReq googleRequest
		g, _ := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.URL.Query().Get("key")
			if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
				t.Errorf("decode request: %v", err)
			}
			w.Write([]byte(googleResultBody("hello world")))
		})
		g.Initialize(credential.Credential{Key: "test-key"}, credential.TierPersonal)

		text, err := g.Transcribe(context.Background(), testFrame(1024))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "hello world" {
			t.Errorf("text = %q, want %q", text, "hello world")
		}
		if gotKey != "test-key" {
			t.Errorf("key query param = %q, want %q", gotKey, "test-key")
		}
		if gotReq.Config.Encoding != "LINEAR16" {
			t.Errorf("encoding = %q, want LINEAR16", gotReq.Config.Encoding)
		}
		if gotReq.Config.LanguageCode != "en-US" {
			t.Errorf("languageCode = %q, want en-US", gotReq.Config.LanguageCode)
		}
	})

	t.Run("oauth token in bearer header", func(t *testing.T) {
		var gotAuth, gotKey string
		g, _ := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotKey = r.URL.Query().Get("key")
			w.Write([]byte(googleResultBody("ok")))
		})
		g.Initialize(credential.Credential{Key: "ya29.access-token"}, credential.TierPersonal)

		if _, err := g.Transcribe(context.Background(), testFrame(64)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotAuth != "Bearer ya29.access-token" {
			t.Errorf("authorization = %q, want bearer token", gotAuth)
		}
		if gotKey != "" {
			t.Errorf("key query param = %q, want empty for oauth", gotKey)
		}
	})

	t.Run("public endpoint keyless", func(t *testing.T) {
		var gotQuery string
		g, _ := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte(googleResultBody("public ok")))
		})
		if !g.Initialize(credential.Credential{Public: true}, credential.TierPublicFree) {
			t.Fatal("public initialize should succeed without a key")
		}

		text, err := g.Transcribe(context.Background(), testFrame(64))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "public ok" {
			t.Errorf("text = %q", text)
		}
		if !strings.Contains(gotQuery, "public_access=true") {
			t.Errorf("query = %q, want public_access=true", gotQuery)
		}
	})

	t.Run("empty results mean no speech", func(t *testing.T) {
		g, _ := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results":[]}`))
		})
		g.Initialize(credential.Credential{Key: "k"}, credential.TierPersonal)

		text, err := g.Transcribe(context.Background(), testFrame(64))
		if err != nil {
			t.Fatalf("no speech must not be an error, got %v", err)
		}
		if text != "" {
			t.Errorf("text = %q, want empty", text)
		}
	})

	t.Run("empty frame short-circuits", func(t *testing.T) {
		called := false
		g, _ := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		g.Initialize(credential.Credential{Key: "k"}, credential.TierPersonal)

		text, err := g.Transcribe(context.Background(), audio.Frame{})
		if err != nil || text != "" {
			t.Fatalf("got (%q, %v), want empty no-error", text, err)
		}
		if called {
			t.Error("empty frame must not hit the network")
		}
	})

	t.Run("http status mapping", func(t *testing.T) {
		statuses := []struct {
			code int
			want Kind
		}{
			{http.StatusBadRequest, KindBadRequest},
			{http.StatusUnauthorized, KindUnauthorized},
			{http.StatusForbidden, KindForbidden},
			{http.StatusTooManyRequests, KindRateLimited},
			{http.StatusInternalServerError, KindServerError},
		}
		for _, tt := range statuses {
			g, _ := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			})
			g.Initialize(credential.Credential{Key: "k"}, credential.TierPersonal)

			_, err := g.Transcribe(context.Background(), testFrame(64))
			f, ok := AsFailure(err)
			if !ok {
				t.Fatalf("status %d: want a failure, got %v", tt.code, err)
			}
			if f.Kind != tt.want {
				t.Errorf("status %d: kind = %s, want %s", tt.code, f.Kind, tt.want)
			}
		}
	})

	t.Run("embedded api error", func(t *testing.T) {
		g, _ := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
		})
		g.Initialize(credential.Credential{Key: "k"}, credential.TierPersonal)

		_, err := g.Transcribe(context.Background(), testFrame(64))
		f, ok := AsFailure(err)
		if !ok || f.Kind != KindForbidden {
			t.Fatalf("got %v, want forbidden failure", err)
		}
	})

	t.Run("shared tier truncates audio before encoding", func(t *testing.T) {
		var gotSamples int
		g, _ := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
			var req googleRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
				return
			}
			raw, err := base64.StdEncoding.DecodeString(req.Audio.Content)
			if err != nil {
				t.Errorf("decode audio: %v", err)
				return
			}
			gotSamples = (len(raw) - 44) / 2
			w.Write([]byte(googleResultBody("ok")))
		})
		g.Initialize(credential.Credential{Key: "k"}, credential.TierShared)

		over := testFrame(credential.SharedSampleCap + 5000)
		if _, err := g.Transcribe(context.Background(), over); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotSamples != credential.SharedSampleCap {
			t.Errorf("sent %d samples, want cap %d", gotSamples, credential.SharedSampleCap)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		g := NewGoogle(Config{})
		g.apiURL = "http://127.0.0.1:1" // nothing listens here
		g.Initialize(credential.Credential{Key: "k"}, credential.TierPersonal)

		_, err := g.Transcribe(context.Background(), testFrame(64))
		f, ok := AsFailure(err)
		if !ok {
			t.Fatalf("want a failure, got %v", err)
		}
		if f.Kind != KindNetworkError && f.Kind != KindTimeout {
			t.Errorf("kind = %s, want network or timeout", f.Kind)
		}
	})

	t.Run("initialize without key", func(t *testing.T) {
		g := NewGoogle(Config{})
		if g.Initialize(credential.Credential{}, credential.TierPersonal) {
			t.Error("initialize should fail without a key")
		}
		if g.IsReady() {
			t.Error("backend must not report ready")
		}
	})
}
