package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/speechpipe/speechpipe/internal/credential"
)

func TestAzureTranscribe(t *testing.T) {
	t.Run("token exchange then recognition", func(t *testing.T) {
		tokenCalls := 0
		var gotSubKey, gotAuth string
		mux := http.NewServeMux()
		mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
			tokenCalls++
			gotSubKey = r.Header.Get("Ocp-Apim-Subscription-Key")
			w.Write([]byte("issued-token"))
		})
		mux.HandleFunc("/stt", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":"hello azure"}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		a := NewAzure(Config{Language: "en-US"})
		a.Initialize(credential.Credential{Key: "sub-key"}, credential.TierPersonal)
		a.tokenURL = srv.URL + "/token"
		a.sttURL = srv.URL + "/stt"

		text, err := a.Transcribe(context.Background(), testFrame(256))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "hello azure" {
			t.Errorf("text = %q, want %q", text, "hello azure")
		}
		if gotSubKey != "sub-key" {
			t.Errorf("subscription key header = %q", gotSubKey)
		}
		if gotAuth != "Bearer issued-token" {
			t.Errorf("authorization = %q", gotAuth)
		}

		// Second call reuses the cached token.
		if _, err := a.Transcribe(context.Background(), testFrame(256)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tokenCalls != 1 {
			t.Errorf("token endpoint called %d times, want 1", tokenCalls)
		}
	})

	t.Run("jwt key skips token exchange", func(t *testing.T) {
		tokenCalls := 0
		var gotAuth string
		mux := http.NewServeMux()
		mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
			tokenCalls++
		})
		mux.HandleFunc("/stt", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":"ok"}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		a := NewAzure(Config{})
		a.Initialize(credential.Credential{Key: "eyJhbGciOiJIUzI1NiJ9.payload.sig"}, credential.TierPersonal)
		a.tokenURL = srv.URL + "/token"
		a.sttURL = srv.URL + "/stt"

		if _, err := a.Transcribe(context.Background(), testFrame(64)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tokenCalls != 0 {
			t.Errorf("token endpoint called %d times, want 0", tokenCalls)
		}
		if gotAuth != "Bearer eyJhbGciOiJIUzI1NiJ9.payload.sig" {
			t.Errorf("authorization = %q", gotAuth)
		}
	})

	t.Run("rejected subscription key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		a := NewAzure(Config{})
		a.Initialize(credential.Credential{Key: "bad-key"}, credential.TierPersonal)
		a.tokenURL = srv.URL
		a.sttURL = srv.URL

		_, err := a.Transcribe(context.Background(), testFrame(64))
		f, ok := AsFailure(err)
		if !ok || f.Kind != KindUnauthorized {
			t.Fatalf("got %v, want unauthorized failure", err)
		}
	})

	t.Run("no match is not an error", func(t *testing.T) {
		for _, status := range []string{"NoMatch", "InitialSilenceTimeout", "BabbleTimeout"} {
			mux := http.NewServeMux()
			mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("tok"))
			})
			mux.HandleFunc("/stt", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"RecognitionStatus":"` + status + `"}`))
			})
			srv := httptest.NewServer(mux)

			a := NewAzure(Config{})
			a.Initialize(credential.Credential{Key: "k"}, credential.TierPersonal)
			a.tokenURL = srv.URL + "/token"
			a.sttURL = srv.URL + "/stt"

			text, err := a.Transcribe(context.Background(), testFrame(64))
			srv.Close()
			if err != nil {
				t.Fatalf("status %s must not be an error, got %v", status, err)
			}
			if text != "" {
				t.Errorf("status %s: text = %q, want empty", status, text)
			}
		}
	})

	t.Run("unexpected recognition status", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("tok"))
		})
		mux.HandleFunc("/stt", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"RecognitionStatus":"Error"}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		a := NewAzure(Config{})
		a.Initialize(credential.Credential{Key: "k"}, credential.TierPersonal)
		a.tokenURL = srv.URL + "/token"
		a.sttURL = srv.URL + "/stt"

		_, err := a.Transcribe(context.Background(), testFrame(64))
		f, ok := AsFailure(err)
		if !ok || f.Kind != KindServerError {
			t.Fatalf("got %v, want server_error failure", err)
		}
	})

	t.Run("nbest fallback for display text", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("tok"))
		})
		mux.HandleFunc("/stt", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"RecognitionStatus":"Success","NBest":[{"Display":"from nbest"}]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		a := NewAzure(Config{})
		a.Initialize(credential.Credential{Key: "k"}, credential.TierPersonal)
		a.tokenURL = srv.URL + "/token"
		a.sttURL = srv.URL + "/stt"

		text, err := a.Transcribe(context.Background(), testFrame(64))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "from nbest" {
			t.Errorf("text = %q, want %q", text, "from nbest")
		}
	})

	t.Run("public endpoint keyless", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":"public"}`))
		}))
		defer srv.Close()

		a := NewAzure(Config{Language: "de-DE"})
		a.publicURL = srv.URL
		if !a.Initialize(credential.Credential{Public: true}, credential.TierPublicFree) {
			t.Fatal("public initialize should succeed without a key")
		}

		text, err := a.Transcribe(context.Background(), testFrame(64))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "public" {
			t.Errorf("text = %q", text)
		}
		if gotQuery == "" {
			t.Error("public request carried no query parameters")
		}
	})

	t.Run("initialize resets cached token", func(t *testing.T) {
		a := NewAzure(Config{})
		a.token = "stale"
		a.Initialize(credential.Credential{Key: "k"}, credential.TierPersonal)
		if a.token != "" {
			t.Error("initialize must drop the cached token")
		}
	})

	t.Run("shared tier moves to the shared region", func(t *testing.T) {
		a := NewAzure(Config{})
		a.Initialize(credential.Credential{Key: "k"}, credential.TierShared)
		if a.region != sharedAzureRegion {
			t.Errorf("region = %q, want %q", a.region, sharedAzureRegion)
		}
	})

	t.Run("personal tier after shared returns to the configured region", func(t *testing.T) {
		a := NewAzure(Config{AzureRegion: "westeurope"})
		a.Initialize(credential.Credential{Key: "shared-k"}, credential.TierShared)
		a.Initialize(credential.Credential{Key: "personal-k"}, credential.TierPersonal)
		if a.region != "westeurope" {
			t.Errorf("region = %q, want %q", a.region, "westeurope")
		}
		if !strings.Contains(a.sttURL, "westeurope") {
			t.Errorf("sttURL = %q, want the configured region back", a.sttURL)
		}
		if !strings.Contains(a.tokenURL, "westeurope") {
			t.Errorf("tokenURL = %q, want the configured region back", a.tokenURL)
		}
	})

	t.Run("explicit region is kept on the shared tier", func(t *testing.T) {
		a := NewAzure(Config{AzureRegion: "northeurope"})
		a.Initialize(credential.Credential{Key: "k"}, credential.TierShared)
		if a.region != "northeurope" {
			t.Errorf("region = %q, want the explicitly configured one", a.region)
		}
	})
}
