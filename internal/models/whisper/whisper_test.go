package whisper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	t.Run("known model", func(t *testing.T) {
		info := Get("base.en")
		if info == nil {
			t.Fatal("Get(base.en) returned nil")
		}
		if info.Filename != "ggml-base.en.bin" {
			t.Errorf("Filename = %q", info.Filename)
		}
		if info.Multilingual {
			t.Error("base.en should be english-only")
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		if Get("gigantic") != nil {
			t.Error("Get(gigantic) should return nil")
		}
	})
}

func TestPath(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "ggml-tiny.bin")
	if got := Path(dir, "tiny"); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
	if got := Path(dir, "nope"); got != "" {
		t.Errorf("Path for unknown model = %q, want empty", got)
	}
}

func TestDownloadURL(t *testing.T) {
	url := DownloadURL("large-v3")
	if !strings.HasSuffix(url, "/ggml-large-v3.bin") {
		t.Errorf("unexpected URL %q", url)
	}
	if !strings.Contains(url, "huggingface.co") {
		t.Errorf("URL should point at huggingface, got %q", url)
	}
	if DownloadURL("nope") != "" {
		t.Error("unknown model should yield empty URL")
	}
}

func TestIsInstalled(t *testing.T) {
	dir := t.TempDir()

	if IsInstalled(dir, "base") {
		t.Error("empty dir should have no installed models")
	}

	path := Path(dir, "base")
	if err := os.WriteFile(path, []byte("model bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	if !IsInstalled(dir, "base") {
		t.Error("model file present but IsInstalled is false")
	}

	// zero-byte files are leftovers from failed writes, not models
	if err := os.WriteFile(Path(dir, "tiny"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if IsInstalled(dir, "tiny") {
		t.Error("zero-byte file should not count as installed")
	}
}

func TestListInstalled(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"tiny.en", "small"} {
		if err := os.WriteFile(Path(dir, id), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	got := ListInstalled(dir)
	if len(got) != 2 {
		t.Fatalf("ListInstalled = %v, want 2 entries", got)
	}
}

func TestDownload(t *testing.T) {
	t.Run("success with progress", func(t *testing.T) {
		payload := strings.Repeat("w", 64*1024)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, payload)
		}))
		defer srv.Close()

		old := http.DefaultClient.Transport
		http.DefaultClient.Transport = rewriteTransport{target: srv.URL}
		defer func() { http.DefaultClient.Transport = old }()

		dir := t.TempDir()
		var lastDownloaded int64
		err := Download(context.Background(), dir, "tiny", func(downloaded, total int64) {
			lastDownloaded = downloaded
		})
		if err != nil {
			t.Fatalf("Download: %v", err)
		}
		if lastDownloaded != int64(len(payload)) {
			t.Errorf("final progress = %d, want %d", lastDownloaded, len(payload))
		}
		if !IsInstalled(dir, "tiny") {
			t.Error("model not installed after download")
		}
		if _, err := os.Stat(Path(dir, "tiny") + ".downloading"); !os.IsNotExist(err) {
			t.Error("temp file left behind")
		}
	})

	t.Run("server error leaves nothing behind", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		old := http.DefaultClient.Transport
		http.DefaultClient.Transport = rewriteTransport{target: srv.URL}
		defer func() { http.DefaultClient.Transport = old }()

		dir := t.TempDir()
		if err := Download(context.Background(), dir, "tiny", nil); err == nil {
			t.Fatal("expected error for 404")
		}
		if IsInstalled(dir, "tiny") {
			t.Error("failed download should not install")
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		if err := Download(context.Background(), t.TempDir(), "nope", nil); err == nil {
			t.Fatal("expected error for unknown model")
		}
	})
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()

	if err := Remove(dir, "base"); err == nil {
		t.Error("removing missing model should fail")
	}

	if err := os.WriteFile(Path(dir, "base"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Remove(dir, "base"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if IsInstalled(dir, "base") {
		t.Error("model still installed after Remove")
	}
}

// rewriteTransport redirects every request to the test server regardless
// of the original host.
type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(rt.target, "http://")
	return http.DefaultTransport.RoundTrip(req)
}
