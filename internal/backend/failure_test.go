package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{400, KindBadRequest},
		{401, KindUnauthorized},
		{403, KindForbidden},
		{429, KindRateLimited},
		{500, KindServerError},
		{502, KindServerError},
		{503, KindServerError},
		{418, KindNetworkError},
		{0, KindNetworkError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			if got := classifyStatus(tt.code); got != tt.want {
				t.Errorf("classifyStatus(%d) = %s, want %s", tt.code, got, tt.want)
			}
		})
	}
}

type fakeNetError struct{ timeout bool }

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestClassifyTransport(t *testing.T) {
	t.Run("deadline exceeded", func(t *testing.T) {
		err := fmt.Errorf("request: %w", context.DeadlineExceeded)
		if got := classifyTransport(err); got != KindTimeout {
			t.Errorf("got %s, want %s", got, KindTimeout)
		}
	})

	t.Run("net timeout", func(t *testing.T) {
		err := fmt.Errorf("do: %w", &fakeNetError{timeout: true})
		if got := classifyTransport(err); got != KindTimeout {
			t.Errorf("got %s, want %s", got, KindTimeout)
		}
	})

	t.Run("other net error", func(t *testing.T) {
		err := fmt.Errorf("do: %w", &fakeNetError{timeout: false})
		if got := classifyTransport(err); got != KindNetworkError {
			t.Errorf("got %s, want %s", got, KindNetworkError)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if got := classifyTransport(errors.New("connection refused")); got != KindNetworkError {
			t.Errorf("got %s, want %s", got, KindNetworkError)
		}
	})
}

func TestAsFailure(t *testing.T) {
	t.Run("direct failure", func(t *testing.T) {
		err := newFailure(KindRateLimited, "too many requests")
		f, ok := AsFailure(err)
		if !ok {
			t.Fatal("expected a failure")
		}
		if f.Kind != KindRateLimited {
			t.Errorf("kind = %s, want %s", f.Kind, KindRateLimited)
		}
	})

	t.Run("wrapped failure", func(t *testing.T) {
		err := fmt.Errorf("transcribe: %w", newFailure(KindTimeout, "deadline"))
		f, ok := AsFailure(err)
		if !ok {
			t.Fatal("expected a failure")
		}
		if f.Kind != KindTimeout {
			t.Errorf("kind = %s, want %s", f.Kind, KindTimeout)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if _, ok := AsFailure(errors.New("boom")); ok {
			t.Error("plain error should not be a failure")
		}
	})
}

func TestFailureError(t *testing.T) {
	err := newFailure(KindUnauthorized, "key rejected by %s", "vendor")
	want := "unauthorized: key rejected by vendor"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &Failure{Kind: KindServerError}
	if bare.Error() != "server_error" {
		t.Errorf("Error() = %q, want %q", bare.Error(), "server_error")
	}
}

func TestRemediation(t *testing.T) {
	if KindUnauthorized.Remediation() == "" {
		t.Error("unauthorized should carry a remediation hint")
	}
	if KindModelUnavailable.Remediation() == "" {
		t.Error("model_unavailable should carry a remediation hint")
	}
	if KindTimeout.Remediation() != "" {
		t.Error("timeout should not carry a remediation hint")
	}
}
