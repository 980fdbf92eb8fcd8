package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func completionBody(content, finishReason string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]any{"content": content},
				"finish_reason": finishReason,
			},
		},
	}
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if req.Temperature != 0 {
			t.Errorf("temperature = %v, want 0", req.Temperature)
		}
		if req.MaxTokens != 3000 {
			t.Errorf("max_tokens = %d", req.MaxTokens)
		}
		if req.ResponseFormat.Type != "json_object" {
			t.Errorf("response_format = %q", req.ResponseFormat.Type)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(completionBody(`{"overallScore":90}`, "stop"))
	}))
	defer server.Close()

	c := NewClient("test-key", "test-model")
	c.SetBaseURL(server.URL)

	out, err := c.Complete(context.Background(), "sys", "user prompt", 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"overallScore":90}` {
		t.Errorf("content = %q", out)
	}
}

func TestComplete_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient("bad", "m")
	c.SetBaseURL(server.URL)

	_, err := c.Complete(context.Background(), "s", "u", 100)
	var oe *Error
	if !errors.As(err, &oe) || oe.Kind != KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
	if oe.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", oe.Status)
	}
}

func TestComplete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient("k", "m")
	c.SetBaseURL(server.URL)

	_, err := c.Complete(context.Background(), "s", "u", 100)
	if KindOf(err) != KindRateLimited {
		t.Fatalf("expected rate-limited, got %v", err)
	}
}

func TestComplete_FinishReasonLength_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionBody(`{"overall`, "length"))
	}))
	defer server.Close()

	c := NewClient("k", "m")
	c.SetBaseURL(server.URL)

	_, err := c.Complete(context.Background(), "s", "u", 100)
	if KindOf(err) != KindTruncated {
		t.Fatalf("expected truncated, got %v", err)
	}
}

func TestComplete_DeadlineExceeded_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(completionBody("{}", "stop"))
	}))
	defer server.Close()

	c := NewClient("k", "m")
	c.SetBaseURL(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, "s", "u", 100)
	if KindOf(err) != KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestComplete_CallerCancel_SurfacesContextCanceled(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	c := NewClient("k", "m")
	c.SetBaseURL(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.Complete(ctx, "s", "u", 100)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRemediation_NonEmptyForAllKinds(t *testing.T) {
	for _, k := range []Kind{KindTransport, KindAuth, KindRateLimited, KindHTTP, KindTimeout, KindTruncated, KindParse} {
		e := &Error{Kind: k, Message: "detail"}
		if e.Remediation() == "" {
			t.Errorf("kind %v has no remediation text", k)
		}
	}
}
