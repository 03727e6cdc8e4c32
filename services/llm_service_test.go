package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reddit_intent/config"
)

func TestChatCompletion(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key-1" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("request = %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"ok\": true}"}, "finish_reason": "stop"}]}`))
	}))
	defer srv.Close()

	c := NewChatCompletion(srv.URL+"/", "key-1", "test-model", 5*time.Second)
	out, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if out != `{"ok": true}` {
		t.Errorf("out = %q", out)
	}
}

func TestChatCompletionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusTooManyRequests, `{"error": "rate limited"}`},
		{"no choices", http.StatusOK, `{"choices": []}`},
		{"bad json", http.StatusOK, `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			if _, err := NewChatCompletion(srv.URL, "k", "m", time.Second).Complete(context.Background(), "p"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestChatCompletionKeyFromEnv(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "from-env")

	c := NewChatCompletion("http://localhost", "${TEST_LLM_KEY}", "m", time.Second)
	if c.APIKey != "from-env" {
		t.Errorf("APIKey = %q", c.APIKey)
	}
}

func TestNewCompletionLanes(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.LLM.Provider = "siliconflow"
	if _, err := NewCompletionLanes(context.Background(), cfg); err == nil {
		t.Error("expected error without api keys")
	}

	cfg.LLM.APIKeys = []string{"a", "b", "c"}
	lanes, err := NewCompletionLanes(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(lanes) != 3 {
		t.Errorf("lanes = %d, want one per key", len(lanes))
	}

	cfg.LLM.Provider = "unknown"
	if _, err := NewCompletionLanes(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
