package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestClientCompleteForwardsPromptAndCredential(t *testing.T) {
	var captured struct {
		path   string
		auth   string
		body   chatRequest
		method string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.method = r.Method
		if err := json.NewDecoder(r.Body).Decode(&captured.body); err != nil {
			t.Errorf("decode upstream request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{"daily_plan": []}`)))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "")
	content, err := client.Complete(context.Background(), "规划一次旅行")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != `{"daily_plan": []}` {
		t.Fatalf("unexpected content %q", content)
	}
	if captured.method != http.MethodPost || captured.path != "/chat/completions" {
		t.Fatalf("expected POST /chat/completions, got %s %s", captured.method, captured.path)
	}
	if captured.auth != "Bearer sk-test" {
		t.Fatalf("expected bearer credential, got %q", captured.auth)
	}
	if captured.body.Model != DefaultModel {
		t.Fatalf("expected default model %q, got %q", DefaultModel, captured.body.Model)
	}
	if captured.body.ResponseFormat == nil || captured.body.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", captured.body.ResponseFormat)
	}
	if len(captured.body.Messages) != 1 || captured.body.Messages[0].Content != "规划一次旅行" {
		t.Fatalf("expected single user message with the prompt, got %+v", captured.body.Messages)
	}
}

func TestClientCompleteWithoutKey(t *testing.T) {
	client := NewClient("http://unused", "", "")
	if _, err := client.Complete(context.Background(), "anything"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestClientCompleteUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-bad", "")
	if _, err := client.Complete(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error for upstream 401")
	}
}

func TestClientCompleteEmptyEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "")
	if _, err := client.Complete(context.Background(), "prompt"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestClientCompleteBlankContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("   ")))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "")
	if _, err := client.Complete(context.Background(), "prompt"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}
