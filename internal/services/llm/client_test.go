package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelforge/internal/services"
	"reelforge/internal/services/apiclient"
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": content,
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestClientCompleteSendsUserPrompt(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		completionHandler(t, "three ideas")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "auto"})
	reply, err := client.Complete(context.Background(), "Generate 3 ideas")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if reply != "three ideas" {
		t.Fatalf("reply = %q", reply)
	}
	if got.Model != "openrouter/auto" {
		t.Fatalf("model alias not resolved: %q", got.Model)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "Generate 3 ideas" {
		t.Fatalf("messages = %+v", got.Messages)
	}
}

func TestClientCompleteRequiresKey(t *testing.T) {
	client := NewClient(Config{Model: "demo"})
	_, err := client.Complete(context.Background(), "hi")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClientCompleteUnauthorizedIsConfiguration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	_, err := client.Complete(context.Background(), "hi")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "```json\n{\"ok\":true}\n```"))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientToolCallArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": "",
						"tool_calls": []any{
							map[string]any{"function": map[string]any{"arguments": `{"ok":true}`}},
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		completionHandler(t, "done")(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		apiclient.WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		apiclient.WithRetryBackoff(0, 10*time.Second),
		apiclient.WithRetryMaxAttempts(5),
	)
	reply, err := client.Complete(context.Background(), "test prompt")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if reply != "done" {
		t.Fatalf("reply = %q", reply)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = "finally"
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message":       map[string]any{"content": content},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		apiclient.WithRetryBackoff(0, 0),
		apiclient.WithSleeper(func(time.Duration) {}),
		apiclient.WithRetryMaxAttempts(5),
	)
	reply, err := client.Complete(context.Background(), "test prompt")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if reply != "finally" {
		t.Fatalf("reply = %q", reply)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"finish_reason":"length","message":{"content":""}}]}`))
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		apiclient.WithRetryMaxAttempts(1),
	)
	_, err := client.Complete(context.Background(), "test prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `finish_reason="length"`) {
		t.Fatalf("error lacks finish reason: %v", err)
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	var ideas []map[string]any
	content := "Here are your ideas:\n```json\n[{\"image_prompt\": \"a\"}, {\"image_prompt\": \"b\"}]\n```\nEnjoy!"
	if err := DecodeLLMJSON(content, &ideas); err != nil {
		t.Fatalf("DecodeLLMJSON: %v", err)
	}
	if len(ideas) != 2 {
		t.Fatalf("ideas = %v", ideas)
	}

	var list []map[string]any
	if err := DecodeLLMJSON(`Sure! [{"a": {"b": 1}}] done`, &list); err != nil {
		t.Fatalf("prose-wrapped array: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %v", list)
	}

	var obj map[string]any
	if err := DecodeLLMJSON("not json", &obj); err == nil {
		t.Fatal("expected error")
	}
}
