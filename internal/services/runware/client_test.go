package runware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelforge/internal/services"
	"reelforge/internal/services/apiclient"
)

func TestGenerateSubmitsTaskAndDownloads(t *testing.T) {
	var tasks []imageTask
	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("/v1", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&tasks); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []any{map[string]any{"taskUUID": "task-1", "imageURL": serverURL + "/img.jpg"}},
		})
	})
	mux.HandleFunc("/img.jpg", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg-bytes"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL + "/v1", Width: 512, Height: 896})
	client.ids = func() string { return "task-1" }

	dest := filepath.Join(t.TempDir(), "image.jpg")
	if err := client.Generate(context.Background(), "a red fox", dest); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "jpeg-bytes" {
		t.Fatalf("image = %q, %v", data, err)
	}
	if len(tasks) != 1 {
		t.Fatalf("tasks = %+v", tasks)
	}
	task := tasks[0]
	if task.TaskType != "imageInference" || task.TaskUUID != "task-1" || task.PositivePrompt != "a red fox" {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.Width != 512 || task.Height != 896 || task.Model != defaultModel || task.NumberResults != 1 {
		t.Fatalf("unexpected geometry %+v", task)
	}
}

func TestGenerateReportsTaskErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"code":"invalidModel","message":"unknown model"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	err := client.Generate(context.Background(), "prompt", filepath.Join(t.TempDir(), "x.jpg"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestGenerateValidatesInput(t *testing.T) {
	client := NewClient(Config{})
	if err := client.Generate(context.Background(), "prompt", "x.jpg"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	client = NewClient(Config{APIKey: "key"})
	if err := client.Generate(context.Background(), "  ", "x.jpg"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	calls := 0
	var serverURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/img.jpg" {
			_, _ = w.Write([]byte("ok"))
			return
		}
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []any{map[string]any{"imageURL": serverURL + "/img.jpg"}},
		})
	}))
	defer server.Close()
	serverURL = server.URL

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL},
		apiclient.WithSleeper(func(time.Duration) {}),
	)
	if err := client.Generate(context.Background(), "prompt", filepath.Join(t.TempDir(), "x.jpg")); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 task calls, got %d", calls)
	}
}
