package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"reelforge/internal/services"
)

func newTestClient(sleeps *[]time.Duration, opts ...Option) *Client {
	base := []Option{
		WithRetryMaxAttempts(3),
		WithRetryBackoff(10*time.Millisecond, 40*time.Millisecond),
		WithSleeper(func(d time.Duration) { *sleeps = append(*sleeps, d) }),
	}
	return New("test", time.Second, append(base, opts...)...)
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	client := newTestClient(&sleeps)
	resp, err := client.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Fatalf("body = %q", resp.Body)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if len(sleeps) != 2 || sleeps[0] != 10*time.Millisecond || sleeps[1] != 20*time.Millisecond {
		t.Fatalf("sleeps = %v", sleeps)
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad prompt", http.StatusBadRequest)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	client := newTestClient(&sleeps)
	_, err := client.Do(context.Background(), Request{Method: http.MethodPost, URL: srv.URL, Body: []byte("{}")})
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if Marker(err) != services.ErrExternalTool {
		t.Fatalf("marker = %v", Marker(err))
	}
}

func TestDoHonoursRetryAfter(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	client := newTestClient(&sleeps, WithRetryBackoff(10*time.Millisecond, 5*time.Second))
	if _, err := client.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(sleeps) != 1 || sleeps[0] != time.Second {
		t.Fatalf("sleeps = %v", sleeps)
	}
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	client := newTestClient(&sleeps)
	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	if err == nil {
		t.Fatal("expected error")
	}
	if Marker(err) != services.ErrTransient {
		t.Fatalf("marker = %v", Marker(err))
	}
	if len(sleeps) != 2 {
		t.Fatalf("sleeps = %v", sleeps)
	}
}

type emptyReply struct{}

func (emptyReply) Error() string   { return "empty reply" }
func (emptyReply) Retryable() bool { return true }

func TestRetryHonoursRetryableErrors(t *testing.T) {
	var sleeps []time.Duration
	client := newTestClient(&sleeps)
	attempts := 0
	err := client.Retry(context.Background(), "complete", func(context.Context) error {
		attempts++
		if attempts < 2 {
			return emptyReply{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d", attempts)
	}
}

func TestRetryStopsOnCanceledContext(t *testing.T) {
	var sleeps []time.Duration
	client := newTestClient(&sleeps)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.Retry(ctx, "complete", func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if len(sleeps) != 0 {
		t.Fatalf("sleeps = %v", sleeps)
	}
}

func TestDoJSONSendsAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("Authorization") != "Bearer k" {
			http.Error(w, "bad headers", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"id":"task-1"}`))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	client := newTestClient(&sleeps)
	var out struct {
		ID string `json:"id"`
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer k")
	if err := client.DoJSON(context.Background(), http.MethodPost, srv.URL, header, map[string]string{"a": "b"}, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.ID != "task-1" {
		t.Fatalf("id = %q", out.ID)
	}
}

func TestDownloadWritesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpegdata"))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	client := newTestClient(&sleeps)
	dest := filepath.Join(t.TempDir(), "image.jpg")
	if err := client.Download(context.Background(), srv.URL+"/img.jpg", dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "jpegdata" {
		t.Fatalf("data = %q", data)
	}
}

func TestMarker(t *testing.T) {
	if Marker(&HTTPStatusError{StatusCode: http.StatusUnauthorized}) != services.ErrConfiguration {
		t.Fatal("401 should be a configuration error")
	}
	if Marker(context.DeadlineExceeded) != services.ErrTimeout {
		t.Fatal("deadline should be a timeout")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := ParseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Fatalf("got %v %v", d, ok)
	}
	if _, ok := ParseRetryAfter("-1"); ok {
		t.Fatal("negative should be rejected")
	}
	if _, ok := ParseRetryAfter("soon"); ok {
		t.Fatal("garbage should be rejected")
	}
}

func TestRateLimitOption(t *testing.T) {
	client := New("test", 0, WithRateLimit(2))
	if client.limiter == nil {
		t.Fatal("expected limiter")
	}
	if New("test", 0, WithRateLimit(0)).limiter != nil {
		t.Fatal("zero rate should disable limiting")
	}
}
