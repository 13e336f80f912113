package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/notifications"
)

type captured struct {
	title    string
	message  string
	tags     string
	priority string
}

func captureServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			message:  string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "run"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	server, got := captureServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyRunCompleted(ctx, "20261017-101500-abcd1234", map[string]string{"pt": "/p", "en": "/e"}, 95*time.Second); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if err := svc.NotifyBatchCompleted(ctx, 2, 1, 2*time.Minute); err != nil {
		t.Fatalf("NotifyBatchCompleted: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("speech failed"), "20261017"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}

	want := []captured{
		{
			title:    "reelforge - Complete",
			message:  "Videos ready: 20261017-101500-abcd1234 (en, pt) in 1m35s",
			tags:     "reelforge,run,completed",
			priority: "high",
		},
		{
			title:   "reelforge - Batch Complete (with errors)",
			message: "Batch complete: 2 succeeded, 1 failed in 2m0s",
			tags:    "reelforge,batch,completed",
		},
		{
			title:    "reelforge - Error",
			message:  "Error with 20261017: speech failed",
			tags:     "reelforge,error,alert",
			priority: "high",
		},
	}
	if len(*got) != len(want) {
		t.Fatalf("expected %d notifications, got %d", len(want), len(*got))
	}
	for i := range want {
		if (*got)[i] != want[i] {
			t.Fatalf("notification %d = %#v, want %#v", i, (*got)[i], want[i])
		}
	}
}

func TestNtfyServiceHonoursSwitches(t *testing.T) {
	server, got := captureServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RunComplete = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	_ = svc.NotifyRunCompleted(ctx, "x", nil, time.Second)
	_ = svc.NotifyIdeasCreated(ctx, 2)
	_ = svc.NotifyError(ctx, errors.New("boom"), "")
	if len(*got) != 0 {
		t.Fatalf("expected no notifications, got %d", len(*got))
	}
	if err := svc.TestNotification(ctx); err != nil || len(*got) != 1 {
		t.Fatalf("test notification should always send: %v", err)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := captureServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403")
	}
}
