package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"reelforge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "video_edited", "mix", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"video_edited", "mix", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestDetailsClassification(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{services.Wrap(services.ErrValidation, "content", "load", "bad idea", nil), "validation"},
		{services.Wrap(services.ErrExternalTool, "media", "ffmpeg", "exit 1", nil), "external"},
		{fmt.Errorf("stage: %w", context.Canceled), "canceled"},
		{services.Wrap(services.ErrNotFound, "content", "load", "idea.json", nil), "not_found"},
		{errors.New("plain"), "unknown"},
	}
	for _, tc := range cases {
		if got := services.Details(tc.err).Kind; got != tc.kind {
			t.Fatalf("Details(%v).Kind = %q, want %q", tc.err, got, tc.kind)
		}
	}
	if details := services.Details(nil); details.Kind != "" {
		t.Fatalf("expected empty details for nil, got %+v", details)
	}
}

func TestRetryable(t *testing.T) {
	if services.Retryable(services.Wrap(services.ErrValidation, "", "", "x", nil)) {
		t.Fatal("validation errors should not be retryable")
	}
	if !services.Retryable(services.Wrap(services.ErrExternalTool, "", "", "x", nil)) {
		t.Fatal("external failures should be retryable")
	}
	if services.Retryable(nil) {
		t.Fatal("nil is not retryable")
	}
}
