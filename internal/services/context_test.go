package services_test

import (
	"context"
	"testing"

	"reelforge/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithContentDir(ctx, "/tmp/content/short_video/abc")
	ctx = services.WithStage(ctx, "speech_created")
	ctx = services.WithLanguage(ctx, "pt")
	ctx = services.WithRequestID(ctx, "req-123")

	if dir, ok := services.ContentDirFromContext(ctx); !ok || dir != "/tmp/content/short_video/abc" {
		t.Fatalf("unexpected content dir: %v %v", dir, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "speech_created" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if lang, ok := services.LanguageFromContext(ctx); !ok || lang != "pt" {
		t.Fatalf("unexpected language: %v %v", lang, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	ctx = services.WithLanguage(ctx, "")
	if _, ok := services.LanguageFromContext(ctx); ok {
		t.Fatal("expected no language value")
	}
}
