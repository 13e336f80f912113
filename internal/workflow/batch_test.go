package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/catalog"
	"reelforge/internal/logging"
	"reelforge/internal/stage"
	"reelforge/internal/testsupport"
	"reelforge/internal/workflow"
)

func TestBatchRunsRunnableEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	observer := catalog.NewObserver(store, logging.NewNop())
	h := newHarness(t, cfg, nil, workflow.WithObserver(observer))
	ctx := context.Background()

	first := testsupport.NewShortEntity(t, cfg.Paths.ContentDir, "en")
	second := testsupport.NewShortEntity(t, cfg.Paths.ContentDir, "pt")
	for _, e := range []string{first.Dir(), second.Dir()} {
		if _, err := store.Upsert(ctx, e, "short_video", stage.Initialized, catalog.StatusPending, nil); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	missing := filepath.Join(cfg.Paths.ContentDir, "short_video", "gone")
	if _, err := store.Upsert(ctx, missing, "short_video", stage.Initialized, catalog.StatusFailed, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	result, err := h.pipeline.Batch(ctx, store)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(result.Succeeded) != 2 || len(result.Failed) != 1 || result.Failed[0] != missing {
		t.Fatalf("unexpected result %+v", result)
	}

	for _, dir := range []string{first.Dir(), second.Dir()} {
		entry, err := store.GetByDir(ctx, dir)
		if err != nil || entry == nil {
			t.Fatalf("GetByDir(%s): %v", dir, err)
		}
		if entry.Status != catalog.StatusCompleted || entry.Stage != stage.SubtitlesAdded {
			t.Fatalf("entry %s = %s/%s, want completed/subtitles_added", dir, entry.Status, entry.Stage)
		}
	}
	if len(h.notifier.batches) != 1 || h.notifier.batches[0] != [2]int{2, 1} {
		t.Fatalf("unexpected batch notifications %v", h.notifier.batches)
	}
}

func TestBatchSkipsLockedEntity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	h := newHarness(t, cfg, nil)
	ctx := context.Background()

	entity := testsupport.NewShortEntity(t, cfg.Paths.ContentDir, "en")
	if _, err := store.Upsert(ctx, entity.Dir(), "short_video", stage.Initialized, catalog.StatusPending, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	unlock, err := entity.Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer func() { _ = unlock() }()

	result, err := h.pipeline.Batch(ctx, store)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(result.Skipped) != 1 || len(result.Succeeded) != 0 {
		t.Fatalf("expected the locked entity skipped, got %+v", result)
	}
	if len(h.stub.requests) != 0 {
		t.Fatalf("locked entity must not run, got %d requests", len(h.stub.requests))
	}
}

func TestBatchStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	h := newHarness(t, cfg, nil)

	entity := testsupport.NewShortEntity(t, cfg.Paths.ContentDir, "en")
	if _, err := store.Upsert(context.Background(), entity.Dir(), "short_video", stage.Initialized, catalog.StatusPending, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.pipeline.Batch(ctx, store); err == nil {
		t.Fatal("expected an error from a cancelled batch")
	}
	if _, err := os.Stat(filepath.Join(entity.Dir(), "image.jpg")); !os.IsNotExist(err) {
		t.Fatalf("cancelled batch must not produce media, stat err %v", err)
	}
}

func TestHealthReportsProvidersAndBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	h := newHarness(t, cfg, nil)

	results := h.pipeline.Health(context.Background(), false)
	if !workflow.Ready(results) {
		t.Fatalf("expected ready, got %+v", results)
	}
	if len(results) != 6 {
		t.Fatalf("expected 2 binaries and 4 providers, got %d", len(results))
	}
}
