package catalog_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"reelforge/internal/catalog"
	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/stage"
	"reelforge/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	entry, err := store.Upsert(ctx, "/content/short_video/a", "short_video", stage.Initialized, catalog.StatusPending, []string{"en", "pt"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if entry.ID == 0 || entry.Status != catalog.StatusPending || len(entry.Languages) != 2 {
		t.Fatalf("unexpected entry %#v", entry)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	fetched, err := reopened.GetByDir(ctx, "/content/short_video/a")
	if err != nil || fetched == nil {
		t.Fatalf("GetByDir = %#v, %v", fetched, err)
	}
}

func TestRunLifecycle(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	dir := "/content/short_video/b"

	if _, err := store.Upsert(ctx, dir, "short_video", stage.Initialized, catalog.StatusPending, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.MarkRunning(ctx, dir); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	// A rescan while running must not clobber the running status.
	if _, err := store.Upsert(ctx, dir, "short_video", stage.ImageCreated, catalog.StatusPending, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.RecordStage(ctx, dir, stage.VideoCreated); err != nil {
		t.Fatalf("RecordStage: %v", err)
	}
	if err := store.MarkFailed(ctx, dir, stage.VideoCreated, "speech failed", "external"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	entry, err := store.GetByDir(ctx, dir)
	if err != nil {
		t.Fatalf("GetByDir: %v", err)
	}
	if entry.Status != catalog.StatusFailed || entry.Stage != stage.VideoCreated || entry.Attempts != 1 {
		t.Fatalf("unexpected entry %#v", entry)
	}
	if entry.ErrorMessage != "speech failed" || entry.ErrorKind != "external" || !entry.Runnable() {
		t.Fatalf("unexpected error fields %#v", entry)
	}

	if err := store.MarkRunning(ctx, dir); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if err := store.MarkCompleted(ctx, dir, stage.SubtitlesAdded); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	entry, _ = store.GetByDir(ctx, dir)
	if entry.Status != catalog.StatusCompleted || entry.ErrorMessage != "" || entry.Attempts != 2 {
		t.Fatalf("unexpected completed entry %#v", entry)
	}
}

func TestUpdateUnknownEntry(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	err := store.MarkRunning(context.Background(), "/nope")
	if !catalog.IsNotFound(err) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListFiltersAndStats(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	for _, dir := range []string{"/c/1", "/c/2", "/c/3"} {
		if _, err := store.Upsert(ctx, dir, "short_video", stage.Initialized, catalog.StatusPending, nil); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	if err := store.MarkCompleted(ctx, "/c/2", stage.SubtitlesAdded); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	pending, err := store.List(ctx, catalog.StatusPending, catalog.StatusFailed)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 2 || pending[0].Dir != "/c/1" || pending[1].Dir != "/c/3" {
		t.Fatalf("unexpected pending list %#v", pending)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 3 || health.Pending != 2 || health.Completed != 1 {
		t.Fatalf("unexpected health %#v", health)
	}

	db, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !db.DatabaseExists || !db.DatabaseReadable || !db.IntegrityCheck || db.TotalEntries != 3 {
		t.Fatalf("unexpected db health %#v", db)
	}
}

func TestResetInterrupted(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if _, err := store.Upsert(ctx, "/c/run", "short_video", stage.ImageCreated, catalog.StatusPending, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.MarkRunning(ctx, "/c/run"); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	n, err := store.ResetInterrupted(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetInterrupted = %d, %v", n, err)
	}
	entry, _ := store.GetByDir(ctx, "/c/run")
	if entry.Status != catalog.StatusFailed || entry.ErrorMessage != catalog.InterruptedReason {
		t.Fatalf("unexpected entry %#v", entry)
	}
}

func TestRescanMirrorsDisk(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	first := testsupport.NewShortEntity(t, cfg.Paths.ContentDir, "en")
	second := testsupport.NewShortEntity(t, cfg.Paths.ContentDir, "en", "pt")
	if err := second.Advance(ctx, stage.ImageCreated); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, err := store.Upsert(ctx, "/gone/entity", "short_video", stage.Initialized, catalog.StatusPending, nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	result, err := store.Rescan(ctx, cfg.Paths.ContentDir, logging.NewNop())
	if err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	if result.Found != 2 || result.Removed != 1 || result.Skipped != 0 {
		t.Fatalf("unexpected result %#v", result)
	}
	entry, _ := store.GetByDir(ctx, second.Dir())
	if entry == nil || entry.Stage != stage.ImageCreated || len(entry.Languages) != 2 {
		t.Fatalf("unexpected entry %#v", entry)
	}
	if entry, _ := store.GetByDir(ctx, first.Dir()); entry == nil {
		t.Fatal("first entity missing")
	}
}

func TestRescanMissingRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	if err := os.RemoveAll(cfg.Paths.ContentDir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	result, err := store.Rescan(context.Background(), cfg.Paths.ContentDir, nil)
	if err != nil || result.Found != 0 {
		t.Fatalf("Rescan = %#v, %v", result, err)
	}
}

func TestObserverMirrorsRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()
	entity := testsupport.NewShortEntity(t, cfg.Paths.ContentDir, "en")
	observer := catalog.NewObserver(store, logging.NewNop())

	observer.RunStarted(ctx, entity)
	entry, _ := store.GetByDir(ctx, entity.Dir())
	if entry == nil || entry.Status != catalog.StatusRunning {
		t.Fatalf("expected running entry, got %#v", entry)
	}

	if err := entity.Advance(ctx, stage.ImageCreated); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	observer.StageCommitted(ctx, entity, stage.ImageCreated)
	observer.RunFinished(ctx, entity, services.Wrap(services.ErrExternalTool, "", "op", "boom", nil))

	entry, _ = store.GetByDir(ctx, entity.Dir())
	if entry.Status != catalog.StatusFailed || entry.Stage != stage.ImageCreated || entry.ErrorKind != "external" {
		t.Fatalf("unexpected entry %#v", entry)
	}
}
