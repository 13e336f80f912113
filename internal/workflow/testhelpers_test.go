package workflow_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/content"
	"reelforge/internal/logging"
	"reelforge/internal/media"
	"reelforge/internal/media/ffprobe"
	"reelforge/internal/provider"
	"reelforge/internal/stage"
	"reelforge/internal/workflow"
)

// stubProvider records requests and writes a small file to OutputPath.
type stubProvider struct {
	mu       sync.Mutex
	requests []provider.Request
	hook     func(ctx context.Context, req provider.Request) error
}

func (s *stubProvider) Request(ctx context.Context, req provider.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	hook := s.hook
	s.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, req); err != nil {
			return "", err
		}
	}
	if req.Kind == provider.KindText {
		return "[]", nil
	}
	if err := os.WriteFile(req.OutputPath, []byte(string(req.Kind)), 0o644); err != nil {
		return "", err
	}
	return req.OutputPath, nil
}

func (s *stubProvider) count(kind provider.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.requests {
		if req.Kind == kind {
			n++
		}
	}
	return n
}

func (s *stubProvider) byKind(kind provider.Kind) []provider.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []provider.Request
	for _, req := range s.requests {
		if req.Kind == kind {
			out = append(out, req)
		}
	}
	return out
}

func (s *stubProvider) reset() {
	s.mu.Lock()
	s.requests = nil
	s.hook = nil
	s.mu.Unlock()
}

// ffmpegRecorder stands in for ffmpeg: it records the arguments and writes
// the output file (always the last argument).
type ffmpegRecorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *ffmpegRecorder) run(ctx context.Context, _ string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), args...))
	r.mu.Unlock()
	return nil, os.WriteFile(args[len(args)-1], []byte("media"), 0o644)
}

func (r *ffmpegRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *ffmpegRecorder) joined() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	parts := make([]string, 0, len(r.calls))
	for _, call := range r.calls {
		parts = append(parts, strings.Join(call, " "))
	}
	return strings.Join(parts, "\n")
}

// durationStub answers every duration lookup with 5 seconds unless the path ends in
// one of the overrides.
func durationStub(overrides map[string]string) *ffprobe.Prober {
	return ffprobe.New("ffprobe", func(_ context.Context, _ string, args ...string) ([]byte, error) {
		path := args[len(args)-1]
		seconds := "5"
		for suffix, value := range overrides {
			if strings.HasSuffix(path, suffix) {
				seconds = value
			}
		}
		return []byte(`{"streams":[{"codec_type":"video"},{"codec_type":"audio"}],"format":{"duration":"` + seconds + `"}}`), nil
	})
}

type recordingObserver struct {
	mu        sync.Mutex
	started   int
	committed []stage.Name
	finished  []error
}

func (o *recordingObserver) RunStarted(context.Context, *content.Entity) {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
}

func (o *recordingObserver) StageCommitted(_ context.Context, _ *content.Entity, name stage.Name) {
	o.mu.Lock()
	o.committed = append(o.committed, name)
	o.mu.Unlock()
}

func (o *recordingObserver) RunFinished(_ context.Context, _ *content.Entity, err error) {
	o.mu.Lock()
	o.finished = append(o.finished, err)
	o.mu.Unlock()
}

type stubNotifier struct {
	mu        sync.Mutex
	completed []string
	errors    []string
	batches   [][2]int
}

func (n *stubNotifier) NotifyRunCompleted(_ context.Context, contentID string, _ map[string]string, _ time.Duration) error {
	n.mu.Lock()
	n.completed = append(n.completed, contentID)
	n.mu.Unlock()
	return nil
}

func (n *stubNotifier) NotifyBatchCompleted(_ context.Context, succeeded, failed int, _ time.Duration) error {
	n.mu.Lock()
	n.batches = append(n.batches, [2]int{succeeded, failed})
	n.mu.Unlock()
	return nil
}

func (n *stubNotifier) NotifyIdeasCreated(context.Context, int) error { return nil }

func (n *stubNotifier) NotifyError(_ context.Context, err error, label string) error {
	n.mu.Lock()
	n.errors = append(n.errors, label+": "+err.Error())
	n.mu.Unlock()
	return nil
}

func (n *stubNotifier) TestNotification(context.Context) error { return nil }

type harness struct {
	cfg      *config.Config
	stub     *stubProvider
	ffmpeg   *ffmpegRecorder
	observer *recordingObserver
	notifier *stubNotifier
	pipeline *workflow.Pipeline
}

func newHarness(t *testing.T, cfg *config.Config, overrides map[string]string, opts ...workflow.Option) *harness {
	t.Helper()
	h := &harness{
		cfg:      cfg,
		stub:     &stubProvider{},
		ffmpeg:   &ffmpegRecorder{},
		observer: &recordingObserver{},
		notifier: &stubNotifier{},
	}
	editor := media.NewEditor("ffmpeg", "ffprobe", logging.NewNop(),
		media.WithRunner(h.ffmpeg.run),
		media.WithProber(durationStub(overrides)),
		media.WithRandom(func() float64 { return 0 }),
	)
	set := provider.NewSet(map[provider.Kind]provider.Provider{
		provider.KindText:   h.stub,
		provider.KindImage:  h.stub,
		provider.KindVideo:  h.stub,
		provider.KindSpeech: h.stub,
	})
	opts = append([]workflow.Option{workflow.WithObserver(h.observer), workflow.WithNotifier(h.notifier)}, opts...)
	pipeline, err := workflow.New(cfg, set, editor, opts...)
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}
	h.pipeline = pipeline
	return h
}

func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stat %s: %v", path, err)
	}
	return false
}
