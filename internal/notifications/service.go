package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"reelforge/internal/config"
)

const userAgent = "reelforge/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyRunCompleted(ctx context.Context, contentID string, finals map[string]string, duration time.Duration) error
	NotifyBatchCompleted(ctx context.Context, succeeded, failed int, duration time.Duration) error
	NotifyIdeasCreated(ctx context.Context, count int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		runComplete: cfg.Notifications.RunComplete,
		errors:      cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	runComplete bool
	errors      bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, contentID string, finals map[string]string, duration time.Duration) error {
	if !n.runComplete {
		return nil
	}
	codes := make([]string, 0, len(finals))
	for code := range finals {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	message := fmt.Sprintf("Videos ready: %s (%s) in %s", strings.TrimSpace(contentID), strings.Join(codes, ", "), roundDuration(duration))
	data := payload{
		title:    "reelforge - Complete",
		message:  message,
		tags:     []string{"reelforge", "run", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, succeeded, failed int, duration time.Duration) error {
	if !n.runComplete {
		return nil
	}
	durationText := roundDuration(duration)
	var message string
	var title string
	if failed == 0 {
		title = "reelforge - Batch Complete"
		message = fmt.Sprintf("Batch complete: %d entities processed in %s", succeeded, durationText)
	} else {
		title = "reelforge - Batch Complete (with errors)"
		message = fmt.Sprintf("Batch complete: %d succeeded, %d failed in %s", succeeded, failed, durationText)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"reelforge", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIdeasCreated(ctx context.Context, count int) error {
	if !n.runComplete {
		return nil
	}
	data := payload{
		title:   "reelforge - Ideas",
		message: fmt.Sprintf("Created %d new content entities from generated ideas", count),
		tags:    []string{"reelforge", "ideas"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "reelforge - Error",
		message:  builder.String(),
		tags:     []string{"reelforge", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "reelforge - Test",
		message:  "Notification system test",
		tags:     []string{"reelforge", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func roundDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, string, map[string]string, time.Duration) error {
	return nil
}
func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyIdeasCreated(context.Context, int) error                      { return nil }
func (noopService) NotifyError(context.Context, error, string) error                   { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
