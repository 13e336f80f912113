package minimax

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/services/apiclient"
)

const (
	defaultBaseURL      = "https://api.minimaxi.chat/v1"
	defaultModel        = "I2V-01"
	defaultPollInterval = 30 * time.Second
	defaultMaxPoll      = 20 * time.Minute
)

// Config captures the Minimax credentials and polling cadence.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	PollInterval      time.Duration
	MaxPoll           time.Duration
	TimeoutSeconds    int
	RequestsPerSecond float64
}

// Client turns a first frame and a prompt into a clip using Minimax's
// asynchronous video generation API.
type Client struct {
	cfg    Config
	http   *apiclient.Client
	logger *slog.Logger
	wait   func(ctx context.Context, d time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithLogger attaches a logger for task progress.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithWait replaces the poll delay (tests).
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if wait != nil {
			c.wait = wait
		}
	}
}

// WithTransport passes options to the underlying HTTP helper.
func WithTransport(opts ...apiclient.Option) Option {
	return func(c *Client) {
		c.http = apiclient.New("minimax", time.Duration(c.cfg.TimeoutSeconds)*time.Second,
			append([]apiclient.Option{apiclient.WithRateLimit(c.cfg.RequestsPerSecond)}, opts...)...)
	}
}

// NewClient constructs a Minimax client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxPoll <= 0 {
		cfg.MaxPoll = defaultMaxPoll
	}
	c := &Client{
		cfg:    cfg,
		http:   apiclient.New("minimax", time.Duration(cfg.TimeoutSeconds)*time.Second, apiclient.WithRateLimit(cfg.RequestsPerSecond)),
		logger: logging.NewNop(),
		wait:   sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitRequest struct {
	Model           string `json:"model"`
	Prompt          string `json:"prompt"`
	FirstFrameImage string `json:"first_frame_image"`
}

type baseResponse struct {
	StatusCode int    `json:"status_code"`
	StatusMsg  string `json:"status_msg"`
}

type submitResponse struct {
	TaskID   string       `json:"task_id"`
	BaseResp baseResponse `json:"base_resp"`
}

type queryResponse struct {
	TaskID   string       `json:"task_id"`
	Status   string       `json:"status"`
	FileID   string       `json:"file_id"`
	BaseResp baseResponse `json:"base_resp"`
}

type retrieveResponse struct {
	File struct {
		FileID      string `json:"file_id"`
		DownloadURL string `json:"download_url"`
	} `json:"file"`
	BaseResp baseResponse `json:"base_resp"`
}

// Generate animates the JPEG at image according to prompt and saves the clip
// to dest.
func (c *Client) Generate(ctx context.Context, prompt, image, dest string) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "", "minimax video", "api key not configured", nil)
	}
	frame, err := os.ReadFile(image)
	if err != nil {
		return services.Wrap(services.ErrValidation, "", "minimax video", "read first frame", err)
	}

	taskID, err := c.submit(ctx, strings.TrimSpace(prompt), frame)
	if err != nil {
		return err
	}
	c.logger.Info("minimax task submitted",
		logging.String(logging.FieldEventType, "video_task_submitted"),
		logging.String("task_id", taskID),
	)

	fileID, err := c.poll(ctx, taskID)
	if err != nil {
		return err
	}

	var retrieved retrieveResponse
	endpoint := c.cfg.BaseURL + "/files/retrieve?file_id=" + url.QueryEscape(fileID)
	if err := c.http.DoJSON(ctx, http.MethodGet, endpoint, c.header(), nil, &retrieved); err != nil {
		return services.Wrap(apiclient.Marker(err), "", "minimax retrieve", fileID, err)
	}
	downloadURL := strings.TrimSpace(retrieved.File.DownloadURL)
	if downloadURL == "" {
		return services.Wrap(services.ErrExternalTool, "", "minimax retrieve", "no download url for "+fileID, nil)
	}
	if err := c.http.Download(ctx, downloadURL, dest); err != nil {
		return services.Wrap(apiclient.Marker(err), "", "minimax download", dest, err)
	}
	c.logger.Info("minimax video downloaded",
		logging.String(logging.FieldEventType, "video_task_downloaded"),
		logging.String("task_id", taskID),
		logging.String("path", dest),
	)
	return nil
}

func (c *Client) submit(ctx context.Context, prompt string, frame []byte) (string, error) {
	payload := submitRequest{
		Model:           c.cfg.Model,
		Prompt:          prompt,
		FirstFrameImage: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(frame),
	}
	var resp submitResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, c.cfg.BaseURL+"/video_generation", c.header(), payload, &resp); err != nil {
		return "", services.Wrap(apiclient.Marker(err), "", "minimax submit", c.cfg.Model, err)
	}
	if resp.TaskID == "" {
		msg := "no task id returned"
		if resp.BaseResp.StatusMsg != "" {
			msg = fmt.Sprintf("%s (%d %s)", msg, resp.BaseResp.StatusCode, resp.BaseResp.StatusMsg)
		}
		return "", services.Wrap(services.ErrExternalTool, "", "minimax submit", msg, nil)
	}
	return resp.TaskID, nil
}

// poll waits for the task to produce a file id. "Fail" and "Unknown" are
// terminal.
func (c *Client) poll(ctx context.Context, taskID string) (string, error) {
	endpoint := c.cfg.BaseURL + "/query/video_generation?task_id=" + url.QueryEscape(taskID)
	polls := int(c.cfg.MaxPoll / c.cfg.PollInterval)
	if polls < 1 {
		polls = 1
	}
	for i := 0; i < polls; i++ {
		if err := c.wait(ctx, c.cfg.PollInterval); err != nil {
			return "", err
		}
		var status queryResponse
		if err := c.http.DoJSON(ctx, http.MethodGet, endpoint, c.header(), nil, &status); err != nil {
			return "", services.Wrap(apiclient.Marker(err), "", "minimax query", taskID, err)
		}
		if status.FileID != "" {
			return status.FileID, nil
		}
		switch status.Status {
		case "Fail", "Unknown", "":
			return "", services.Wrap(services.ErrExternalTool, "", "minimax query",
				fmt.Sprintf("task %s ended with status %q", taskID, status.Status), nil)
		}
		c.logger.Debug("minimax task pending",
			logging.String("task_id", taskID),
			logging.String("status", status.Status),
		)
	}
	return "", services.Wrap(services.ErrTimeout, "", "minimax query",
		fmt.Sprintf("task %s still pending after %s", taskID, c.cfg.MaxPoll), nil)
}

func (c *Client) header() http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	return header
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
