package runware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/services"
	"reelforge/internal/services/apiclient"
)

const (
	defaultBaseURL = "https://api.runware.ai/v1"
	defaultModel   = "runware:100@1"
	defaultWidth   = 768
	defaultHeight  = 1344
)

// Config captures the Runware credentials and image geometry.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Width             int
	Height            int
	TimeoutSeconds    int
	RequestsPerSecond float64
}

// Client generates still images through the Runware task API.
type Client struct {
	cfg  Config
	http *apiclient.Client
	ids  func() string
}

// NewClient constructs a Runware client. Transport options pass through to
// apiclient.
func NewClient(cfg Config, opts ...apiclient.Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	opts = append([]apiclient.Option{apiclient.WithRateLimit(cfg.RequestsPerSecond)}, opts...)
	return &Client{
		cfg:  cfg,
		http: apiclient.New("runware", timeout, opts...),
		ids:  func() string { return uuid.NewString() },
	}
}

type imageTask struct {
	TaskType       string `json:"taskType"`
	TaskUUID       string `json:"taskUUID"`
	PositivePrompt string `json:"positivePrompt"`
	Model          string `json:"model"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	NumberResults  int    `json:"numberResults"`
	OutputType     string `json:"outputType"`
	OutputFormat   string `json:"outputFormat"`
}

type taskResponse struct {
	Data []struct {
		TaskUUID string `json:"taskUUID"`
		ImageURL string `json:"imageURL"`
	} `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Generate renders prompt into a JPEG at dest.
func (c *Client) Generate(ctx context.Context, prompt, dest string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return services.Wrap(services.ErrValidation, "", "runware image", "empty prompt", nil)
	}
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "", "runware image", "api key not configured", nil)
	}

	task := imageTask{
		TaskType:       "imageInference",
		TaskUUID:       c.ids(),
		PositivePrompt: prompt,
		Model:          c.cfg.Model,
		Width:          c.cfg.Width,
		Height:         c.cfg.Height,
		NumberResults:  1,
		OutputType:     "URL",
		OutputFormat:   "JPG",
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	var resp taskResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, c.cfg.BaseURL, header, []imageTask{task}, &resp); err != nil {
		return services.Wrap(apiclient.Marker(err), "", "runware image", c.cfg.Model, err)
	}
	if len(resp.Errors) > 0 {
		msg := fmt.Sprintf("%s: %s", resp.Errors[0].Code, resp.Errors[0].Message)
		return services.Wrap(services.ErrExternalTool, "", "runware image", msg, nil)
	}
	imageURL := ""
	for _, item := range resp.Data {
		if item.TaskUUID != "" && item.TaskUUID != task.TaskUUID {
			continue
		}
		if url := strings.TrimSpace(item.ImageURL); url != "" {
			imageURL = url
			break
		}
	}
	if imageURL == "" {
		return services.Wrap(services.ErrExternalTool, "", "runware image", "response carried no image url", nil)
	}
	if err := c.http.Download(ctx, imageURL, dest); err != nil {
		return services.Wrap(apiclient.Marker(err), "", "runware download", dest, err)
	}
	return nil
}
