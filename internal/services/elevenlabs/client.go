package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelforge/internal/fileutil"
	"reelforge/internal/services"
	"reelforge/internal/services/apiclient"
)

const (
	defaultBaseURL      = "https://api.elevenlabs.io/v1"
	defaultModel        = "eleven_multilingual_v2"
	defaultOutputFormat = "mp3_22050_32"
)

// VoiceSettings mirrors the ElevenLabs voice_settings object.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	SpeakerBoost    bool    `json:"use_speaker_boost"`
}

// Config captures the ElevenLabs credentials and voice.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	VoiceID           string
	OutputFormat      string
	Voice             VoiceSettings
	TimeoutSeconds    int
	RequestsPerSecond float64
}

// Client synthesizes speech with the ElevenLabs text-to-speech endpoint.
type Client struct {
	cfg  Config
	http *apiclient.Client
}

// NewClient constructs an ElevenLabs client. Transport options pass through
// to apiclient.
func NewClient(cfg Config, opts ...apiclient.Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.VoiceID = strings.TrimSpace(cfg.VoiceID)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = defaultOutputFormat
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	opts = append([]apiclient.Option{apiclient.WithRateLimit(cfg.RequestsPerSecond)}, opts...)
	return &Client{cfg: cfg, http: apiclient.New("elevenlabs", timeout, opts...)}
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize renders text as audio at dest.
func (c *Client) Synthesize(ctx context.Context, text, dest string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrValidation, "", "elevenlabs speech", "empty text", nil)
	}
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "", "elevenlabs speech", "api key not configured", nil)
	}
	if c.cfg.VoiceID == "" {
		return services.Wrap(services.ErrConfiguration, "", "elevenlabs speech", "voice_id not configured", nil)
	}

	body, err := json.Marshal(speechRequest{Text: text, ModelID: c.cfg.Model, VoiceSettings: c.cfg.Voice})
	if err != nil {
		return services.Wrap(services.ErrValidation, "", "elevenlabs speech", "encode body", err)
	}
	endpoint := c.cfg.BaseURL + "/text-to-speech/" + url.PathEscape(c.cfg.VoiceID) +
		"?output_format=" + url.QueryEscape(c.cfg.OutputFormat)
	header := http.Header{}
	header.Set("xi-api-key", c.cfg.APIKey)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "audio/mpeg")

	resp, err := c.http.Do(ctx, apiclient.Request{Method: http.MethodPost, URL: endpoint, Header: header, Body: body})
	if err != nil {
		return services.Wrap(apiclient.Marker(err), "", "elevenlabs speech", c.cfg.VoiceID, err)
	}
	if len(resp.Body) == 0 {
		return services.Wrap(services.ErrExternalTool, "", "elevenlabs speech", "empty audio", nil)
	}
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "application/json") {
		return services.Wrap(services.ErrExternalTool, "", "elevenlabs speech", "unexpected json reply: "+strings.TrimSpace(string(resp.Body)), nil)
	}
	if err := fileutil.WriteFileAtomic(dest, resp.Body, 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "", "elevenlabs speech", "save audio", err)
	}
	return nil
}
