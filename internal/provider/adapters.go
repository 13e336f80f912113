package provider

import (
	"context"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/services/elevenlabs"
	"reelforge/internal/services/llm"
	"reelforge/internal/services/minimax"
	"reelforge/internal/services/runware"
)

type openRouter struct {
	client *llm.Client
}

func newOpenRouter(svc config.AIService, deps Deps) (Provider, error) {
	client := llm.NewClient(llm.Config{
		APIKey:            svc.APIKey,
		BaseURL:           svc.BaseURL,
		Model:             svc.Model,
		Referer:           "https://github.com/reelforge/reelforge",
		Title:             "reelforge",
		TimeoutSeconds:    svc.TimeoutSeconds,
		RequestsPerSecond: svc.RequestsPerSecond,
	}, deps.Transport...)
	return &openRouter{client: client}, nil
}

func (p *openRouter) Request(ctx context.Context, req Request) (string, error) {
	if err := requireKind("openrouter", req, KindText); err != nil {
		return "", err
	}
	return p.client.Complete(ctx, req.Prompt)
}

func (p *openRouter) Ping(ctx context.Context) error {
	return p.client.HealthCheck(ctx)
}

type runwareImage struct {
	client *runware.Client
}

func newRunware(svc config.AIService, deps Deps) (Provider, error) {
	return &runwareImage{client: runware.NewClient(runware.Config{
		APIKey:            svc.APIKey,
		BaseURL:           svc.BaseURL,
		Model:             svc.Model,
		Width:             svc.Width,
		Height:            svc.Height,
		TimeoutSeconds:    svc.TimeoutSeconds,
		RequestsPerSecond: svc.RequestsPerSecond,
	}, deps.Transport...)}, nil
}

func (p *runwareImage) Request(ctx context.Context, req Request) (string, error) {
	if err := requireKind("runware", req, KindImage); err != nil {
		return "", err
	}
	if err := requireOutput("runware", req); err != nil {
		return "", err
	}
	if err := p.client.Generate(ctx, req.Prompt, req.OutputPath); err != nil {
		return "", err
	}
	return req.OutputPath, nil
}

type minimaxVideo struct {
	client *minimax.Client
}

func newMinimax(svc config.AIService, deps Deps) (Provider, error) {
	return &minimaxVideo{client: minimax.NewClient(minimax.Config{
		APIKey:            svc.APIKey,
		BaseURL:           svc.BaseURL,
		Model:             svc.Model,
		PollInterval:      time.Duration(svc.PollIntervalSeconds) * time.Second,
		MaxPoll:           time.Duration(svc.MaxPollMinutes) * time.Minute,
		TimeoutSeconds:    svc.TimeoutSeconds,
		RequestsPerSecond: svc.RequestsPerSecond,
	},
		minimax.WithLogger(deps.Logger),
		minimax.WithTransport(deps.Transport...),
	)}, nil
}

func (p *minimaxVideo) Request(ctx context.Context, req Request) (string, error) {
	if err := requireKind("minimax", req, KindVideo); err != nil {
		return "", err
	}
	if err := requireOutput("minimax", req); err != nil {
		return "", err
	}
	if err := p.client.Generate(ctx, req.Prompt, req.InputPath, req.OutputPath); err != nil {
		return "", err
	}
	return req.OutputPath, nil
}

type elevenLabsSpeech struct {
	client *elevenlabs.Client
}

func newElevenLabs(svc config.AIService, deps Deps) (Provider, error) {
	return &elevenLabsSpeech{client: elevenlabs.NewClient(elevenlabs.Config{
		APIKey:       svc.APIKey,
		BaseURL:      svc.BaseURL,
		Model:        svc.Model,
		VoiceID:      svc.VoiceID,
		OutputFormat: svc.OutputFormat,
		Voice: elevenlabs.VoiceSettings{
			Stability:       svc.Stability,
			SimilarityBoost: svc.SimilarityBoost,
			Style:           svc.Style,
			SpeakerBoost:    svc.SpeakerBoost,
		},
		TimeoutSeconds:    svc.TimeoutSeconds,
		RequestsPerSecond: svc.RequestsPerSecond,
	}, deps.Transport...)}, nil
}

func (p *elevenLabsSpeech) Request(ctx context.Context, req Request) (string, error) {
	if err := requireKind("elevenlabs", req, KindSpeech); err != nil {
		return "", err
	}
	if err := requireOutput("elevenlabs", req); err != nil {
		return "", err
	}
	if err := p.client.Synthesize(ctx, req.Prompt, req.OutputPath); err != nil {
		return "", err
	}
	return req.OutputPath, nil
}
