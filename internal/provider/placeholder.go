package provider

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"unicode/utf8"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/media"
	"reelforge/internal/services"
)

const (
	placeholderColor       = "gray"
	placeholderClipSeconds = 5.0
	// speakingRate approximates narration speed in characters per second.
	speakingRate = 15.0
)

// placeholder produces stand-in media locally with ffmpeg so a pipeline can
// run end to end without credentials.
type placeholder struct {
	editor *media.Editor
	video  config.Video
	logger *slog.Logger
}

func newPlaceholder(_ config.AIService, deps Deps) (Provider, error) {
	if deps.Editor == nil {
		return nil, errors.New("placeholder provider needs a media editor")
	}
	return &placeholder{editor: deps.Editor, video: deps.Video, logger: deps.Logger}, nil
}

func (p *placeholder) Request(ctx context.Context, req Request) (string, error) {
	if err := requireOutput("placeholder", req); err != nil {
		return "", err
	}
	var err error
	switch req.Kind {
	case KindImage:
		err = p.editor.ColorImage(ctx, req.OutputPath, p.width(), p.height(), placeholderColor)
	case KindVideo:
		if req.InputPath == "" {
			return "", services.Wrap(services.ErrValidation, "", "placeholder video", "first frame is required", nil)
		}
		err = p.editor.StillToVideo(ctx, req.InputPath, req.OutputPath, req.FloatParam("duration", placeholderClipSeconds))
	case KindSpeech:
		err = p.editor.ToneAudio(ctx, req.OutputPath, speechSeconds(req.Prompt))
	default:
		return "", services.Wrap(services.ErrConfiguration, "", "placeholder", "cannot serve "+string(req.Kind)+" requests", nil)
	}
	if err != nil {
		return "", err
	}
	p.logger.Debug("placeholder media produced",
		logging.String("kind", string(req.Kind)),
		logging.String("path", req.OutputPath),
	)
	return req.OutputPath, nil
}

func (p *placeholder) width() int {
	if p.video.Width > 0 {
		return p.video.Width
	}
	return 1080
}

func (p *placeholder) height() int {
	if p.video.Height > 0 {
		return p.video.Height
	}
	return 1920
}

// speechSeconds estimates how long text takes to read aloud, at least one
// second.
func speechSeconds(text string) float64 {
	seconds := float64(utf8.RuneCountInString(text)) / speakingRate
	return math.Max(1, math.Round(seconds*10)/10)
}
