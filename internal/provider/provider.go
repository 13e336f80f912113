package provider

import (
	"context"
	"strconv"

	"reelforge/internal/services"
)

// Kind names the media a provider produces.
type Kind string

const (
	KindText   Kind = "text"
	KindImage  Kind = "image"
	KindVideo  Kind = "video"
	KindSpeech Kind = "speech"
)

// Kinds returns every kind in display order.
func Kinds() []Kind {
	return []Kind{KindText, KindImage, KindVideo, KindSpeech}
}

// MediaKinds are the kinds a pipeline run requests. Text only feeds idea
// generation.
func MediaKinds() []Kind {
	return []Kind{KindImage, KindVideo, KindSpeech}
}

// Request describes one generation call.
//
// OutputPath is where media kinds write their artifact. InputPath carries a
// source file (the first frame for video). Params holds optional per-call
// hints such as "duration".
type Request struct {
	Kind       Kind
	Prompt     string
	OutputPath string
	InputPath  string
	Params     map[string]string
}

// Param returns the named hint, or "" when absent.
func (r Request) Param(key string) string {
	if r.Params == nil {
		return ""
	}
	return r.Params[key]
}

// FloatParam parses the named hint, returning fallback when absent or invalid.
func (r Request) FloatParam(key string, fallback float64) float64 {
	raw := r.Param(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// Provider fulfils requests of one kind. It returns the produced artifact
// path, or the generated text for KindText.
type Provider interface {
	Request(ctx context.Context, req Request) (string, error)
}

// Pinger is implemented by providers that can verify credentials with a live
// round trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

func requireOutput(op string, req Request) error {
	if req.OutputPath == "" {
		return services.Wrap(services.ErrValidation, "", op, "output path is required", nil)
	}
	return nil
}

func requireKind(op string, req Request, want Kind) error {
	if req.Kind != "" && req.Kind != want {
		return services.Wrap(services.ErrValidation, "", op, "unsupported request kind "+string(req.Kind), nil)
	}
	return nil
}
