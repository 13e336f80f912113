package services

import "context"

type contextKey string

const (
	contentDirKey contextKey = "content_dir"
	stageKey      contextKey = "stage"
	languageKey   contextKey = "language"
	requestIDKey  contextKey = "request_id"
)

// WithContentDir annotates context with the content entity directory.
func WithContentDir(ctx context.Context, dir string) context.Context {
	if dir == "" {
		return ctx
	}
	return context.WithValue(ctx, contentDirKey, dir)
}

// ContentDirFromContext extracts the content entity directory if present.
func ContentDirFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(contentDirKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithLanguage annotates context with the language a fan-out branch serves.
func WithLanguage(ctx context.Context, code string) context.Context {
	if code == "" {
		return ctx
	}
	return context.WithValue(ctx, languageKey, code)
}

// LanguageFromContext returns the language code if present.
func LanguageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(languageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
