package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorDetails is the structured view of a failure used for log lines and the
// catalog's error column.
type ErrorDetails struct {
	Kind    string
	Message string
	Hint    string
}

// Details classifies err by its marker and derives a short operator hint.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: "unknown", Message: err.Error()}
	switch {
	case errors.Is(err, context.Canceled):
		details.Kind = "canceled"
		details.Hint = "run was interrupted; rerun to resume from the last checkpoint"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTimeout):
		details.Kind = "timeout"
		details.Hint = "increase workflow.run_timeout or rerun to resume"
	case errors.Is(err, ErrValidation):
		details.Kind = "validation"
		details.Hint = "fix the idea file or command arguments"
	case errors.Is(err, ErrConfiguration):
		details.Kind = "configuration"
		details.Hint = "check the config file and provider credentials"
	case errors.Is(err, ErrNotFound):
		details.Kind = "not_found"
		details.Hint = "verify the content directory path"
	case errors.Is(err, ErrExternalTool):
		details.Kind = "external"
		details.Hint = "inspect tool output in the log; rerun to retry the stage"
	case errors.Is(err, ErrTransient):
		details.Kind = "transient"
		details.Hint = "rerun to retry the stage"
	}
	return details
}

// Retryable reports whether rerunning the pipeline could succeed without
// operator changes.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return false
	default:
		return true
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
