package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransient         = errors.New("transient failure")
	ErrNotFound          = errors.New("not found")
	ErrStagePrecondition = errors.New("stage precondition not met")
	ErrNoContentFound    = errors.New("no content found")
	ErrEmptyInput        = errors.New("empty input")
	ErrConflict          = errors.New("conflict")
	ErrProvider          = errors.New("provider error")
	ErrInvalidTopic      = errors.New("invalid topic")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
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

// Kind returns a short classification for err, suitable for logs and API
// responses. Unclassified errors report "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTopic):
		return "invalid_topic"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStagePrecondition):
		return "stage_precondition"
	case errors.Is(err, ErrNoContentFound):
		return "no_content_found"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrProvider):
		return "provider"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "internal"
	}
}

// Retryable reports whether err is worth another attempt at the transport layer.
func Retryable(err error) bool {
	return err != nil && errors.Is(err, ErrTransient)
}

// IsUserError reports whether err describes bad input or an expected empty
// state rather than a system failure.
func IsUserError(err error) bool {
	switch Kind(err) {
	case "invalid_topic", "stage_precondition", "no_content_found", "empty_input", "validation":
		return true
	default:
		return false
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
