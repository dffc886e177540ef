package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")

	// Recoverable accelerated-path failures. When the accelerated engine
	// reports one of these, the strategy selector falls back to the baseline
	// engine instead of failing the stage.
	ErrMissingDependency = errors.New("missing dependency")
	ErrNoAccelerator     = errors.New("no accelerator present")
	ErrResourceExhausted = errors.New("resource exhausted")
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

// RecoverableAccelerated reports whether an accelerated-path failure permits
// silent fallback to the baseline engine. The set is deliberately narrow:
// anything outside it is a real stage failure, not a capacity problem.
func RecoverableAccelerated(err error) bool {
	return errors.Is(err, ErrMissingDependency) ||
		errors.Is(err, ErrNoAccelerator) ||
		errors.Is(err, ErrResourceExhausted)
}

// ErrorDetails carries the user-facing portion of a stage error.
type ErrorDetails struct {
	Message string
}

// Details extracts a human-readable message from a stage error, stripping the
// sentinel prefix when present.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	msg := err.Error()
	for _, marker := range []error{
		ErrExternalTool, ErrValidation, ErrConfiguration, ErrTimeout, ErrTransient,
		ErrMissingDependency, ErrNoAccelerator, ErrResourceExhausted,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			msg = strings.TrimPrefix(msg, prefix)
			break
		}
	}
	return ErrorDetails{Message: strings.TrimSpace(msg)}
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
