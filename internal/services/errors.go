package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration    = errors.New("configuration error")
	ErrExternalTool     = errors.New("external tool error")
	ErrArithmeticDomain = errors.New("arithmetic domain error")
	ErrMissingArtifact  = errors.New("missing artifact")
	ErrCleanupSkipped   = errors.New("resource cleanup skipped")
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrRunnerBusy       = errors.New("runner busy")
)

// markers lists the classification sentinels in priority order for Details.
var markers = []error{
	ErrConfiguration,
	ErrExternalTool,
	ErrArithmeticDomain,
	ErrMissingArtifact,
	ErrCleanupSkipped,
	ErrValidation,
	ErrNotFound,
	ErrRunnerBusy,
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorDetails is the reporting view of a classified error.
type ErrorDetails struct {
	Kind    string
	Message string
}

// Details extracts the marker name and a human readable message from err.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Message: strings.TrimSpace(err.Error())}
	for _, marker := range markers {
		if errors.Is(err, marker) {
			details.Kind = marker.Error()
			details.Message = strings.TrimSpace(strings.TrimPrefix(details.Message, marker.Error()+":"))
			break
		}
	}
	return details
}

// ExitCode maps a classified error onto the process exit status used by the CLI.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration):
		return 2
	case errors.Is(err, ErrExternalTool):
		return 3
	case errors.Is(err, ErrMissingArtifact):
		return 4
	case errors.Is(err, ErrArithmeticDomain):
		return 5
	default:
		return 1
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
