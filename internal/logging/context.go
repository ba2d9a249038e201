package logging

import (
	"context"
	"log/slog"

	"pfbverify/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldCase is the standardized structured logging key for verification case labels.
	FieldCase = "case"
	// FieldRunID is the standardized structured logging key for verification run identifiers.
	FieldRunID = "run_id"
	// FieldEventType classifies a log line (command_start, command_failure, ...).
	FieldEventType = "event_type"
	// FieldCommand carries the full command line of an external tool invocation.
	FieldCommand = "command"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if label, ok := services.CaseFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCase, label))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
