package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCompositionID is the standardized structured logging key for composition identifiers.
	FieldCompositionID = "composition_id"
	// FieldJobID is the standardized structured logging key for render job identifiers.
	FieldJobID = "job_id"
	// FieldMethod is the standardized structured logging key for JSON-RPC method names.
	FieldMethod = "method"
	// FieldStatus is the standardized structured logging key for render job status values.
	FieldStatus = "status"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags log lines with a machine-readable event category.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator-facing next step for a failure.
	FieldErrorHint = "error_hint"
)

type contextKey string

const (
	compositionIDContextKey contextKey = "cutroom.composition_id"
	jobIDContextKey         contextKey = "cutroom.job_id"
	requestIDContextKey     contextKey = "cutroom.request_id"
)

// WithCompositionID annotates ctx with the composition being edited or rendered.
func WithCompositionID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, compositionIDContextKey, id)
}

// CompositionIDFromContext extracts the composition identifier, if present.
func CompositionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(compositionIDContextKey).(string)
	return id, ok && id != ""
}

// WithJobID annotates ctx with the render job being tracked.
func WithJobID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDContextKey, id)
}

// JobIDFromContext extracts the render job identifier, if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(jobIDContextKey).(string)
	return id, ok && id != ""
}

// WithRequestID annotates ctx with a correlation identifier for downstream calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext extracts the correlation identifier, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := CompositionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCompositionID, id))
	}
	if id, ok := JobIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobID, id))
	}
	if rid, ok := RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
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
	return logger.With(attrsToArgs(fields)...)
}
