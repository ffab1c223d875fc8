package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/idmigrate/errors"
)

// Operation tracks one traced unit of migration work.
type Operation struct {
	Name        string
	RunID       string
	IdentityKey string
	StartTime   time.Time

	span trace.Span
}

// StartOperation starts a span tagged with the run and identity key.
func StartOperation(ctx context.Context, name, runID, identityKey string) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, name)
	span.SetAttributes(attribute.String(AttrRunID, runID))
	if identityKey != "" {
		span.SetAttributes(attribute.String(AttrIdentityKey, identityKey))
	}
	return ctx, &Operation{
		Name:        name,
		RunID:       runID,
		IdentityKey: identityKey,
		StartTime:   time.Now(),
		span:        span,
	}
}

// End records the status and error, then ends the span.
func (op *Operation) End(status string, err error) {
	if err != nil {
		op.span.RecordError(err)
		if appErr, ok := apperrors.AsAppError(err); ok {
			op.span.SetAttributes(attribute.String(AttrErrorCode, string(appErr.Code)))
		}
	}
	op.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, op.Duration().Milliseconds()),
	)
	op.span.End()
}

// Duration returns the elapsed time since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
