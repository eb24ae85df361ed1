package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "sentinel"

// StartScreeningSpan starts a span covering one screen-and-maybe-execute
// operation.
func StartScreeningSpan(ctx context.Context, proposalID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "screening",
		trace.WithAttributes(
			attribute.String("proposal.id", proposalID),
		),
	)
}

// StartExecutionSpan starts a span covering one on-chain execution attempt.
func StartExecutionSpan(ctx context.Context, proposalID, attemptID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "execution",
		trace.WithAttributes(
			attribute.String("proposal.id", proposalID),
			attribute.String("execution.attempt_id", attemptID),
		),
	)
}
