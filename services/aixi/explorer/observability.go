// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package explorer

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/AleutianAI/marvin/services/aixi/types"
)

const plannerTracerName = "marvin.explorer"

// plannerTracer wraps OpenTelemetry tracing for planning decisions.
//
// Thread Safety: Safe for concurrent use.
type plannerTracer struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	enabled bool
}

func newPlannerTracer(logger *slog.Logger, enabled bool) *plannerTracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &plannerTracer{
		tracer:  otel.Tracer(plannerTracerName),
		logger:  logger,
		enabled: enabled,
	}
}

// startExplore starts a span covering one Explore call.
//
// Outputs:
//   - context.Context: Context with span.
//   - trace.Span: The created span, a no-op span when tracing is disabled.
func (t *plannerTracer) startExplore(ctx context.Context, info types.EnvironmentInfo, config PlannerConfig) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}

	ctx, span := t.tracer.Start(ctx, "explorer.explore",
		trace.WithAttributes(
			attribute.Int("explorer.num_actions", int(info.NumActions())),
			attribute.Int("explorer.horizon", config.Horizon),
			attribute.Int("explorer.budget.rollouts", config.Rollouts),
			attribute.String("explorer.budget.time_limit", config.TimeLimit.String()),
			attribute.Float64("explorer.exploration_constant", config.ExplorationConstant),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, span
}

// endExplore completes the span with the outcome and budget usage.
func (t *plannerTracer) endExplore(span trace.Span, budget *RolloutBudget, action types.Action, err error) {
	if span == nil || !t.enabled {
		return
	}
	defer span.End()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(
		attribute.Int("explorer.result.action", int(action)),
		attribute.Int64("explorer.result.rollouts", budget.Rollouts()),
		attribute.String("explorer.result.exhausted_by", budget.ExhaustedBy()),
		attribute.String("explorer.result.elapsed", budget.Elapsed().String()),
	)
}
