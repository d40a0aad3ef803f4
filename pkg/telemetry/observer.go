package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lattice-data/pipeline/pkg/observer"
)

// TelemetryObserver implements observer.Observer and records telemetry data
// for pipeline run execution events.
type TelemetryObserver struct {
	provider *Provider

	runSpan   trace.Span
	nodeSpans map[string]trace.Span

	runStartTime   time.Time
	nodeStartTimes map[string]time.Time
}

// NewTelemetryObserver creates a new telemetry observer.
func NewTelemetryObserver(provider *Provider) *TelemetryObserver {
	return &TelemetryObserver{
		provider:       provider,
		nodeSpans:      make(map[string]trace.Span),
		nodeStartTimes: make(map[string]time.Time),
	}
}

// OnEvent handles execution events and records telemetry data.
func (o *TelemetryObserver) OnEvent(ctx context.Context, event observer.Event) {
	switch event.Type {
	case observer.EventRunStart:
		o.handleRunStart(ctx, event)
	case observer.EventRunEnd:
		o.handleRunEnd(ctx, event)
	case observer.EventNodeStart:
		o.handleNodeStart(ctx, event)
	case observer.EventNodeSuccess:
		o.handleNodeSuccess(ctx, event)
	case observer.EventNodeFailure:
		o.handleNodeFailure(ctx, event)
	}
}

func (o *TelemetryObserver) handleRunStart(ctx context.Context, event observer.Event) {
	_, span := o.provider.Tracer().Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", event.RunID),
		),
	)

	o.runSpan = span
	o.runStartTime = event.Timestamp
}

func (o *TelemetryObserver) handleRunEnd(ctx context.Context, event observer.Event) {
	duration := time.Since(o.runStartTime)

	nodesExecuted := 0
	if val, ok := event.Metadata["nodes_executed"]; ok {
		if count, ok := val.(int); ok {
			nodesExecuted = count
		}
	}

	success := event.Status == observer.StatusSuccess
	o.provider.RecordRunExecution(ctx, event.RunID, duration, success, nodesExecuted)

	if o.runSpan != nil {
		if event.Error != nil {
			o.runSpan.RecordError(event.Error)
			o.runSpan.SetStatus(codes.Error, event.Error.Error())
		} else {
			o.runSpan.SetStatus(codes.Ok, "run completed successfully")
		}
		o.runSpan.End()
	}
}

func (o *TelemetryObserver) handleNodeStart(ctx context.Context, event observer.Event) {
	var spanCtx context.Context
	if o.runSpan != nil {
		spanCtx = trace.ContextWithSpan(ctx, o.runSpan)
	} else {
		spanCtx = ctx
	}

	_, span := o.provider.Tracer().Start(spanCtx, "node.execute",
		trace.WithAttributes(
			attribute.String("node.name", event.NodeName),
			attribute.String("run.id", event.RunID),
		),
	)

	o.nodeSpans[event.NodeName] = span
	o.nodeStartTimes[event.NodeName] = event.Timestamp
}

func (o *TelemetryObserver) handleNodeSuccess(ctx context.Context, event observer.Event) {
	o.handleNodeEnd(ctx, event, true)
}

func (o *TelemetryObserver) handleNodeFailure(ctx context.Context, event observer.Event) {
	o.handleNodeEnd(ctx, event, false)
}

func (o *TelemetryObserver) handleNodeEnd(ctx context.Context, event observer.Event, success bool) {
	var duration time.Duration
	if startTime, ok := o.nodeStartTimes[event.NodeName]; ok {
		duration = time.Since(startTime)
		delete(o.nodeStartTimes, event.NodeName)
	}

	o.provider.RecordNodeExecution(ctx, event.NodeName, duration, success)

	if span, ok := o.nodeSpans[event.NodeName]; ok {
		if event.Error != nil {
			span.RecordError(event.Error)
			span.SetStatus(codes.Error, event.Error.Error())
		} else {
			span.SetStatus(codes.Ok, "node completed successfully")
		}
		span.End()
		delete(o.nodeSpans, event.NodeName)
	}
}
