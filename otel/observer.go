// Package otel records bridge dispatch and engine health signals into
// OpenTelemetry.
package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/latticegate/pqcbridge"
)

// DispatchObserver records tool dispatch outcomes into OpenTelemetry.
type DispatchObserver struct {
	tracer trace.Tracer

	dispatches metric.Int64Counter
	probes     metric.Int64Counter
	latency    metric.Float64Histogram
}

// NewDispatchObserver creates a dispatch observer bound to the provided
// meter/tracer.
func NewDispatchObserver(meter metric.Meter, tracer trace.Tracer) (*DispatchObserver, error) {
	dispatches, err := meter.Int64Counter(
		"pqcbridge.tool.dispatches",
		metric.WithDescription("Number of tool dispatches"),
	)
	if err != nil {
		return nil, err
	}
	probes, err := meter.Int64Counter(
		"pqcbridge.engine.probes",
		metric.WithDescription("Number of engine health probes"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"pqcbridge.tool.latency",
		metric.WithDescription("Tool dispatch latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &DispatchObserver{
		dispatches: dispatches,
		probes:     probes,
		latency:    latency,
		tracer:     tracer,
	}, nil
}

// ObserveDispatch records one dispatch result.
func (o *DispatchObserver) ObserveDispatch(observation pqcbridge.DispatchObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool", observation.Tool),
		attribute.String("outcome", observation.Outcome),
		attribute.String("source", observation.Source),
	}
	if observation.ErrorCode != "" {
		attrs = append(attrs, attribute.String("error_code", observation.ErrorCode))
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	o.dispatches.Add(ctx, 1, options)
	o.latency.Record(ctx, float64(time.Duration(observation.DurationMS)*time.Millisecond)/float64(time.Second), options)

	if o.tracer == nil {
		return
	}
	_, span := o.tracer.Start(ctx, "tool.dispatch", trace.WithAttributes(attrs...))
	if observation.Outcome == pqcbridge.OutcomeError {
		span.SetStatus(codes.Error, observation.ErrorCode)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// ObserveProbe records one engine health probe result.
func (o *DispatchObserver) ObserveProbe(available bool, version string, elapsed time.Duration) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("available", available),
	}
	if version != "" {
		attrs = append(attrs, attribute.String("engine_version", version))
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	o.probes.Add(ctx, 1, options)
	o.latency.Record(ctx, elapsed.Seconds(), options)
}

var _ pqcbridge.Observer = (*DispatchObserver)(nil)
