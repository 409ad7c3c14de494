package streams

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	streamMetricsOnce sync.Once
	eventsPublished   otelmetric.Int64Counter
	eventsConsumed    otelmetric.Int64Counter
	eventsDropped     otelmetric.Int64Counter
)

func initStreamMetrics() {
	meter := otel.Meter("contentagent/queue/streams")
	var err error
	eventsPublished, err = meter.Int64Counter("stream_events_published_total",
		otelmetric.WithDescription("Envelopes appended to Redis streams"))
	if err != nil {
		log.Printf("queue streams metrics init: stream_events_published_total: %v", err)
	}
	eventsConsumed, err = meter.Int64Counter("stream_events_consumed_total",
		otelmetric.WithDescription("Envelopes read and decoded by consumers"))
	if err != nil {
		log.Printf("queue streams metrics init: stream_events_consumed_total: %v", err)
	}
	eventsDropped, err = meter.Int64Counter("stream_events_dropped_total",
		otelmetric.WithDescription("Stream entries acknowledged without processing because they failed to decode or validate"))
	if err != nil {
		log.Printf("queue streams metrics init: stream_events_dropped_total: %v", err)
	}
}

func countEvent(ctx context.Context, c *otelmetric.Int64Counter, stream, eventType string) {
	streamMetricsOnce.Do(initStreamMetrics)
	if *c == nil {
		return
	}
	(*c).Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("stream", stream),
		attribute.String("event_type", eventType),
	))
}

func recordPublished(ctx context.Context, stream, eventType string) {
	countEvent(ctx, &eventsPublished, stream, eventType)
}

func recordConsumed(ctx context.Context, stream, eventType string) {
	countEvent(ctx, &eventsConsumed, stream, eventType)
}

func recordDropped(ctx context.Context, stream, reason string) {
	streamMetricsOnce.Do(initStreamMetrics)
	if eventsDropped == nil {
		return
	}
	eventsDropped.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("stream", stream),
		attribute.String("reason", reason),
	))
}
