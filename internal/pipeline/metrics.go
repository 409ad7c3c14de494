package pipeline

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

type pipelineMetrics struct {
	stageDuration  otelmetric.Float64Histogram
	stageFailures  otelmetric.Int64Counter
	scrapeFailures otelmetric.Int64Counter
	assetFailures  otelmetric.Int64Counter
}

func newPipelineMetrics(meter otelmetric.Meter, logger *log.Logger) *pipelineMetrics {
	if meter == nil {
		meter = otel.Meter("contentagent/pipeline")
	}
	m := &pipelineMetrics{}
	var err error
	m.stageDuration, err = meter.Float64Histogram("pipeline_stage_duration_seconds",
		otelmetric.WithDescription("Duration of content pipeline stages"),
		otelmetric.WithUnit("s"))
	if err != nil {
		logger.Printf("warn: create stage duration histogram failed: %v", err)
	}
	m.stageFailures, err = meter.Int64Counter("pipeline_stage_failures_total",
		otelmetric.WithDescription("Content runs aborted, by stage"))
	if err != nil {
		logger.Printf("warn: create stage failure counter failed: %v", err)
	}
	m.scrapeFailures, err = meter.Int64Counter("pipeline_scrape_failures_total",
		otelmetric.WithDescription("Store pages that could not be scraped"))
	if err != nil {
		logger.Printf("warn: create scrape failure counter failed: %v", err)
	}
	m.assetFailures, err = meter.Int64Counter("pipeline_asset_match_failures_total",
		otelmetric.WithDescription("Paragraph image lookups that failed to embed or search"))
	if err != nil {
		logger.Printf("warn: create asset failure counter failed: %v", err)
	}
	return m
}

func (m *pipelineMetrics) recordStage(ctx context.Context, stage Stage, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("stage", string(stage)), attribute.Bool("ok", err == nil))
	if m.stageDuration != nil {
		m.stageDuration.Record(ctx, d.Seconds(), attrs)
	}
	if err != nil && m.stageFailures != nil {
		m.stageFailures.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("stage", string(stage))))
	}
}

func (m *pipelineMetrics) scrapeFailed(ctx context.Context) {
	if m != nil && m.scrapeFailures != nil {
		m.scrapeFailures.Add(ctx, 1)
	}
}

func (m *pipelineMetrics) assetFailed(ctx context.Context, step string) {
	if m != nil && m.assetFailures != nil {
		m.assetFailures.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("step", step)))
	}
}
