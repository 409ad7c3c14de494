package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/contentagent/internal/pipeline"
	"github.com/mohammad-safakhou/contentagent/internal/queue/streams"
	"github.com/mohammad-safakhou/contentagent/models"
)

const (
	StatusPublished = "published"
	StatusFailed    = "failed"
	// StatusRejected marks requests that never reached a pipeline run.
	StatusRejected = "rejected"

	reclaimIdle = 15 * time.Minute
)

// IdempotencyStore claims event ids so redelivered events are processed once.
type IdempotencyStore interface {
	ClaimIdempotency(ctx context.Context, scope, key string) (bool, error)
}

// MessageSource is the consumer-group side of a stream.
type MessageSource interface {
	Read(ctx context.Context, stream string, opts ...streams.ConsumerOption) ([]streams.Message, error)
	Ack(ctx context.Context, stream string, ids ...string) error
	AutoClaim(ctx context.Context, stream string, minIdle time.Duration, start string, count int64) ([]streams.Message, string, error)
}

// EventPublisher appends completion events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, stream, eventType string, payload any, opts ...streams.PublishOption) (string, error)
}

// RequestRouter routes one decoded request.
type RequestRouter interface {
	Route(ctx context.Context, req ContentRequest) (Outcome, error)
}

// Processor consumes content.requested events and publishes content.completed for each.
type Processor struct {
	logger        *log.Logger
	store         IdempotencyStore
	router        RequestRouter
	consumer      MessageSource
	publisher     EventPublisher
	requestStream string
	resultStream  string
	concurrency   int
	block         time.Duration
	tracer        trace.Tracer

	processed otelmetric.Int64Counter
	duration  otelmetric.Float64Histogram
}

// Options configures a Processor.
type Options struct {
	RequestStream string
	ResultStream  string
	Concurrency   int
	Block         time.Duration
}

func NewProcessor(logger *log.Logger, st IdempotencyStore, router RequestRouter, cons MessageSource, pub EventPublisher, opts Options, meter otelmetric.Meter, tracer trace.Tracer) *Processor {
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("worker")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Block <= 0 {
		opts.Block = 5 * time.Second
	}
	proc := &Processor{
		logger:        logger,
		store:         st,
		router:        router,
		consumer:      cons,
		publisher:     pub,
		requestStream: opts.RequestStream,
		resultStream:  opts.ResultStream,
		concurrency:   opts.Concurrency,
		block:         opts.Block,
		tracer:        tracer,
	}
	if meter != nil {
		var err error
		proc.processed, err = meter.Int64Counter("worker_requests_processed_total",
			otelmetric.WithDescription("Content requests handled, by outcome"))
		if err != nil {
			logger.Printf("warn: create processed counter failed: %v", err)
		}
		proc.duration, err = meter.Float64Histogram("worker_request_duration_seconds",
			otelmetric.WithUnit("s"))
		if err != nil {
			logger.Printf("warn: create duration histogram failed: %v", err)
		}
	}
	return proc
}

// Start blocks, processing requests until ctx is cancelled. Up to Concurrency runs
// execute at once; each message is acked after its completion event is published.
func (p *Processor) Start(ctx context.Context) error {
	p.logger.Printf("processor starting; consuming %s with %d workers", p.requestStream, p.concurrency)
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	defer func() { _ = g.Wait() }()

	p.reclaim(ctx, &g)
	for {
		select {
		case <-ctx.Done():
			p.logger.Printf("processor stopping: %v", ctx.Err())
			return nil
		default:
		}

		msgs, err := p.consumer.Read(ctx, p.requestStream, streams.WithBlock(p.block), streams.WithCount(int64(p.concurrency)))
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Printf("error reading stream: %v", err)
			time.Sleep(time.Second)
			continue
		}
		for _, msg := range msgs {
			g.Go(func() error {
				p.process(ctx, msg)
				return nil
			})
		}
	}
}

// reclaim picks up messages a crashed replica left pending.
func (p *Processor) reclaim(ctx context.Context, g *errgroup.Group) {
	msgs, _, err := p.consumer.AutoClaim(ctx, p.requestStream, reclaimIdle, "0-0", 64)
	if err != nil {
		p.logger.Printf("warn: reclaim pending requests failed: %v", err)
		return
	}
	if len(msgs) > 0 {
		p.logger.Printf("reclaimed %d pending requests", len(msgs))
	}
	for _, msg := range msgs {
		g.Go(func() error {
			p.process(ctx, msg)
			return nil
		})
	}
}

func (p *Processor) process(ctx context.Context, msg streams.Message) {
	if err := p.Handle(ctx, msg); err != nil {
		p.logger.Printf("error handling message %s: %v", msg.ID, err)
		// left pending for reclaim
		return
	}
	if err := p.consumer.Ack(ctx, p.requestStream, msg.ID); err != nil {
		p.logger.Printf("warn: failed to ack message %s: %v", msg.ID, err)
	}
}

// Handle processes one request message. A returned error means the completion event
// could not be recorded and the message should be redelivered.
func (p *Processor) Handle(ctx context.Context, msg streams.Message) error {
	ctx, span := p.tracer.Start(ctx, "worker.handle_content_request")
	defer span.End()
	start := time.Now()

	claimed, err := p.store.ClaimIdempotency(ctx, msg.Envelope.EventType, msg.Envelope.EventID)
	if err != nil {
		return fmt.Errorf("claim idempotency: %w", err)
	}
	if !claimed {
		p.logger.Printf("skip event %s, already processed", msg.Envelope.EventID)
		return nil
	}

	var payload streams.ContentRequested
	if err := msg.Envelope.Decode(&payload); err != nil {
		return err
	}

	outcome, routeErr := p.router.Route(ctx, ContentRequest{OrgID: payload.OrgID, ModuleID: payload.ModuleID, FormData: payload.FormData})
	done := completion(msg.Envelope.EventID, payload, outcome, routeErr)
	if routeErr != nil {
		p.logger.Printf("warn: event=%s item=%d %s: %v", msg.Envelope.EventID, outcome.ContentItemID, done.Status, routeErr)
	} else {
		p.logger.Printf("event=%s item=%d published article %d as %s", msg.Envelope.EventID, outcome.ContentItemID, done.ArticleID, done.Slug)
	}

	if _, err := p.publisher.PublishEvent(ctx, p.resultStream, streams.EventContentCompleted, done); err != nil {
		return fmt.Errorf("publish %s: %w", streams.EventContentCompleted, err)
	}
	p.record(ctx, done.Status, time.Since(start))
	return nil
}

func completion(eventID string, req streams.ContentRequested, out Outcome, err error) streams.ContentCompleted {
	done := streams.ContentCompleted{
		RequestEventID: eventID,
		OrgID:          req.OrgID,
		ModuleID:       req.ModuleID,
		ContentItemID:  out.ContentItemID,
	}
	var stageErr *pipeline.StageError
	switch {
	case err == nil:
		done.Status = StatusPublished
		done.ArticleID = out.Article.ID
		done.Slug = out.Article.PagePath
	case errors.As(err, &stageErr):
		done.Status = StatusFailed
		done.Stage = string(stageErr.Stage)
		done.Error = stageErr.Err.Error()
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidFormData), errors.Is(err, models.ErrTranslationUnsupported):
		done.Status = StatusRejected
		done.Error = err.Error()
	default:
		done.Status = StatusFailed
		done.Error = err.Error()
	}
	return done
}

func (p *Processor) record(ctx context.Context, status string, d time.Duration) {
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	if p.processed != nil {
		p.processed.Add(ctx, 1, attrs)
	}
	if p.duration != nil {
		p.duration.Record(ctx, d.Seconds(), attrs)
	}
}
