package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/mohammad-safakhou/contentagent/models"
)

// EmbeddingDimensions is the length of the vectors stored in images.embedding.
const EmbeddingDimensions = 1536

type Store struct {
	DB *sql.DB
}

var (
	metricsOnce     sync.Once
	sweptCounter    otelmetric.Int64Counter
	articlesCounter otelmetric.Int64Counter
)

// initStoreMetrics registers the store counters. Sweeps are counted here so both the
// scheduled sweep and the per-org sweep before listing are included.
func initStoreMetrics(meter otelmetric.Meter) error {
	var err error
	sweptCounter, err = meter.Int64Counter("content_items_swept_total",
		otelmetric.WithDescription("Content items moved from writing to failed by the sweep"))
	if err != nil {
		return fmt.Errorf("content_items_swept_total: %w", err)
	}
	articlesCounter, err = meter.Int64Counter("articles_saved_total")
	if err != nil {
		return fmt.Errorf("articles_saved_total: %w", err)
	}
	return nil
}

// NewWithDSN opens and pings a Postgres connection pool.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	metricsOnce.Do(func() {
		if err := initStoreMetrics(otel.Meter("store")); err != nil {
			log.Printf("warn: store metrics disabled: %v", err)
		}
	})
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return err
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("vector must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}
