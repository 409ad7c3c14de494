package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"
)

// SweepLockKey guards the sweep so only one replica runs it per tick.
const SweepLockKey = "sweep:lock"

// Sweeper marks stale writing items as failed.
type Sweeper interface {
	SweepStale(ctx context.Context, cutoff time.Time) ([]int64, error)
}

// Lock is a best-effort distributed mutex.
type Lock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// RedisLock implements Lock with SET NX and a token-checked delete.
type RedisLock struct {
	Client *redis.Client
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

func (l RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	return func() {
		_ = releaseScript.Run(context.Background(), l.Client, []string{key}, token).Err()
	}, true, nil
}

// Scheduler runs the stale-content sweep on a cron schedule.
type Scheduler struct {
	sweeper    Sweeper
	lock       Lock
	expr       *cronexpr.Expression
	staleAfter time.Duration
	lockTTL    time.Duration
	logger     *log.Logger
	now        func() time.Time
}

func NewScheduler(sw Sweeper, lock Lock, schedule string, staleAfter, lockTTL time.Duration, logger *log.Logger) (*Scheduler, error) {
	expr, err := cronexpr.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	}
	s := &Scheduler{
		sweeper:    sw,
		lock:       lock,
		expr:       expr,
		staleAfter: staleAfter,
		lockTTL:    lockTTL,
		logger:     logger,
		now:        time.Now,
	}
	return s, nil
}

// Start runs the sweep at every schedule tick until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next := s.expr.Next(s.now())
		if next.IsZero() {
			s.logger.Printf("warn: sweep schedule has no future ticks, stopping")
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if _, err := s.SweepOnce(ctx); err != nil {
			s.logger.Printf("warn: sweep failed: %v", err)
		}
	}
}

// ErrSweepLocked is returned when another replica holds the sweep lock.
var ErrSweepLocked = errors.New("sweep lock held elsewhere")

// SweepOnce fails every item that has been writing longer than the stale threshold.
func (s *Scheduler) SweepOnce(ctx context.Context) ([]int64, error) {
	if s.lock != nil {
		release, ok, err := s.lock.Acquire(ctx, SweepLockKey, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			return nil, ErrSweepLocked
		}
		defer release()
	}

	cutoff := s.now().Add(-s.staleAfter)
	ids, err := s.sweeper.SweepStale(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		s.logger.Printf("sweep marked %d items failed (created before %s): %v", len(ids), cutoff.Format(time.RFC3339), ids)
	}
	return ids, nil
}
