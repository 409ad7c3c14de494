package server

import (
	"context"
	"errors"
	"io"
	"log"
	"reflect"
	"testing"
	"time"
)

type sweeperStub struct {
	cutoffs []time.Time
	ids     []int64
	err     error
}

func (s *sweeperStub) SweepStale(_ context.Context, cutoff time.Time) ([]int64, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.ids, s.err
}

type lockStub struct {
	held     bool
	released int
	keys     []string
}

func (l *lockStub) Acquire(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.keys = append(l.keys, key)
	if l.held {
		return func() {}, false, nil
	}
	return func() { l.released++ }, true, nil
}

func newTestScheduler(t *testing.T, sw Sweeper, lock Lock) *Scheduler {
	t.Helper()
	s, err := NewScheduler(sw, lock, "*/5 * * * *", 30*time.Minute, time.Minute, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSweepOnceUsesStaleCutoff(t *testing.T) {
	sw := &sweeperStub{ids: []int64{4, 9}}
	lock := &lockStub{}
	s := newTestScheduler(t, sw, lock)

	ids, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{4, 9}) {
		t.Fatalf("unexpected ids %v", ids)
	}
	want := time.Date(2024, 12, 1, 11, 30, 0, 0, time.UTC)
	if len(sw.cutoffs) != 1 || !sw.cutoffs[0].Equal(want) {
		t.Fatalf("unexpected cutoff %v", sw.cutoffs)
	}
	if lock.released != 1 || lock.keys[0] != SweepLockKey {
		t.Fatalf("lock not used correctly: %+v", lock)
	}
}

func TestSweepOnceSkipsWhenLocked(t *testing.T) {
	sw := &sweeperStub{}
	s := newTestScheduler(t, sw, &lockStub{held: true})
	if _, err := s.SweepOnce(context.Background()); !errors.Is(err, ErrSweepLocked) {
		t.Fatalf("expected ErrSweepLocked, got %v", err)
	}
	if len(sw.cutoffs) != 0 {
		t.Fatalf("sweep must not run without the lock")
	}
}

func TestSweepOnceWithoutLock(t *testing.T) {
	sw := &sweeperStub{err: errors.New("db down")}
	s := newTestScheduler(t, sw, nil)
	if _, err := s.SweepOnce(context.Background()); err == nil {
		t.Fatalf("expected sweeper error")
	}
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	if _, err := NewScheduler(&sweeperStub{}, nil, "every tuesday", time.Minute, time.Minute, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	s := newTestScheduler(t, &sweeperStub{}, nil)
	s.now = time.Now
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Start(ctx); close(done) }()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
}
