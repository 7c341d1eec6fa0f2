package calculator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"calcpad/internal/engine"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration, max int) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	st := NewStore(ttl, max)
	st.now = clock.Now
	return st, clock
}

func TestStoreCreateGetDelete(t *testing.T) {
	st, _ := newTestStore(time.Minute, 0)

	s, err := st.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := st.Get(s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != s {
		t.Fatal("expected the same session back")
	}

	if err := st.Delete(s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := st.Delete(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestStoreRejectsWhenFull(t *testing.T) {
	st, _ := newTestStore(time.Minute, 2)
	for i := 0; i < 2; i++ {
		if _, err := st.Create(); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := st.Create(); !errors.Is(err, ErrStoreFull) {
		t.Fatalf("expected ErrStoreFull, got %v", err)
	}
}

func TestStoreSweepExpiresIdleSessions(t *testing.T) {
	st, clock := newTestStore(time.Minute, 0)

	idle, _ := st.Create()
	busy, _ := st.Create()

	clock.Advance(45 * time.Second)
	if _, err := st.Get(busy.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	clock.Advance(30 * time.Second)

	if n := st.Sweep(); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if _, err := st.Get(idle.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected idle session to be gone, got %v", err)
	}
	if _, err := st.Get(busy.ID); err != nil {
		t.Fatalf("expected busy session to survive: %v", err)
	}
}

func TestStoreRunStopsWithContext(t *testing.T) {
	st := NewStore(time.Nanosecond, 0)
	if _, err := st.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int, 16)
	done := make(chan struct{})
	go func() {
		st.Run(ctx, time.Millisecond, func(n int) { swept <- n })
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for st.Len() != 0 {
		select {
		case <-swept:
		case <-deadline:
			t.Fatal("sweeper never expired the session")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSessionDoSerializesAccess(t *testing.T) {
	st, _ := newTestStore(time.Minute, 0)
	s, _ := st.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do(func(c *engine.Calculator) {
				c.Perform(engine.DigitAction(1))
				c.Perform(engine.OperationAction(engine.Add))
			})
		}()
	}
	wg.Wait()

	s.Do(func(c *engine.Calculator) {
		c.Perform(engine.DigitAction(0))
		c.Perform(engine.Equals)
	})

	snap := s.Snapshot()
	if snap.Display != "50" {
		t.Fatalf("expected %q, got %q", "50", snap.Display)
	}
	var count int
	s.Do(func(c *engine.Calculator) { count = c.EvaluationCount() })
	if count != 50 {
		t.Fatalf("expected 50 evaluations, got %d", count)
	}
}

func TestStoreCollectorReportsActiveSessions(t *testing.T) {
	st, _ := newTestStore(time.Minute, 0)
	reg := prometheus.NewRegistry()
	reg.MustRegister(st.Collector())

	st.Create()
	st.Create()

	want := `
# HELP calcpad_sessions_active Number of live calculator sessions.
# TYPE calcpad_sessions_active gauge
calcpad_sessions_active 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "calcpad_sessions_active"); err != nil {
		t.Fatal(err)
	}
}
