package calculator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"calcpad/internal/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStoreFull       = errors.New("session store is full")
)

// Recorder receives the evaluations a session performs, one call per batch
// of actions.
type Recorder interface {
	Record(ctx context.Context, sessionID string, evals ...engine.Evaluation) error
}

// Session is one server-side calculator. Access to the engine is serialized
// by the session's own lock.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	calc     engine.Calculator
	lastSeen atomic.Int64
}

// Do runs fn with exclusive access to the session's engine.
func (s *Session) Do(fn func(c *engine.Calculator)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.calc)
}

// Snapshot returns the engine's derived values.
func (s *Session) Snapshot() engine.Snapshot {
	var snap engine.Snapshot
	s.Do(func(c *engine.Calculator) { snap = c.Snapshot() })
	return snap
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idleSince() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Store keeps sessions in memory and expires idle ones.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	now      func() time.Time
}

// NewStore returns a store that expires sessions idle for longer than ttl.
// max caps the number of live sessions; zero means unlimited.
func NewStore(ttl time.Duration, max int) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      max,
		now:      time.Now,
	}
}

func (st *Store) Create() (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.max > 0 && len(st.sessions) >= st.max {
		return nil, ErrStoreFull
	}
	now := st.now()
	s := &Session{ID: uuid.NewString(), CreatedAt: now}
	s.touch(now)
	st.sessions[s.ID] = s
	return s, nil
}

// Get returns the session and marks it as used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(st.now())
	return s, nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle past the ttl and returns how many it removed.
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.ttl)
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done. onSweep, when non-nil, sees
// the number of sessions each sweep removed.
func (st *Store) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := st.Sweep()
			if onSweep != nil {
				onSweep(n)
			}
		}
	}
}

// Collector exposes the live session count as calcpad_sessions_active.
func (st *Store) Collector() prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "calcpad",
		Name:      "sessions_active",
		Help:      "Number of live calculator sessions.",
	}, func() float64 { return float64(st.Len()) })
}
