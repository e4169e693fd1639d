package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/helios/internal/geocoding"
	"github.com/UnknownOlympus/helios/internal/locator"
	"github.com/UnknownOlympus/helios/internal/metrics"
	"github.com/UnknownOlympus/helios/internal/score"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Options holds the per-session settings.
type Options struct {
	QuietPeriod    time.Duration // debounce window for map updates
	GeocodeTimeout time.Duration // bound on a single geocode call
	TTL            time.Duration // idle time after which a session is closed
	SweepInterval  time.Duration // how often idle sessions are looked for
	MapAPIKey      string        // key for static map URLs
}

// Store keeps open sessions in memory.
type Store struct {
	log      *slog.Logger
	provider geocoding.Provider
	fetcher  score.Fetcher
	metrics  *metrics.Metrics
	opts     Options
	now      func() time.Time

	ctx context.Context // parent of every session's lookups

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewStore creates a Store. Sessions' geocode lookups run under ctx.
func NewStore(
	ctx context.Context,
	log *slog.Logger,
	provider geocoding.Provider,
	fetcher score.Fetcher,
	m *metrics.Metrics,
	opts Options,
) *Store {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}

	return &Store{
		log:      log,
		provider: provider,
		fetcher:  fetcher,
		metrics:  m,
		opts:     opts,
		now:      time.Now,
		ctx:      ctx,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create opens a new session.
func (st *Store) Create() *Session {
	static := locator.NewStaticMapRenderer(st.opts.MapAPIKey)
	sess := &Session{
		id:        uuid.New(),
		submitter: score.NewSubmitter(st.fetcher, st.metrics, st.log),
		static:    static,
		mapSize:   locator.DefaultMapSize,
		mapKey:    st.opts.MapAPIKey,
		lastSeen:  st.now(),
	}

	log := st.log.With("session", sess.id.String())
	opts := []locator.Option{locator.WithRenderer(locator.Chain(static, locator.LogRenderer{Log: log}))}
	if st.opts.QuietPeriod > 0 {
		opts = append(opts, locator.WithQuietPeriod(st.opts.QuietPeriod))
	}
	if st.opts.GeocodeTimeout > 0 {
		opts = append(opts, locator.WithGeocodeTimeout(st.opts.GeocodeTimeout))
	}
	sess.locator = locator.New(st.ctx, log, st.provider, st.metrics, opts...)

	st.mu.Lock()
	st.sessions[sess.id] = sess
	st.mu.Unlock()

	st.metrics.ActiveSessions.Inc()
	st.log.Debug("Session opened", "session", sess.id.String())

	return sess
}

// Get returns the session and marks it as active.
func (st *Store) Get(id uuid.UUID) (*Session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(st.now())

	return sess, nil
}

// Delete closes and forgets a session.
func (st *Store) Delete(id uuid.UUID) error {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	sess.close()
	st.metrics.ActiveSessions.Dec()

	return nil
}

// Len returns the number of open sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return len(st.sessions)
}

// Run periodically closes idle sessions until ctx is cancelled, then closes the rest.
func (st *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(st.opts.SweepInterval)
	defer ticker.Stop()

	st.log.InfoContext(ctx, "Session sweeper started", "ttl", st.opts.TTL, "interval", st.opts.SweepInterval)

	for {
		select {
		case <-ctx.Done():
			st.closeAll()
			st.log.InfoContext(ctx, "Session sweeper stopped")
			return
		case <-ticker.C:
			if n := st.sweep(); n > 0 {
				st.log.InfoContext(ctx, "Closed idle sessions", "count", n)
			}
		}
	}
}

// sweep closes sessions idle for longer than the TTL and returns how many it closed.
func (st *Store) sweep() int {
	if st.opts.TTL <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.opts.TTL)

	st.mu.Lock()
	var expired []*Session
	for id, sess := range st.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, sess := range expired {
		sess.close()
		st.metrics.ActiveSessions.Dec()
		st.metrics.SessionsExpired.Inc()
	}

	return len(expired)
}

func (st *Store) closeAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[uuid.UUID]*Session)
	st.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
		st.metrics.ActiveSessions.Dec()
	}
}
