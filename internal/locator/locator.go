package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/UnknownOlympus/helios/internal/geocoding"
	"github.com/UnknownOlympus/helios/internal/metrics"
	"github.com/UnknownOlympus/helios/internal/models"
)

// Default timings.
const (
	DefaultQuietPeriod    = time.Second
	DefaultGeocodeTimeout = 10 * time.Second
)

// State is the debounce state of a Locator.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateQuerying
)

func (s State) String() string {
	switch s {
	case StateDebouncing:
		return "debouncing"
	case StateQuerying:
		return "querying"
	default:
		return "idle"
	}
}

// ErrNoQuery is reported when the fragments are too sparse to build any query.
var ErrNoQuery = errors.New("address has no country")

// Outcome is the result of one geocode attempt. Failures are carried in Err and are
// never propagated further; Stale marks a success that was discarded because a newer
// lookup had already been issued.
//
// Tier is the tier that actually matched. It is less specific than the query's tier
// when the provider only resolved a shortened address, named by Resolved.
type Outcome struct {
	Seq      uint64
	Query    string
	Resolved string
	Tier     Tier
	Coords   *models.Coordinates
	Err      error
	Stale    bool
}

// OK reports whether the outcome produced coordinates.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Coords != nil
}

// Applied reports whether the outcome updated the map view.
func (o Outcome) Applied() bool {
	return o.OK() && !o.Stale
}

// Option configures a Locator.
type Option func(*Locator)

// WithQuietPeriod sets the debounce window measured from the latest qualifying change.
func WithQuietPeriod(d time.Duration) Option {
	return func(l *Locator) { l.quiet = d }
}

// WithGeocodeTimeout bounds each provider call.
func WithGeocodeTimeout(d time.Duration) Option {
	return func(l *Locator) { l.timeout = d }
}

// WithRenderer sets the collaborator notified after every applied view.
func WithRenderer(r Renderer) Option {
	return func(l *Locator) { l.renderer = r }
}

// WithObserver registers a callback invoked with every outcome, including failures.
func WithObserver(fn func(Outcome)) Option {
	return func(l *Locator) { l.observer = fn }
}

// Locator converts progressively typed address fragments into a map view. Qualifying
// changes are debounced (trailing edge); only the latest issued lookup may update the view.
type Locator struct {
	log      *slog.Logger
	provider geocoding.Provider
	metrics  *metrics.Metrics
	quiet    time.Duration
	timeout  time.Duration
	renderer Renderer
	observer func(Outcome)

	ctx    context.Context // parent of every lookup, cancelled by Close
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	fragments models.AddressFragments
	view      models.MapView
	timer     *time.Timer
	gen       uint64 // incremented on every schedule, guards against late timer callbacks
	pending   bool
	inFlight  int
	issued    uint64 // sequence number of the newest lookup
	closed    bool
}

// New creates a Locator whose lookups run under ctx until Close is called.
func New(
	ctx context.Context,
	log *slog.Logger,
	provider geocoding.Provider,
	m *metrics.Metrics,
	opts ...Option,
) *Locator {
	l := &Locator{
		log:      log,
		provider: provider,
		metrics:  m,
		quiet:    DefaultQuietPeriod,
		timeout:  DefaultGeocodeTimeout,
		renderer: NopRenderer{},
		view:     models.DefaultMapView(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.ctx, l.cancel = context.WithCancel(ctx)

	return l
}

// Update stores the latest fragments. A change to country, city, street name or street
// number (re)starts the quiet period; other fields only replace the snapshot.
func (l *Locator) Update(fragments models.AddressFragments) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	changed := fragments.Locator() != l.fragments.Locator()
	l.fragments = fragments
	if !changed {
		return
	}

	if l.timer != nil && l.timer.Stop() {
		l.metrics.DebounceResets.Inc()
	}

	l.gen++
	gen := l.gen
	l.pending = true
	l.timer = time.AfterFunc(l.quiet, func() { l.fire(gen) })
}

// fire runs when a quiet period elapses. It uses the fragments current at fire time.
func (l *Locator) fire(gen uint64) {
	l.mu.Lock()
	if l.closed || gen != l.gen {
		l.mu.Unlock()
		return
	}
	l.pending = false
	fragments := l.fragments
	l.mu.Unlock()

	l.Locate(l.ctx, fragments)
}

// Locate geocodes fragments immediately, bypassing the debounce. The result is applied
// to the view only if no newer lookup was issued meanwhile.
func (l *Locator) Locate(ctx context.Context, fragments models.AddressFragments) Outcome {
	query, tier := BuildQuery(fragments)
	if tier == TierNone {
		// Still supersedes lookups in flight for the address that was cleared.
		l.mu.Lock()
		if !l.closed {
			l.issued++
		}
		seq := l.issued
		l.mu.Unlock()

		out := Outcome{Seq: seq, Tier: tier, Err: ErrNoQuery}
		l.notify(out)
		return out
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return Outcome{Query: query, Tier: tier, Err: context.Canceled}
	}
	l.issued++
	seq := l.issued
	l.inFlight++
	l.wg.Add(1)
	l.mu.Unlock()
	defer l.wg.Done()

	out := l.geocode(ctx, seq, fragments, query, tier)

	l.mu.Lock()
	l.inFlight--
	if out.OK() {
		if seq != l.issued {
			out.Stale = true
		} else {
			marker := *out.Coords
			l.view = models.MapView{Center: marker, Zoom: out.Tier.Zoom(), Marker: &marker}
		}
	}
	view := l.view
	l.mu.Unlock()

	switch {
	case out.Stale:
		l.metrics.StaleResults.WithLabelValues("geocode").Inc()
		l.log.DebugContext(ctx, "Discarding stale geocode result", "seq", seq, "query", query)
	case out.OK():
		if err := l.renderer.Render(ctx, view); err != nil {
			l.log.WarnContext(ctx, "Failed to render map view", "error", err)
		}
	default:
		l.log.WarnContext(ctx, "Geocoding failed, keeping previous map view", "query", query, "error", out.Err)
	}

	l.notify(out)

	return out
}

func (l *Locator) geocode(
	ctx context.Context,
	seq uint64,
	fragments models.AddressFragments,
	query string,
	tier Tier,
) Outcome {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	name := l.provider.Name()
	l.log.DebugContext(ctx, "Geocoding address", "seq", seq, "query", query, "tier", tier.String())

	startTime := time.Now()
	coords, resolved, err := l.resolve(ctx, query)
	l.metrics.GeocodeSeconds.WithLabelValues(name).Observe(time.Since(startTime).Seconds())

	out := Outcome{Seq: seq, Query: query, Resolved: resolved, Tier: tier, Coords: coords, Err: err}
	if err == nil && coords == nil {
		out.Err = geocoding.ErrNoResults
	}

	if out.Err == nil && !strings.EqualFold(resolved, query) {
		matched, ok := tierOf(fragments, resolved, tier)
		if !ok {
			out.Coords = nil
			out.Err = fmt.Errorf("%w: only %q matched", geocoding.ErrNoResults, resolved)
		} else {
			out.Tier = matched
			l.log.InfoContext(ctx, "Address matched at a less specific tier",
				"query", query, "resolved", resolved, "tier", matched.String())
		}
	}

	status := "success"
	switch {
	case errors.Is(out.Err, geocoding.ErrNoResults):
		status = "empty"
	case out.Err != nil:
		status = "failure"
	}
	l.metrics.GeocodeRequests.WithLabelValues(name, status).Inc()

	return out
}

// resolve asks the provider for query, letting providers that fall back to shorter
// addresses report which one matched.
func (l *Locator) resolve(ctx context.Context, query string) (*models.Coordinates, string, error) {
	if r, ok := l.provider.(geocoding.Resolver); ok {
		res, err := r.Resolve(ctx, query)
		if err != nil || res == nil {
			return nil, query, err
		}
		return &res.Coords, res.Address, nil
	}

	coords, err := l.provider.Geocode(ctx, query)

	return coords, query, err
}

func (l *Locator) notify(out Outcome) {
	if l.observer != nil {
		l.observer(out)
	}
}

// View returns the current map view.
func (l *Locator) View() models.MapView {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.view
}

// Fragments returns the latest fragments snapshot.
func (l *Locator) Fragments() models.AddressFragments {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.fragments
}

// State reports whether the locator is waiting for a quiet period, querying, or idle.
// A pending quiet period takes precedence over an in-flight lookup.
func (l *Locator) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.pending:
		return StateDebouncing
	case l.inFlight > 0:
		return StateQuerying
	default:
		return StateIdle
	}
}

// Close stops the pending timer, cancels in-flight lookups and waits for them to return.
// It is safe to call more than once.
func (l *Locator) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.pending = false
	if l.timer != nil {
		l.timer.Stop()
	}
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
}
