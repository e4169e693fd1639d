package score

import (
	"context"
	"log/slog"
	"sync"

	"github.com/UnknownOlympus/helios/internal/metrics"
	"github.com/UnknownOlympus/helios/internal/models"
)

// Fetcher requests a light score for one address.
type Fetcher interface {
	Validate(fragments models.AddressFragments) error
	Fetch(ctx context.Context, fragments models.AddressFragments) (*models.ScoreResult, error)
}

// State is the submit state shown next to the form.
type State struct {
	Loading bool
	Result  *models.ScoreResult
	Err     error
}

// Submitter holds the result of the latest explicit submission.
// Overlapping submissions are allowed; only the newest one may update the state.
type Submitter struct {
	fetcher Fetcher
	metrics *metrics.Metrics
	log     *slog.Logger

	mu     sync.Mutex
	issued uint64
	state  State
}

// NewSubmitter creates a Submitter backed by fetcher.
func NewSubmitter(fetcher Fetcher, m *metrics.Metrics, log *slog.Logger) *Submitter {
	return &Submitter{fetcher: fetcher, metrics: m, log: log}
}

// Submit validates fragments and, if they are complete, fetches a new score. The previous
// result and error are cleared when the request starts. A validation failure is recorded
// without contacting the backend. If a newer Submit starts before this one finishes, the
// outcome is dropped and ErrSuperseded is returned.
func (s *Submitter) Submit(ctx context.Context, fragments models.AddressFragments) (*models.ScoreResult, error) {
	if err := s.fetcher.Validate(fragments); err != nil {
		s.mu.Lock()
		s.issued++
		s.state = State{Err: err}
		s.mu.Unlock()

		return nil, err
	}

	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.state = State{Loading: true}
	s.mu.Unlock()

	result, err := s.fetcher.Fetch(ctx, fragments)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.issued {
		s.metrics.StaleResults.WithLabelValues("score").Inc()
		s.log.DebugContext(ctx, "Discarding superseded light score response", "seq", seq)
		return nil, ErrSuperseded
	}

	s.state = State{Result: result, Err: err}

	return result, err
}

// Snapshot returns a copy of the current submit state.
func (s *Submitter) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}
