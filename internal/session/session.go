package session

import (
	"context"
	"sync"
	"time"

	"github.com/UnknownOlympus/helios/internal/locator"
	"github.com/UnknownOlympus/helios/internal/models"
	"github.com/UnknownOlympus/helios/internal/score"
	"github.com/google/uuid"
)

// Session is the server side state of one open light score form.
type Session struct {
	id        uuid.UUID
	locator   *locator.Locator
	submitter *score.Submitter
	static    *locator.StaticMapRenderer
	mapSize   string
	mapKey    string

	mu       sync.Mutex
	lastSeen time.Time
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// UpdateAddress replaces the form fields. Locator fields restart the map debounce.
func (s *Session) UpdateAddress(fragments models.AddressFragments) {
	s.locator.Update(fragments)
}

// Address returns the latest form fields.
func (s *Session) Address() models.AddressFragments {
	return s.locator.Fragments()
}

// View returns the current map view.
func (s *Session) View() models.MapView {
	return s.locator.View()
}

// LocatorState reports the debounce state of the map.
func (s *Session) LocatorState() locator.State {
	return s.locator.State()
}

// MapURL returns the static map image for the current view.
func (s *Session) MapURL() string {
	if u := s.static.URL(); u != "" {
		return u
	}

	return locator.StaticMapURL(s.locator.View(), s.mapSize, s.mapKey)
}

// Submit requests a light score for the current form fields.
func (s *Session) Submit(ctx context.Context) (*models.ScoreResult, error) {
	return s.submitter.Submit(ctx, s.locator.Fragments())
}

// Score returns the state of the latest submission.
func (s *Session) Score() score.State {
	return s.submitter.Snapshot()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSeen
}

func (s *Session) close() {
	s.locator.Close()
}
