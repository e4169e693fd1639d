package geocoding

import (
	"context"
	"errors"

	"github.com/UnknownOlympus/helios/internal/models"
)

// ErrNoResults is wrapped by every provider when an address resolves to nothing.
var ErrNoResults = errors.New("no geocoding results")

// Provider is an interface that defines a method for geocoding an address.
// The Geocode method takes a context and a free-text address as input,
// and returns the corresponding coordinates and an error if any occurs.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
	// Name is the provider label used in logs and metrics.
	Name() string
}

// Resolution is a geocode result together with the address that produced it.
// Address may be a shortened form of the requested one.
type Resolution struct {
	Coords  models.Coordinates
	Address string
}

// Resolver is implemented by providers that retry with shorter addresses when the
// requested one has no match. Geocode on such providers stays exact.
type Resolver interface {
	Provider
	Resolve(ctx context.Context, address string) (*Resolution, error)
}
