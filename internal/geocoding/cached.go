package geocoding

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/UnknownOlympus/helios/internal/metrics"
	"github.com/UnknownOlympus/helios/internal/models"
	"github.com/UnknownOlympus/helios/internal/repository"
)

// CachedProvider consults the geocode cache before calling the wrapped provider
// and stores every successful lookup under the address that matched.
type CachedProvider struct {
	next    Provider
	cache   repository.Interface
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewCachedProvider decorates next with a cache.
func NewCachedProvider(next Provider, cache repository.Interface, m *metrics.Metrics, log *slog.Logger) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, metrics: m, log: log}
}

// Name reports the wrapped provider's name.
func (cp *CachedProvider) Name() string {
	return cp.next.Name()
}

// Geocode implements Provider. Cache failures are logged and never fail the lookup.
func (cp *CachedProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	if coords := cp.lookup(ctx, address); coords != nil {
		return coords, nil
	}

	coords, err := cp.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}
	cp.store(ctx, address, *coords)

	return coords, nil
}

// Resolve implements Resolver. A result is cached under the address that actually
// matched, so a shortened match never answers for the full address later.
func (cp *CachedProvider) Resolve(ctx context.Context, address string) (*Resolution, error) {
	if coords := cp.lookup(ctx, address); coords != nil {
		return &Resolution{Coords: *coords, Address: address}, nil
	}

	resolver, ok := cp.next.(Resolver)
	if !ok {
		coords, err := cp.next.Geocode(ctx, address)
		if err != nil {
			return nil, err
		}
		cp.store(ctx, address, *coords)
		return &Resolution{Coords: *coords, Address: address}, nil
	}

	res, err := resolver.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}
	cp.store(ctx, res.Address, res.Coords)

	return res, nil
}

func (cp *CachedProvider) lookup(ctx context.Context, address string) *models.Coordinates {
	key := normalizeQuery(address)

	coords, err := cp.cache.LookupCoordinates(ctx, cp.next.Name(), key)
	switch {
	case err == nil:
		cp.metrics.CacheLookups.WithLabelValues("hit").Inc()
		cp.log.DebugContext(ctx, "Geocode cache hit", "query", key)
		return coords
	case errors.Is(err, repository.ErrCacheMiss):
		cp.metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		cp.metrics.CacheLookups.WithLabelValues("error").Inc()
		cp.log.WarnContext(ctx, "Geocode cache lookup failed", "query", key, "error", err)
	}

	return nil
}

func (cp *CachedProvider) store(ctx context.Context, address string, coords models.Coordinates) {
	key := normalizeQuery(address)
	if err := cp.cache.SaveCoordinates(ctx, cp.next.Name(), key, coords); err != nil {
		cp.log.WarnContext(ctx, "Failed to store geocode in cache", "query", key, "error", err)
	}
}

// normalizeQuery lowercases the query and collapses runs of whitespace.
func normalizeQuery(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
