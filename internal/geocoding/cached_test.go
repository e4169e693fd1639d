package geocoding_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/helios/internal/geocoding"
	"github.com/UnknownOlympus/helios/internal/metrics"
	"github.com/UnknownOlympus/helios/internal/models"
	"github.com/UnknownOlympus/helios/internal/repository"
	"github.com/UnknownOlympus/helios/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCachedProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	toronto := models.Coordinates{Latitude: 43.6532, Longitude: -79.3832}

	setup := func(t *testing.T) (*mocks.Provider, *mocks.Interface, *metrics.Metrics, *geocoding.CachedProvider) {
		t.Helper()

		next := mocks.NewProvider(t)
		next.On("Name").Return("google").Maybe()
		cache := mocks.NewInterface(t)
		m := metrics.NewMetrics(prometheus.NewRegistry())

		return next, cache, m, geocoding.NewCachedProvider(next, cache, m, slog.Default())
	}

	t.Run("hit skips provider", func(t *testing.T) {
		_, cache, m, provider := setup(t)
		cache.On("LookupCoordinates", ctx, "google", "toronto, canada").Return(&toronto, nil).Once()

		coords, err := provider.Geocode(ctx, "  Toronto,   Canada ")

		require.NoError(t, err)
		assert.Equal(t, toronto, *coords)
		assert.InDelta(t, 1, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")), 0)
	})

	t.Run("miss calls provider and stores result", func(t *testing.T) {
		next, cache, m, provider := setup(t)
		cache.On("LookupCoordinates", ctx, "google", "toronto, canada").Return(nil, repository.ErrCacheMiss).Once()
		next.On("Geocode", ctx, "Toronto, Canada").Return(&toronto, nil).Once()
		cache.On("SaveCoordinates", ctx, "google", "toronto, canada", toronto).Return(nil).Once()

		coords, err := provider.Geocode(ctx, "Toronto, Canada")

		require.NoError(t, err)
		assert.Equal(t, toronto, *coords)
		assert.InDelta(t, 1, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")), 0)
	})

	t.Run("provider failure is not cached", func(t *testing.T) {
		next, cache, _, provider := setup(t)
		cache.On("LookupCoordinates", ctx, "google", "atlantis").Return(nil, repository.ErrCacheMiss).Once()
		next.On("Geocode", ctx, "Atlantis").Return(nil, geocoding.ErrEmptyResponse).Once()

		coords, err := provider.Geocode(ctx, "Atlantis")

		require.ErrorIs(t, err, geocoding.ErrNoResults)
		assert.Nil(t, coords)
		cache.AssertNotCalled(t, "SaveCoordinates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache errors do not fail the lookup", func(t *testing.T) {
		next, cache, m, provider := setup(t)
		cache.On("LookupCoordinates", ctx, "google", "toronto, canada").Return(nil, assert.AnError).Once()
		next.On("Geocode", ctx, "Toronto, Canada").Return(&toronto, nil).Once()
		cache.On("SaveCoordinates", ctx, "google", "toronto, canada", toronto).Return(assert.AnError).Once()

		coords, err := provider.Geocode(ctx, "Toronto, Canada")

		require.NoError(t, err)
		assert.Equal(t, toronto, *coords)
		assert.InDelta(t, 1, testutil.ToFloat64(m.CacheLookups.WithLabelValues("error")), 0)
	})
}

func TestCachedProvider_Resolve(t *testing.T) {
	ctx := t.Context()
	toronto := models.Coordinates{Latitude: 43.6532, Longitude: -79.3832}

	t.Run("shortened match is cached under the matched address only", func(t *testing.T) {
		var queries []string
		client := fakeNominatim(map[string]string{
			"Toronto, Canada": `[{"lat":"43.6532","lon":"-79.3832"}]`,
		}, &queries)
		next := geocoding.NewNominatimProviderWithClient(client, slog.Default())

		cache := mocks.NewInterface(t)
		cache.On("LookupCoordinates", ctx, "nominatim", "1 nowhere ln, toronto, canada").
			Return(nil, repository.ErrCacheMiss).Once()
		cache.On("SaveCoordinates", ctx, "nominatim", "toronto, canada", toronto).Return(nil).Once()

		provider := geocoding.NewCachedProvider(next, cache, metrics.NewMetrics(prometheus.NewRegistry()), slog.Default())
		res, err := provider.Resolve(ctx, "1 Nowhere Ln, Toronto, Canada")

		require.NoError(t, err)
		assert.Equal(t, "Toronto, Canada", res.Address)
		assert.Equal(t, toronto, res.Coords)
		cache.AssertNotCalled(t, "SaveCoordinates", ctx, "nominatim", "1 nowhere ln, toronto, canada", mock.Anything)
	})

	t.Run("hit reports the requested address", func(t *testing.T) {
		next := mocks.NewProvider(t)
		next.On("Name").Return("nominatim").Maybe()
		cache := mocks.NewInterface(t)
		cache.On("LookupCoordinates", ctx, "nominatim", "toronto, canada").Return(&toronto, nil).Once()

		provider := geocoding.NewCachedProvider(next, cache, metrics.NewMetrics(prometheus.NewRegistry()), slog.Default())
		res, err := provider.Resolve(ctx, "Toronto, Canada")

		require.NoError(t, err)
		assert.Equal(t, "Toronto, Canada", res.Address)
		assert.Equal(t, toronto, res.Coords)
	})

	t.Run("plain provider is resolved exactly", func(t *testing.T) {
		next := mocks.NewProvider(t)
		next.On("Name").Return("google").Maybe()
		next.On("Geocode", ctx, "Toronto, Canada").Return(&toronto, nil).Once()
		cache := mocks.NewInterface(t)
		cache.On("LookupCoordinates", ctx, "google", "toronto, canada").Return(nil, repository.ErrCacheMiss).Once()
		cache.On("SaveCoordinates", ctx, "google", "toronto, canada", toronto).Return(nil).Once()

		provider := geocoding.NewCachedProvider(next, cache, metrics.NewMetrics(prometheus.NewRegistry()), slog.Default())
		res, err := provider.Resolve(ctx, "Toronto, Canada")

		require.NoError(t, err)
		assert.Equal(t, "Toronto, Canada", res.Address)
	})
}
