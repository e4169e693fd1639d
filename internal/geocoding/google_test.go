package geocoding_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/helios/internal/geocoding"
	"github.com/UnknownOlympus/helios/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func TestGeocode(t *testing.T) {
	mockClient := mocks.NewGoogleAPIClient(t)
	provider := geocoding.NewGoogleProvider(mockClient, slog.Default())
	ctx := t.Context()

	t.Run("api returns error", func(t *testing.T) {
		address := "some invalid place"
		req := &maps.GeocodingRequest{Address: address}

		mockClient.On("Geocode", ctx, req).Return(nil, assert.AnError).Once()

		_, err := provider.Geocode(ctx, address)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		mockClient.AssertExpectations(t)
	})

	t.Run("api return empty response", func(t *testing.T) {
		address := "some invalid place"
		req := &maps.GeocodingRequest{Address: address}

		mockClient.On("Geocode", ctx, req).Return(nil, nil).Once()

		coords, err := provider.Geocode(ctx, address)

		require.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrEmptyResponse)
		require.ErrorIs(t, err, geocoding.ErrNoResults)
		mockClient.AssertExpectations(t)
	})

	t.Run("successful geocoding", func(t *testing.T) {
		address := "100 Queen St, Toronto, Canada"
		req := &maps.GeocodingRequest{Address: address}
		mockResponse := []maps.GeocodingResult{
			{Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: 43.65, Lng: -79.38}}},
		}

		mockClient.On("Geocode", ctx, req).Return(mockResponse, nil).Once()

		coords, err := provider.Geocode(ctx, address)

		require.NoError(t, err)
		require.NotNil(t, coords)
		require.InEpsilon(t, 43.65, coords.Latitude, 0.01)
		require.InEpsilon(t, -79.38, coords.Longitude, 0.01)
		mockClient.AssertExpectations(t)
	})

	t.Run("name", func(t *testing.T) {
		assert.Equal(t, "google", provider.Name())
	})
}
