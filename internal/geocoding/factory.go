package geocoding

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/helios/internal/metrics"
	"github.com/UnknownOlympus/helios/internal/repository"
	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeGoogle represents Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim represents OpenStreetMap Nominatim geocoding provider.
	ProviderTypeNominatim ProviderType = "nominatim"
	// ProviderTypeVisicom represents Visicom Maps geocoding provider.
	ProviderTypeVisicom ProviderType = "visicom"
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type      ProviderType         // Type of provider to create
	APIKey    string               // API key (the map API key for Google, the Visicom key otherwise)
	RateLimit int                  // Requests per second (Google and Visicom)
	Logger    *slog.Logger         // Logger for the provider
	Cache     repository.Interface // Optional geocode cache; nil disables caching
	Metrics   *metrics.Metrics     // Required when Cache is set
}

// NewProvider creates a geocoding provider based on the provided configuration.
//
// Supported provider types:
// - "google": Google Maps Geocoding API (requires API key)
// - "nominatim": OpenStreetMap Nominatim API (free, no API key required)
// - "visicom": Visicom Data API (requires API key)
//
// When a cache is configured the provider is wrapped in a CachedProvider.
func NewProvider(config ProviderConfig) (Provider, error) {
	var (
		provider Provider
		err      error
	)

	switch config.Type {
	case ProviderTypeGoogle:
		provider, err = newGoogleProvider(config)
	case ProviderTypeNominatim:
		provider = NewNominatimProvider(config.Logger)
	case ProviderTypeVisicom:
		provider, err = newVisicomProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.Cache != nil {
		if config.Metrics == nil {
			return nil, errors.New("metrics are required for a cached provider")
		}
		provider = NewCachedProvider(provider, config.Cache, config.Metrics, config.Logger)
	}

	return provider, nil
}

// newGoogleProvider creates a Google Maps geocoding provider.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}

// newVisicomProvider creates a Visicom geocoding provider.
func newVisicomProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Visicom provider")
	}

	if config.RateLimit == 0 {
		config.RateLimit = 5
		config.Logger.Warn("Rate limit for Visicom API not set, set a default value", "value", config.RateLimit)
	}

	return NewVisicomProvider(config.APIKey, config.RateLimit, config.Logger), nil
}
