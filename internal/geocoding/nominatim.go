package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/helios/internal/models"
)

const (
	// NominatimBaseURL is the public OpenStreetMap search endpoint.
	NominatimBaseURL = "https://nominatim.openstreetmap.org/search"

	// User-Agent MUST include valid contact info per Nominatim usage policy:
	// https://operations.osmfoundation.org/policies/nominatim/
	nominatimUserAgent = "Helios-Light-Score/1.0 (https://github.com/UnknownOlympus/helios)"
)

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	client    HTTPClient   // HTTP client for making requests
	baseURL   string       // Base URL for the Nominatim API
	log       *slog.Logger // Logger for logging operations
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// nominatimResponse represents the JSON response from Nominatim API.
type nominatimResponse struct {
	Lat string `json:"lat"` // Latitude as string
	Lon string `json:"lon"` // Longitude as string
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = fmt.Errorf("nominatim API returned empty response: %w", ErrNoResults)
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

// NewNominatimProvider creates a new Nominatim geocoding provider.
// Uses the public Nominatim API endpoint by default.
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	const timeout = 10
	return NewNominatimProviderWithClient(&http.Client{Timeout: timeout * time.Second}, log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:    client,
		baseURL:   NominatimBaseURL,
		log:       log,
		userAgent: nominatimUserAgent,
	}
}

// Name implements Provider.
func (np *NominatimProvider) Name() string {
	return string(ProviderTypeNominatim)
}

// Geocode converts an address to geographic coordinates using the Nominatim API.
// Only the exact address is queried; see Resolve for the fallback behaviour.
//
// Note: Nominatim has a rate limit of 1 request/second for fair use.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	return np.geocodeSingleAddress(ctx, address)
}

// Resolve geocodes address and reports which form of it matched.
//
// Composite addresses are ordered from the most specific component to the least
// specific one ("100 Queen St, Toronto, Canada"). When the full address has no match,
// leading components are dropped one at a time until something resolves:
// 1. "100 Queen St, Toronto, Canada"
// 2. "Toronto, Canada"
// 3. "Canada"
func (np *NominatimProvider) Resolve(ctx context.Context, address string) (*Resolution, error) {
	np.log.DebugContext(ctx, "Resolving using Nominatim", "address", address)

	variations := addressFallbacks(address)

	for idx, variation := range variations {
		coords, err := np.geocodeSingleAddress(ctx, variation)
		if err == nil {
			if idx > 0 {
				np.log.InfoContext(ctx, "Geocoded using fallback address",
					"original", address,
					"fallback", variation,
					"fallback_level", idx)
			}
			return &Resolution{Coords: *coords, Address: variation}, nil
		}

		// Anything but an empty result is final.
		if !errors.Is(err, ErrNominatimEmptyResponse) {
			return nil, err
		}

		np.log.DebugContext(ctx, "Address variation returned no results, trying fallback",
			"variation", variation,
			"fallback_level", idx)
	}

	np.log.WarnContext(ctx, "All address fallbacks exhausted",
		"address", address,
		"variations_tried", len(variations))

	return nil, ErrNominatimEmptyResponse
}

// addressFallbacks returns the address followed by progressively shorter suffixes
// of its comma separated components.
func addressFallbacks(address string) []string {
	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	seen := make(map[string]bool)
	variations := make([]string, 0, len(parts))
	for i := range parts {
		v := strings.Join(parts[i:], ", ")
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		variations = append(variations, v)
	}

	if len(variations) == 0 {
		return []string{""}
	}

	return variations
}

// geocodeSingleAddress performs a single geocoding request without fallback logic.
func (np *NominatimProvider) geocodeSingleAddress(ctx context.Context, address string) (*models.Coordinates, error) {
	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	reqURL.RawQuery = query.Encode()

	np.log.DebugContext(ctx, "Nominatim request URL", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, results[0].Lon)
	}

	return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
