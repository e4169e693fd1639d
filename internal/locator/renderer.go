package locator

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/UnknownOlympus/helios/internal/models"
)

const (
	// StaticMapBaseURL is the Google Static Maps endpoint.
	StaticMapBaseURL = "https://maps.googleapis.com/maps/api/staticmap"
	// DefaultMapSize is the static map image size in pixels.
	DefaultMapSize = "640x400"
)

// Renderer displays a map view. Implementations are presentational only.
type Renderer interface {
	Render(ctx context.Context, view models.MapView) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, view models.MapView) error

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, view models.MapView) error {
	return f(ctx, view)
}

// Chain renders each view with every renderer in order. All renderers run even if one fails.
func Chain(renderers ...Renderer) Renderer {
	return RendererFunc(func(ctx context.Context, view models.MapView) error {
		var errs []error
		for _, r := range renderers {
			if err := r.Render(ctx, view); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// NopRenderer discards every view.
type NopRenderer struct{}

// Render implements Renderer.
func (NopRenderer) Render(context.Context, models.MapView) error { return nil }

// LogRenderer writes every view to a logger.
type LogRenderer struct {
	Log *slog.Logger
}

// Render implements Renderer.
func (r LogRenderer) Render(ctx context.Context, view models.MapView) error {
	r.Log.DebugContext(ctx, "Map view updated",
		"lat", view.Center.Latitude,
		"lng", view.Center.Longitude,
		"zoom", view.Zoom)

	return nil
}

// StaticMapRenderer turns views into Google Static Maps image URLs and keeps the latest one.
type StaticMapRenderer struct {
	apiKey string
	size   string

	mu  sync.RWMutex
	url string
}

// NewStaticMapRenderer creates a renderer signing URLs with the map API key.
func NewStaticMapRenderer(apiKey string) *StaticMapRenderer {
	return &StaticMapRenderer{apiKey: apiKey, size: DefaultMapSize}
}

// Render implements Renderer.
func (r *StaticMapRenderer) Render(_ context.Context, view models.MapView) error {
	u := StaticMapURL(view, r.size, r.apiKey)

	r.mu.Lock()
	r.url = u
	r.mu.Unlock()

	return nil
}

// URL returns the image URL of the last rendered view, or "" before the first render.
func (r *StaticMapRenderer) URL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.url
}

// StaticMapURL builds a static map image URL for the view. An empty key is omitted.
func StaticMapURL(view models.MapView, size, apiKey string) string {
	params := url.Values{}
	params.Set("center", view.Center.String())
	params.Set("zoom", strconv.Itoa(view.Zoom))
	params.Set("size", size)
	if view.Marker != nil {
		params.Set("markers", view.Marker.String())
	}
	if apiKey != "" {
		params.Set("key", apiKey)
	}

	return StaticMapBaseURL + "?" + params.Encode()
}
