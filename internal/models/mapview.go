package models

// Default map view shown before any address has been resolved.
const (
	DefaultLatitude  = 43.6532
	DefaultLongitude = -79.3832
	DefaultZoom      = 15
)

// MapView is the center and zoom level a map should display, with an optional marker.
type MapView struct {
	Center Coordinates  `json:"center"`
	Zoom   int          `json:"zoom"`
	Marker *Coordinates `json:"marker,omitempty"`
}

// DefaultMapView returns the view used until the first successful geocode.
func DefaultMapView() MapView {
	return MapView{
		Center: Coordinates{Latitude: DefaultLatitude, Longitude: DefaultLongitude},
		Zoom:   DefaultZoom,
	}
}
