package models

import (
	"net/url"
	"strings"
)

// Direction is the compass direction a unit faces.
type Direction string

const (
	DirectionNorth Direction = "N"
	DirectionSouth Direction = "S"
	DirectionEast  Direction = "E"
	DirectionWest  Direction = "W"
)

// AddressFragments holds the free-text address fields of the light score form.
// JSON tags use the external snake_case names; validate tags hold the submit-time rules.
type AddressFragments struct {
	Country      string    `json:"country"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postal_code"   validate:"required"`
	StreetName   string    `json:"street_name"   validate:"required"`
	StreetNumber string    `json:"street_number" validate:"required"`
	Floor        string    `json:"floor"         validate:"omitempty,numeric"`
	Direction    Direction `json:"direction"     validate:"omitempty,oneof=N S E W"`
	StartDate    string    `json:"start_date"    validate:"omitempty,datetime=2006-01-02"`
	EndDate      string    `json:"end_date"      validate:"omitempty,datetime=2006-01-02"`
}

// LocatorFields is the subset of fragments that drives the map view.
type LocatorFields struct {
	Country      string
	City         string
	StreetName   string
	StreetNumber string
}

// Locator returns the trimmed fields that affect geocoding.
func (a AddressFragments) Locator() LocatorFields {
	return LocatorFields{
		Country:      strings.TrimSpace(a.Country),
		City:         strings.TrimSpace(a.City),
		StreetName:   strings.TrimSpace(a.StreetName),
		StreetNumber: strings.TrimSpace(a.StreetNumber),
	}
}

// QueryParams returns the non-empty fields keyed by their external names.
func (a AddressFragments) QueryParams() url.Values {
	params := url.Values{}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			params.Set(key, value)
		}
	}

	set("country", a.Country)
	set("city", a.City)
	set("postal_code", a.PostalCode)
	set("street_name", a.StreetName)
	set("street_number", a.StreetNumber)
	set("floor", a.Floor)
	set("direction", string(a.Direction))
	set("start_date", a.StartDate)
	set("end_date", a.EndDate)

	return params
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (a AddressFragments) Trimmed() AddressFragments {
	return AddressFragments{
		Country:      strings.TrimSpace(a.Country),
		City:         strings.TrimSpace(a.City),
		PostalCode:   strings.TrimSpace(a.PostalCode),
		StreetName:   strings.TrimSpace(a.StreetName),
		StreetNumber: strings.TrimSpace(a.StreetNumber),
		Floor:        strings.TrimSpace(a.Floor),
		Direction:    Direction(strings.ToUpper(strings.TrimSpace(string(a.Direction)))),
		StartDate:    strings.TrimSpace(a.StartDate),
		EndDate:      strings.TrimSpace(a.EndDate),
	}
}
