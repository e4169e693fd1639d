package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Score label thresholds, checked from the top down.
var scoreLabels = []struct {
	min   float64
	label string
}{
	{80, "Excellent Light"},
	{60, "Good Light"},
	{40, "Moderate Light"},
	{20, "Low Light"},
}

// ScoreResult is the light score returned by the scoring backend for one submission.
// The backend schema was never unified, so every field except the score is optional.
type ScoreResult struct {
	LightScore  float64       `json:"light_score"`
	Coordinates *Coordinates  `json:"coordinates,omitempty"`
	Details     *ScoreDetails `json:"details,omitempty"`
}

// ScoreDetails is the union of the detail shapes observed from the backend.
type ScoreDetails struct {
	Floor       *int         `json:"floor,omitempty"`
	Direction   string       `json:"direction,omitempty"`
	SunPosition *SunPosition `json:"sun_position,omitempty"`
	BaseScore   *float64     `json:"base_score,omitempty"`
	FloorBonus  *float64     `json:"floor_bonus,omitempty"`
}

// SunPosition is the solar elevation and azimuth in degrees.
type SunPosition struct {
	Elevation float64 `json:"elevation"`
	Azimuth   float64 `json:"azimuth"`
}

// UnmarshalJSON accepts both the nested "coordinates" object and the older
// top-level "lat"/"lng" pair. Only the score is required: coordinates or details
// that do not decode are dropped rather than failing the result.
func (s *ScoreResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		LightScore  *float64        `json:"light_score"`
		Coordinates json.RawMessage `json:"coordinates"`
		Details     json.RawMessage `json:"details"`
		Lat         *float64        `json:"lat"`
		Lng         *float64        `json:"lng"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.LightScore == nil {
		return fmt.Errorf("light score response is missing %q", "light_score")
	}

	*s = ScoreResult{LightScore: *raw.LightScore}

	var coords Coordinates
	if present(raw.Coordinates) && json.Unmarshal(raw.Coordinates, &coords) == nil {
		s.Coordinates = &coords
	} else if raw.Lat != nil && raw.Lng != nil {
		s.Coordinates = &Coordinates{Latitude: *raw.Lat, Longitude: *raw.Lng}
	}

	var details ScoreDetails
	if present(raw.Details) && json.Unmarshal(raw.Details, &details) == nil {
		s.Details = &details
	}

	return nil
}

// UnmarshalJSON decodes each detail on its own. Numbers may arrive as JSON numbers or
// numeric strings; values of any other shape are skipped.
func (d *ScoreDetails) UnmarshalJSON(data []byte) error {
	var raw struct {
		Floor       json.RawMessage `json:"floor"`
		Direction   json.RawMessage `json:"direction"`
		SunPosition json.RawMessage `json:"sun_position"`
		BaseScore   json.RawMessage `json:"base_score"`
		FloorBonus  json.RawMessage `json:"floor_bonus"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = ScoreDetails{}

	if f, ok := looseNumber(raw.Floor); ok && f == math.Trunc(f) {
		floor := int(f)
		d.Floor = &floor
	}
	if present(raw.Direction) {
		_ = json.Unmarshal(raw.Direction, &d.Direction)
	}

	var sun SunPosition
	if present(raw.SunPosition) && json.Unmarshal(raw.SunPosition, &sun) == nil {
		d.SunPosition = &sun
	}

	if f, ok := looseNumber(raw.BaseScore); ok {
		d.BaseScore = &f
	}
	if f, ok := looseNumber(raw.FloorBonus); ok {
		d.FloorBonus = &f
	}

	return nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// looseNumber reads a JSON number or a string holding one.
func looseNumber(raw json.RawMessage) (float64, bool) {
	if !present(raw) {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// Label returns the human readable rating for the score.
func (s ScoreResult) Label() string {
	for _, l := range scoreLabels {
		if s.LightScore >= l.min {
			return l.label
		}
	}

	return "Poor Light"
}

// Progress returns the score clamped to 0..100 for progress indicators.
func (s ScoreResult) Progress() float64 {
	return min(max(s.LightScore, 0), 100)
}
