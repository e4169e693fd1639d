package locator

import (
	"strings"

	"github.com/UnknownOlympus/helios/internal/models"
)

// Tier is a level of address specificity. Each tier maps to a fixed map zoom.
type Tier int

const (
	TierNone Tier = iota
	TierCountry
	TierCity
	TierStreet
	TierStreetNumber
)

var tierZoom = map[Tier]int{
	TierCountry:      4,
	TierCity:         10,
	TierStreet:       14,
	TierStreetNumber: 16,
}

// Zoom returns the map zoom level for the tier, or 0 for TierNone.
func (t Tier) Zoom() int {
	return tierZoom[t]
}

func (t Tier) String() string {
	switch t {
	case TierCountry:
		return "country"
	case TierCity:
		return "city"
	case TierStreet:
		return "street"
	case TierStreetNumber:
		return "street_number"
	default:
		return "none"
	}
}

// BuildQuery returns the most specific composite address available and its tier.
// A tier only applies when all of its fields and every less specific field are set,
// so a street name without a city yields the country tier at best.
func BuildQuery(fragments models.AddressFragments) (string, Tier) {
	f := fragments.Locator()

	for tier := TierStreetNumber; tier > TierNone; tier-- {
		if query := queryAt(f, tier); query != "" {
			return query, tier
		}
	}

	return "", TierNone
}

// tierOf finds the tier, no more specific than limit, whose query is address.
func tierOf(fragments models.AddressFragments, address string, limit Tier) (Tier, bool) {
	f := fragments.Locator()
	address = strings.TrimSpace(address)

	for tier := limit; tier > TierNone; tier-- {
		if query := queryAt(f, tier); query != "" && strings.EqualFold(query, address) {
			return tier, true
		}
	}

	return TierNone, false
}

// queryAt builds the query for exactly tier, or "" when a required field is missing.
func queryAt(f models.LocatorFields, tier Tier) string {
	if f.Country == "" {
		return ""
	}

	switch tier {
	case TierCountry:
		return f.Country
	case TierCity:
		if f.City == "" {
			return ""
		}
		return f.City + ", " + f.Country
	case TierStreet:
		if f.City == "" || f.StreetName == "" {
			return ""
		}
		return f.StreetName + ", " + f.City + ", " + f.Country
	case TierStreetNumber:
		if f.City == "" || f.StreetName == "" || f.StreetNumber == "" {
			return ""
		}
		return f.StreetNumber + " " + f.StreetName + ", " + f.City + ", " + f.Country
	default:
		return ""
	}
}
