package main

import (
	"github.com/UnknownOlympus/helios/internal/models"
	"github.com/spf13/pflag"
)

// addressFlags binds the address form fields to command line flags.
type addressFlags struct {
	fragments models.AddressFragments
	direction string
}

func (a *addressFlags) register(flags *pflag.FlagSet, full bool) {
	flags.StringVar(&a.fragments.Country, "country", "", "Country")
	flags.StringVar(&a.fragments.City, "city", "", "City")
	flags.StringVar(&a.fragments.StreetName, "street-name", "", "Street name")
	flags.StringVar(&a.fragments.StreetNumber, "street-number", "", "Street number")
	if !full {
		return
	}
	flags.StringVar(&a.fragments.PostalCode, "postal-code", "", "Postal code")
	flags.StringVar(&a.fragments.Floor, "floor", "", "Floor number")
	flags.StringVar(&a.direction, "direction", "", "Facing direction: N, S, E or W")
	flags.StringVar(&a.fragments.StartDate, "start-date", "", "Start date (YYYY-MM-DD)")
	flags.StringVar(&a.fragments.EndDate, "end-date", "", "End date (YYYY-MM-DD)")
}

func (a *addressFlags) value() models.AddressFragments {
	f := a.fragments
	f.Direction = models.Direction(a.direction)

	return f
}
