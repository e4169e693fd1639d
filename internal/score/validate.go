package score

import (
	"errors"
	"fmt"
	"strings"

	"github.com/UnknownOlympus/helios/internal/models"
	"github.com/go-playground/validator/v10"
)

// fieldNames maps struct fields to the names used in messages and query parameters.
var fieldNames = map[string]string{
	"Country":      "country",
	"City":         "city",
	"PostalCode":   "postal_code",
	"StreetName":   "street_name",
	"StreetNumber": "street_number",
	"Floor":        "floor",
	"Direction":    "direction",
	"StartDate":    "start_date",
	"EndDate":      "end_date",
}

// Validator checks fragments before a submission.
type Validator struct {
	v                  *validator.Validate
	optionalPostalCode bool
}

// NewValidator creates a Validator. Postal code is required unless optionalPostalCode is set.
func NewValidator(optionalPostalCode bool) *Validator {
	return &Validator{v: validator.New(), optionalPostalCode: optionalPostalCode}
}

// Validate returns a KindValidation *Error naming every missing or malformed field.
func (val *Validator) Validate(fragments models.AddressFragments) error {
	fragments = fragments.Trimmed()

	var err error
	if val.optionalPostalCode {
		err = val.v.StructExcept(fragments, "PostalCode")
	} else {
		err = val.v.Struct(fragments)
	}
	if err == nil {
		if fragments.StartDate != "" && fragments.EndDate != "" && fragments.EndDate < fragments.StartDate {
			return &Error{
				Kind:    KindValidation,
				Message: "End date must not be before start date.",
				Fields:  []string{"end_date"},
			}
		}
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate address: %w", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		name := fieldNames[fe.StructField()]
		if fe.Tag() == "required" {
			missing = append(missing, name)
		} else {
			invalid = append(invalid, name)
		}
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(invalid, ", "))
	}

	return &Error{
		Kind:    KindValidation,
		Message: "Please complete the address: " + strings.Join(parts, "; ") + ".",
		Fields:  append(missing, invalid...),
	}
}
