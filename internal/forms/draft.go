package forms

import (
	"time"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
)

// VehicleCountMessage is reported when a submission carries too few or too many vehicles.
const VehicleCountMessage = "Must have 1 to 3 vehicles"

// Input is a whole application as entered in the wizard, one field map per record.
type Input struct {
	User              map[string]any
	Address           map[string]any
	Vehicles          []map[string]any
	AdditionalMembers []map[string]any
}

// DraftErrors collects per-record validation failures for a whole application.
// Vehicles and AdditionalMembers are index-aligned with the input rows.
type DraftErrors struct {
	User              Errors
	Address           Errors
	Vehicles          []Errors
	AdditionalMembers []Errors
	VehicleCount      string
}

// Valid reports whether no record produced an error.
func (e DraftErrors) Valid() bool {
	if len(e.User) > 0 || len(e.Address) > 0 || e.VehicleCount != "" {
		return false
	}
	for _, v := range e.Vehicles {
		if len(v) > 0 {
			return false
		}
	}
	for _, m := range e.AdditionalMembers {
		if len(m) > 0 {
			return false
		}
	}
	return true
}

// ValidateSubmission applies the strict schemas to every record and enforces the vehicle count.
func ValidateSubmission(today time.Time, in Input) DraftErrors {
	out := validateAll(today, Schemas(today), in)
	if n := len(in.Vehicles); n < domain.MinVehicles || n > domain.MaxVehicles {
		out.VehicleCount = VehicleCountMessage
	}
	return out
}

// ValidateDraft applies the lenient save schemas to every record.
func ValidateDraft(today time.Time, in Input) DraftErrors {
	return validateAll(today, SaveSchemas(today), in)
}

func validateAll(today time.Time, schemas map[Entity]Schema, in Input) DraftErrors {
	var out DraftErrors
	_, out.User = apply(today, schemas[EntityUser], in.User)
	_, out.Address = apply(today, schemas[EntityAddress], in.Address)
	out.Vehicles = make([]Errors, len(in.Vehicles))
	for i, v := range in.Vehicles {
		_, out.Vehicles[i] = apply(today, schemas[EntityVehicle], v)
	}
	out.AdditionalMembers = make([]Errors, len(in.AdditionalMembers))
	for i, m := range in.AdditionalMembers {
		_, out.AdditionalMembers[i] = apply(today, schemas[EntityAdditionalMember], m)
	}
	return out
}
