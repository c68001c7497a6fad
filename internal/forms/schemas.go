package forms

import (
	"time"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
)

// Entity names the kind of record a schema applies to.
type Entity string

const (
	EntityUser             Entity = "user"
	EntityAddress          Entity = "address"
	EntityVehicle          Entity = "vehicle"
	EntityAdditionalMember Entity = "additionalMember"
)

// Field binds a field name to its validators.
type Field struct {
	Name       string
	Validators []Validator
}

// Schema is an ordered list of field rules. Fields are validated in this order.
type Schema []Field

// Errors maps field name to its first failing message.
type Errors map[string]string

// Schemas returns the strict schemas used before moving to the next wizard step.
func Schemas(today time.Time) map[Entity]Schema {
	return map[Entity]Schema{
		EntityUser: {
			{Name: "firstName", Validators: []Validator{Require()}},
			{Name: "lastName", Validators: []Validator{Require()}},
			{Name: "dateOfBirth", Validators: []Validator{Require(), MinAge(domain.MinimumAge)}},
		},
		EntityAddress: {
			{Name: "street", Validators: []Validator{Require()}},
			{Name: "city", Validators: []Validator{Require()}},
			{Name: "state", Validators: []Validator{Require()}},
			{Name: "zipCode", Validators: []Validator{Require(), Numeric()}},
		},
		EntityVehicle: {
			{Name: "vin", Validators: []Validator{Require()}},
			{Name: "year", Validators: []Validator{Require(), Numeric(), Min(domain.MinVehicleYear), Max(float64(today.Year()))}},
			{Name: "make", Validators: []Validator{Require()}},
			{Name: "model", Validators: []Validator{Require()}},
		},
		EntityAdditionalMember: {
			{Name: "firstName", Validators: []Validator{Require()}},
			{Name: "lastName", Validators: []Validator{Require()}},
			{Name: "dateOfBirth", Validators: []Validator{Require(), MinAge(domain.MinimumAge)}},
			{Name: "relationship", Validators: []Validator{Require()}},
		},
	}
}

// SaveSchemas returns the lenient schemas applied when saving a draft.
func SaveSchemas(today time.Time) map[Entity]Schema {
	return map[Entity]Schema{
		EntityUser: {
			{Name: "dateOfBirth", Validators: []Validator{MinAge(domain.MinimumAge)}},
		},
		EntityAddress: {
			{Name: "zipCode", Validators: []Validator{Numeric()}},
		},
		EntityVehicle: {
			{Name: "year", Validators: []Validator{Min(domain.MinVehicleYear), Max(float64(today.Year()))}},
		},
		EntityAdditionalMember: {
			{Name: "dateOfBirth", Validators: []Validator{MinAge(domain.MinimumAge)}},
		},
	}
}

// ValidateForm checks data against the strict schema for entity.
func ValidateForm(data map[string]any, entity Entity) (bool, Errors) {
	return ValidateFormAt(time.Now(), data, entity)
}

func ValidateFormAt(today time.Time, data map[string]any, entity Entity) (bool, Errors) {
	return apply(today, Schemas(today)[entity], data)
}

// ValidateSaveForm checks data against the lenient draft-save schema for entity.
func ValidateSaveForm(data map[string]any, entity Entity) (bool, Errors) {
	return ValidateSaveFormAt(time.Now(), data, entity)
}

func ValidateSaveFormAt(today time.Time, data map[string]any, entity Entity) (bool, Errors) {
	return apply(today, SaveSchemas(today)[entity], data)
}

func apply(today time.Time, schema Schema, data map[string]any) (bool, Errors) {
	errs := Errors{}
	for _, f := range schema {
		var value any
		if data != nil {
			value = data[f.Name]
		}
		if msg := ValidateAt(today, value, f.Validators); msg != "" {
			errs[f.Name] = msg
		}
	}
	return len(errs) == 0, errs
}
