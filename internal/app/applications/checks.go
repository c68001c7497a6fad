package applications

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
)

var relationshipMessage = "Relationship must be one of " + strings.Join(domain.RelationshipStrings(), ", ")

// draftChecks are the lenient checks applied when a draft is saved. Only values
// that are present and non-falsy are checked.
func draftChecks(today time.Time, p Payload) []FieldError {
	var c checker
	maxYear := today.Year() + 1

	if m := p.Member; m != nil {
		c.ageAtLeast(today, KeyUserData+".dateOfBirth", m["dateOfBirth"], "Primary member must be at least 16 years old", true)
	}
	if a := p.Address; a != nil {
		if v := a["zipCode"]; !falsy(v) && !domain.IsNumeric(v) {
			c.add(KeyAddressData+".zipCode", "Zip code must be numeric")
		}
	}
	for i, v := range p.Vehicles {
		year := v["year"]
		if falsy(year) {
			continue
		}
		field := indexed(KeyVehiclesData, i) + ".year"
		if !domain.IsNumeric(year) {
			c.add(field, "Vehicle year must be numeric")
			continue
		}
		c.yearInRange(field, year, maxYear)
	}
	for i, m := range p.AdditionalMembers {
		prefix := indexed(KeyAdditionalMembersData, i)
		c.ageAtLeast(today, prefix+".dateOfBirth", m["dateOfBirth"], "Each additional member must be at least 16 years old", true)
		if r := m["relationship"]; !falsy(r) {
			c.relationship(prefix+".relationship", r)
		}
	}
	return c.errs
}

// submitChecks are the strict checks applied before an application is submitted.
func submitChecks(today time.Time, p Payload) []FieldError {
	var c checker
	maxYear := today.Year() + 1

	m := p.Member
	c.required(KeyUserData+".firstName", m["firstName"], "First name of the primary member is required")
	c.required(KeyUserData+".lastName", m["lastName"], "Last name of the primary member is required")
	if c.required(KeyUserData+".dateOfBirth", m["dateOfBirth"], "Date of birth of the primary member is required") {
		c.ageAtLeast(today, KeyUserData+".dateOfBirth", m["dateOfBirth"], "Primary member must be at least 16 years old", false)
	}

	a := p.Address
	c.required(KeyAddressData+".street", a["street"], "Street is required")
	c.required(KeyAddressData+".city", a["city"], "City is required")
	c.required(KeyAddressData+".state", a["state"], "State is required")
	if c.required(KeyAddressData+".zipCode", a["zipCode"], "Zip code is required") && domain.ParseInt(a["zipCode"]) == nil {
		c.add(KeyAddressData+".zipCode", "Zip code must be numeric")
	}

	if n := len(p.Vehicles); n < domain.MinVehicles || n > domain.MaxVehicles {
		c.add(KeyVehiclesData, "Must have 1 to 3 vehicles")
	}
	for i, v := range p.Vehicles {
		prefix := indexed(KeyVehiclesData, i)
		c.required(prefix+".vin", v["vin"], "Each vehicle must have a VIN")
		if c.required(prefix+".year", v["year"], "Each vehicle must have a year") {
			c.yearInRange(prefix+".year", v["year"], maxYear)
		}
		c.required(prefix+".make", v["make"], "Each vehicle must have a make")
		c.required(prefix+".model", v["model"], "Each vehicle must have a model")
	}

	for i, am := range p.AdditionalMembers {
		prefix := indexed(KeyAdditionalMembersData, i)
		c.required(prefix+".firstName", am["firstName"], "Each additional member must have a first name")
		c.required(prefix+".lastName", am["lastName"], "Each additional member must have a last name")
		if c.required(prefix+".dateOfBirth", am["dateOfBirth"], "Each additional member must have a date of birth") {
			c.ageAtLeast(today, prefix+".dateOfBirth", am["dateOfBirth"], "Each additional member must be at least 16 years old", false)
		}
		if c.required(prefix+".relationship", am["relationship"], "Each additional member must have a relationship specified") {
			c.relationship(prefix+".relationship", am["relationship"])
		}
	}
	return c.errs
}

type checker struct {
	errs []FieldError
}

func (c *checker) add(field, msg string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: msg})
}

// required records msg when v is blank and reports whether v was present.
func (c *checker) required(field string, v any, msg string) bool {
	if blank(v) {
		c.add(field, msg)
		return false
	}
	return true
}

// ageAtLeast checks a date of birth. Lenient mode skips falsy and unparseable values.
func (c *checker) ageAtLeast(today time.Time, field string, v any, msg string, lenient bool) {
	if lenient && falsy(v) {
		return
	}
	s, _ := v.(string)
	dob := domain.ParseDate(s)
	if dob == nil {
		if !lenient {
			c.add(field, "Date of birth must be a valid date")
		}
		return
	}
	if domain.Age(today, *dob) < domain.MinimumAge {
		c.add(field, msg)
	}
}

func (c *checker) yearInRange(field string, v any, maxYear int) {
	y := domain.ParseInt(v)
	if y == nil || *y < domain.MinVehicleYear || *y > maxYear {
		c.add(field, fmt.Sprintf("Vehicle year must be between %d and %d", domain.MinVehicleYear, maxYear))
	}
}

func (c *checker) relationship(field string, v any) {
	s, _ := v.(string)
	if domain.ParseRelationship(s) == nil {
		c.add(field, relationshipMessage)
	}
}

// falsy mirrors the loose truthiness clients apply to optional fields.
func falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case float64:
		return x == 0
	case bool:
		return !x
	default:
		return false
	}
}

func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}

func indexed(key string, i int) string {
	return key + "[" + strconv.Itoa(i) + "]"
}
