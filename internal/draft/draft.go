// Package draft persists an in-progress application between wizard runs.
//
// Each entity is stored under a fixed key as a JSON document, so a draft can be
// partially written and reloaded field by field.
package draft

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Keys under which the draft entities are stored.
const (
	KeyUser              = "userData"
	KeyAddress           = "addressData"
	KeyVehicles          = "vehiclesData"
	KeyAdditionalMembers = "additionalMembersData"
	KeyStep              = "step"
)

// Keys lists every key the store writes.
var Keys = []string{KeyUser, KeyAddress, KeyVehicles, KeyAdditionalMembers, KeyStep}

// Numeric holds a form value that is sent as a number once it parses as one.
// Blank values encode as null; anything else that is not an integer is kept
// as a string so a half-typed value survives a reload.
type Numeric string

func (n Numeric) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.Atoi(s); err == nil {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	default:
		var f json.Number
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*n = Numeric(f.String())
		return nil
	}
}

// Value is the field value handed to validators and the API: nil when blank.
func (n Numeric) Value() any {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return nil
	}
	return s
}

type User struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
}

func (u User) Fields() map[string]any {
	return map[string]any{
		"firstName":   u.FirstName,
		"lastName":    u.LastName,
		"dateOfBirth": u.DateOfBirth,
	}
}

func (u User) IsZero() bool { return u == User{} }

type Address struct {
	Street  string  `json:"street"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	ZipCode Numeric `json:"zipCode"`
}

func (a Address) Fields() map[string]any {
	return map[string]any{
		"street":  a.Street,
		"city":    a.City,
		"state":   a.State,
		"zipCode": a.ZipCode.Value(),
	}
}

func (a Address) IsZero() bool { return a == Address{} }

type Vehicle struct {
	VIN   string  `json:"vin"`
	Year  Numeric `json:"year"`
	Make  string  `json:"make"`
	Model string  `json:"model"`
}

func (v Vehicle) Fields() map[string]any {
	return map[string]any{
		"vin":   v.VIN,
		"year":  v.Year.Value(),
		"make":  v.Make,
		"model": v.Model,
	}
}

type AdditionalMember struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DateOfBirth  string `json:"dateOfBirth"`
	Relationship string `json:"relationship"`
}

func (m AdditionalMember) Fields() map[string]any {
	return map[string]any{
		"firstName":    m.FirstName,
		"lastName":     m.LastName,
		"dateOfBirth":  m.DateOfBirth,
		"relationship": m.Relationship,
	}
}

// Draft is the whole locally held application.
type Draft struct {
	User              User
	Address           Address
	Vehicles          []Vehicle
	AdditionalMembers []AdditionalMember
	Step              int
}

// Default is the draft used when nothing has been stored yet: one blank
// vehicle row and no additional members.
func Default() Draft {
	return Draft{
		Vehicles:          []Vehicle{{}},
		AdditionalMembers: []AdditionalMember{},
	}
}

// VehicleFields returns one field map per vehicle row.
func (d Draft) VehicleFields() []map[string]any {
	out := make([]map[string]any, 0, len(d.Vehicles))
	for _, v := range d.Vehicles {
		out = append(out, v.Fields())
	}
	return out
}

// AdditionalMemberFields returns one field map per additional member row.
func (d Draft) AdditionalMemberFields() []map[string]any {
	out := make([]map[string]any, 0, len(d.AdditionalMembers))
	for _, m := range d.AdditionalMembers {
		out = append(out, m.Fields())
	}
	return out
}
