package applications

import (
	"github.com/BennettSmith/insurance-intake-api/internal/domain"
)

// Fields is one record as sent by the client. Values are loosely typed:
// numbers may arrive as JSON numbers or strings.
type Fields map[string]any

// Payload is a full-replace update of an application.
// A nil Member or Address leaves that record as is. Vehicles and
// AdditionalMembers always replace the stored sets; nil means none.
type Payload struct {
	Member            Fields
	Address           Fields
	Vehicles          []Fields
	AdditionalMembers []Fields
}

// IsEmpty reports whether the payload carries no records at all.
func (p Payload) IsEmpty() bool {
	return p.Member == nil && p.Address == nil && len(p.Vehicles) == 0 && len(p.AdditionalMembers) == 0
}

// Request body keys used by the draft and submit endpoints.
const (
	KeyUserData              = "userData"
	KeyAddressData           = "addressData"
	KeyVehiclesData          = "vehiclesData"
	KeyAdditionalMembersData = "additionalMembersData"
)

// Request body keys used by the create endpoint.
const (
	KeyMember            = "member"
	KeyAddress           = "address"
	KeyVehicles          = "vehicles"
	KeyAdditionalMembers = "additionalMembers"
)

// DraftPayload decodes a draft/submit request body. Shape problems (a list
// that is not an array, a record that is not an object) are returned as field errors.
func DraftPayload(body map[string]any) (Payload, []FieldError) {
	return payloadFrom(body, KeyUserData, KeyAddressData, KeyVehiclesData, KeyAdditionalMembersData)
}

// CreatePayload decodes the optional nested records of a create request.
func CreatePayload(body map[string]any) (Payload, []FieldError) {
	return payloadFrom(body, KeyMember, KeyAddress, KeyVehicles, KeyAdditionalMembers)
}

func payloadFrom(body map[string]any, memberKey, addressKey, vehiclesKey, additionalKey string) (Payload, []FieldError) {
	var (
		p    Payload
		errs []FieldError
	)
	p.Member, errs = object(body, memberKey, "Member data must be an object", errs)
	p.Address, errs = object(body, addressKey, "Address data must be an object", errs)
	p.Vehicles, errs = list(body, vehiclesKey, "Vehicles must be an array", errs)
	p.AdditionalMembers, errs = list(body, additionalKey, "Additional members must be an array", errs)
	return p, errs
}

func object(body map[string]any, key, msg string, errs []FieldError) (Fields, []FieldError) {
	raw, ok := body[key]
	if !ok || raw == nil {
		return nil, errs
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, append(errs, FieldError{Field: key, Message: msg})
	}
	return Fields(m), errs
}

func list(body map[string]any, key, msg string, errs []FieldError) ([]Fields, []FieldError) {
	raw, ok := body[key]
	if !ok || raw == nil {
		return nil, errs
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, append(errs, FieldError{Field: key, Message: msg})
	}
	out := make([]Fields, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			errs = append(errs, FieldError{Field: indexed(key, i), Message: "Each entry must be an object"})
			continue
		}
		out = append(out, Fields(m))
	}
	return out, errs
}

// CreateResult is returned when a new application is started.
type CreateResult struct {
	Message     string
	Application domain.Application
	ResumeRoute string
}

// SubmitResult is returned for a successfully submitted application.
type SubmitResult struct {
	Message     string
	Application domain.Application
	QuoteNumber float64
}
