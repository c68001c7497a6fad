package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
)

type applicationDTO struct {
	ID                string                       `json:"id"`
	MemberID          nullable.Nullable[string]    `json:"memberId"`
	Status            string                       `json:"status"`
	QuoteNumber       nullable.Nullable[float64]   `json:"quoteNumber"`
	CreatedAt         time.Time                    `json:"createdAt"`
	UpdatedAt         time.Time                    `json:"updatedAt"`
	SubmittedAt       nullable.Nullable[time.Time] `json:"submittedAt"`
	Member            *memberDTO                   `json:"member"`
	Address           *addressDTO                  `json:"address"`
	Vehicles          []vehicleDTO                 `json:"vehicles"`
	AdditionalMembers []additionalMemberDTO        `json:"additionalMembers"`
}

type memberDTO struct {
	ID          string                                `json:"id"`
	FirstName   string                                `json:"firstName"`
	LastName    string                                `json:"lastName"`
	DateOfBirth nullable.Nullable[openapi_types.Date] `json:"dateOfBirth"`
}

type additionalMemberDTO struct {
	ID                      string                                `json:"id"`
	FirstName               string                                `json:"firstName"`
	LastName                string                                `json:"lastName"`
	DateOfBirth             nullable.Nullable[openapi_types.Date] `json:"dateOfBirth"`
	Relationship            nullable.Nullable[string]             `json:"relationship"`
	AdditionalApplicationID string                                `json:"additionalApplicationId"`
}

type addressDTO struct {
	ID            string                 `json:"id"`
	ApplicationID string                 `json:"applicationId"`
	Street        string                 `json:"street"`
	City          string                 `json:"city"`
	State         string                 `json:"state"`
	ZipCode       nullable.Nullable[int] `json:"zipCode"`
}

type vehicleDTO struct {
	ID            string                 `json:"id"`
	ApplicationID string                 `json:"applicationId"`
	VIN           string                 `json:"vin"`
	Year          nullable.Nullable[int] `json:"year"`
	Make          string                 `json:"make"`
	Model         string                 `json:"model"`
}

type createApplicationResponse struct {
	Message     string         `json:"message"`
	Application applicationDTO `json:"application"`
	ResumeRoute string         `json:"resumeRoute"`
}

type submitApplicationResponse struct {
	Message          string         `json:"message"`
	Application      applicationDTO `json:"application"`
	ValidationNumber float64        `json:"validationNumber"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func applicationFromDomain(a domain.Application) applicationDTO {
	out := applicationDTO{
		ID:                string(a.ID),
		MemberID:          nullableOf((*string)(a.MemberID)),
		Status:            string(a.Status),
		QuoteNumber:       nullableOf(a.QuoteNumber),
		CreatedAt:         a.CreatedAt.UTC(),
		UpdatedAt:         a.UpdatedAt.UTC(),
		SubmittedAt:       nullableOf(a.SubmittedAt),
		Vehicles:          make([]vehicleDTO, 0, len(a.Vehicles)),
		AdditionalMembers: make([]additionalMemberDTO, 0, len(a.AdditionalMembers)),
	}
	if a.Member != nil {
		out.Member = &memberDTO{
			ID:          string(a.Member.ID),
			FirstName:   a.Member.FirstName,
			LastName:    a.Member.LastName,
			DateOfBirth: nullableDate(a.Member.DateOfBirth),
		}
	}
	if a.Address != nil {
		out.Address = &addressDTO{
			ID:            string(a.Address.ID),
			ApplicationID: string(a.Address.ApplicationID),
			Street:        a.Address.Street,
			City:          a.Address.City,
			State:         a.Address.State,
			ZipCode:       nullableOf(a.Address.ZipCode),
		}
	}
	for _, v := range a.Vehicles {
		out.Vehicles = append(out.Vehicles, vehicleDTO{
			ID:            string(v.ID),
			ApplicationID: string(v.ApplicationID),
			VIN:           v.VIN,
			Year:          nullableOf(v.Year),
			Make:          v.Make,
			Model:         v.Model,
		})
	}
	for _, m := range a.AdditionalMembers {
		var rel *string
		if m.Relationship != nil {
			s := m.Relationship.String()
			rel = &s
		}
		out.AdditionalMembers = append(out.AdditionalMembers, additionalMemberDTO{
			ID:                      string(m.ID),
			FirstName:               m.FirstName,
			LastName:                m.LastName,
			DateOfBirth:             nullableDate(m.DateOfBirth),
			Relationship:            nullableOf(rel),
			AdditionalApplicationID: string(m.ApplicationID),
		})
	}
	return out
}

// nullableOf renders nil as an explicit JSON null.
func nullableOf[T any](p *T) nullable.Nullable[T] {
	if p == nil {
		return nullable.NewNullNullable[T]()
	}
	return nullable.NewNullableWithValue(*p)
}

func nullableDate(p *time.Time) nullable.Nullable[openapi_types.Date] {
	if p == nil {
		return nullable.NewNullNullable[openapi_types.Date]()
	}
	return nullable.NewNullableWithValue(openapi_types.Date{Time: p.UTC()})
}
