package domain

import "time"

type ApplicationStatus string

const (
	ApplicationStatusDraft     ApplicationStatus = "DRAFT"
	ApplicationStatusSubmitted ApplicationStatus = "SUBMITTED"
)

// MinimumAge is the youngest a primary or additional member may be on a submitted application.
const MinimumAge = 16

// Vehicle year bounds. The upper bound is relative to the current year.
const (
	MinVehicleYear = 1985
	MaxVehicles    = 3
	MinVehicles    = 1
)

// Application is the root aggregate of an insurance application.
// Relations are only populated when the application is loaded as a whole.
type Application struct {
	ID       ApplicationID
	MemberID *MemberID
	Status   ApplicationStatus

	QuoteNumber *float64

	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt *time.Time

	Member            *Member
	Address           *Address
	Vehicles          []Vehicle
	AdditionalMembers []AdditionalMember
}

// IsSubmitted reports whether the application has reached its terminal submitted state.
func (a Application) IsSubmitted() bool {
	return a.Status == ApplicationStatusSubmitted
}

// HasData reports whether any of the four relations carry user-entered values.
func (a Application) HasData() bool {
	if a.Member != nil && (a.Member.FirstName != "" || a.Member.LastName != "" || a.Member.DateOfBirth != nil) {
		return true
	}
	if a.Address != nil && (a.Address.Street != "" || a.Address.City != "" || a.Address.State != "" || a.Address.ZipCode != nil) {
		return true
	}
	return len(a.Vehicles) > 0 || len(a.AdditionalMembers) > 0
}

// Address is the single mailing address of an application.
type Address struct {
	ID            AddressID
	ApplicationID ApplicationID
	Street        string
	City          string
	State         string
	ZipCode       *int
}

// Vehicle is a vehicle to be insured.
type Vehicle struct {
	ID            VehicleID
	ApplicationID ApplicationID
	VIN           string
	Year          *int
	Make          string
	Model         string
}
