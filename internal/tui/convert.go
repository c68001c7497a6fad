package tui

import (
	"strconv"

	"github.com/BennettSmith/insurance-intake-api/internal/client"
	"github.com/BennettSmith/insurance-intake-api/internal/draft"
)

func toPayload(d draft.Draft) client.Payload {
	return client.Payload{
		UserData:              d.User.Fields(),
		AddressData:           d.Address.Fields(),
		VehiclesData:          d.VehicleFields(),
		AdditionalMembersData: d.AdditionalMemberFields(),
	}
}

// fromApplication maps a stored application onto a draft. Missing records
// take their draft defaults; stored lists are used as they are, even when empty.
func fromApplication(app client.Application) draft.Draft {
	d := draft.Default()
	if m := app.Member; m != nil {
		d.User = draft.User{FirstName: m.FirstName, LastName: m.LastName, DateOfBirth: deref(m.DateOfBirth)}
	}
	if ad := app.Address; ad != nil {
		d.Address = draft.Address{Street: ad.Street, City: ad.City, State: ad.State, ZipCode: numeric(ad.ZipCode)}
	}
	d.Vehicles = make([]draft.Vehicle, 0, len(app.Vehicles))
	for _, v := range app.Vehicles {
		d.Vehicles = append(d.Vehicles, draft.Vehicle{VIN: v.VIN, Year: numeric(v.Year), Make: v.Make, Model: v.Model})
	}
	d.AdditionalMembers = make([]draft.AdditionalMember, 0, len(app.AdditionalMembers))
	for _, m := range app.AdditionalMembers {
		d.AdditionalMembers = append(d.AdditionalMembers, draft.AdditionalMember{
			FirstName:    m.FirstName,
			LastName:     m.LastName,
			DateOfBirth:  deref(m.DateOfBirth),
			Relationship: deref(m.Relationship),
		})
	}
	return d
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func numeric(p *int) draft.Numeric {
	if p == nil {
		return ""
	}
	return draft.Numeric(strconv.Itoa(*p))
}
