package applications

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
	"github.com/BennettSmith/insurance-intake-api/internal/ports/out/applicationrepo"
)

// Synchronizer reconciles the stored rows of one application with a payload.
// It must run inside a repository transaction; it never commits on its own.
type Synchronizer struct {
	NewID func() string
}

// Apply runs the member, address, vehicle and additional-member steps in order
// and returns the reloaded aggregate. Any step error aborts the remaining steps.
func (s Synchronizer) Apply(ctx context.Context, tx applicationrepo.Tx, id domain.ApplicationID, p Payload, now time.Time) (domain.Application, error) {
	app, err := tx.GetApplication(ctx, id)
	if err != nil {
		return domain.Application{}, err
	}

	if p.Member != nil {
		if err := s.syncMember(ctx, tx, app, p.Member); err != nil {
			return domain.Application{}, fmt.Errorf("member: %w", err)
		}
	}
	if p.Address != nil {
		if err := tx.UpsertAddress(ctx, domain.Address{
			ID:            domain.AddressID(s.NewID()),
			ApplicationID: id,
			Street:        text(p.Address["street"]),
			City:          text(p.Address["city"]),
			State:         text(p.Address["state"]),
			ZipCode:       domain.ParseInt(p.Address["zipCode"]),
		}); err != nil {
			return domain.Application{}, fmt.Errorf("address: %w", err)
		}
	}

	if err := tx.DeleteVehicles(ctx, id); err != nil {
		return domain.Application{}, fmt.Errorf("vehicles: %w", err)
	}
	if len(p.Vehicles) > 0 {
		vs := make([]domain.Vehicle, 0, len(p.Vehicles))
		for _, v := range p.Vehicles {
			vs = append(vs, domain.Vehicle{
				ID:            domain.VehicleID(s.NewID()),
				ApplicationID: id,
				VIN:           text(v["vin"]),
				Year:          domain.ParseInt(v["year"]),
				Make:          text(v["make"]),
				Model:         text(v["model"]),
			})
		}
		if err := tx.CreateVehicles(ctx, vs); err != nil {
			return domain.Application{}, fmt.Errorf("vehicles: %w", err)
		}
	}

	if err := tx.DeleteAdditionalMembers(ctx, id); err != nil {
		return domain.Application{}, fmt.Errorf("additional members: %w", err)
	}
	if len(p.AdditionalMembers) > 0 {
		ms := make([]domain.AdditionalMember, 0, len(p.AdditionalMembers))
		for _, m := range p.AdditionalMembers {
			ms = append(ms, domain.AdditionalMember{
				ID:            domain.MemberID(s.NewID()),
				ApplicationID: id,
				FirstName:     domain.NormalizeHumanName(text(m["firstName"])),
				LastName:      domain.NormalizeHumanName(text(m["lastName"])),
				DateOfBirth:   domain.ParseDate(text(m["dateOfBirth"])),
				Relationship:  domain.ParseRelationship(text(m["relationship"])),
			})
		}
		if err := tx.CreateAdditionalMembers(ctx, ms); err != nil {
			return domain.Application{}, fmt.Errorf("additional members: %w", err)
		}
	}

	if err := tx.Touch(ctx, id, now); err != nil {
		return domain.Application{}, err
	}
	return tx.Load(ctx, id)
}

// syncMember updates the linked member in place, or creates one and links it.
func (s Synchronizer) syncMember(ctx context.Context, tx applicationrepo.Tx, app domain.Application, f Fields) error {
	m := domain.Member{
		FirstName:   domain.NormalizeHumanName(text(f["firstName"])),
		LastName:    domain.NormalizeHumanName(text(f["lastName"])),
		DateOfBirth: domain.ParseDate(text(f["dateOfBirth"])),
	}
	if app.MemberID != nil {
		existing, err := tx.GetMember(ctx, *app.MemberID)
		switch {
		case err == nil:
			m.ID = existing.ID
			return tx.UpdateMember(ctx, m)
		case !errors.Is(err, applicationrepo.ErrMemberNotFound):
			return err
		}
	}
	m.ID = domain.MemberID(s.NewID())
	if err := tx.CreateMember(ctx, m); err != nil {
		return err
	}
	return tx.LinkMember(ctx, app.ID, m.ID)
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
