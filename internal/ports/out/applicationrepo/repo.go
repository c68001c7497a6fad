package applicationrepo

import (
	"context"
	"time"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
)

// Repository persists insurance applications and their related rows.
//
// Get returns the full aggregate (member, address, vehicles, additional members).
// Delete removes the application, its child rows and its primary member.
type Repository interface {
	Get(ctx context.Context, id domain.ApplicationID) (domain.Application, error)
	Delete(ctx context.Context, id domain.ApplicationID) error

	// InTx runs fn inside a single transaction. Any error returned by fn (or by a
	// Tx method) discards every write made through tx.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the row-level operations the synchronizer composes into one update.
type Tx interface {
	// CreateApplication inserts a new application row. Relations are ignored.
	CreateApplication(ctx context.Context, a domain.Application) error
	// GetApplication returns the application row without relations.
	GetApplication(ctx context.Context, id domain.ApplicationID) (domain.Application, error)
	// Load returns the application with all relations.
	Load(ctx context.Context, id domain.ApplicationID) (domain.Application, error)

	GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error)
	CreateMember(ctx context.Context, m domain.Member) error
	UpdateMember(ctx context.Context, m domain.Member) error
	LinkMember(ctx context.Context, appID domain.ApplicationID, memberID domain.MemberID) error

	// UpsertAddress inserts or replaces the address keyed by application id.
	// The stored row keeps its original id when one already exists.
	UpsertAddress(ctx context.Context, a domain.Address) error

	DeleteVehicles(ctx context.Context, appID domain.ApplicationID) error
	CreateVehicles(ctx context.Context, vs []domain.Vehicle) error

	DeleteAdditionalMembers(ctx context.Context, appID domain.ApplicationID) error
	CreateAdditionalMembers(ctx context.Context, ms []domain.AdditionalMember) error

	Touch(ctx context.Context, appID domain.ApplicationID, at time.Time) error
	MarkSubmitted(ctx context.Context, appID domain.ApplicationID, quote float64, at time.Time) error
}
