package applicationrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/BennettSmith/insurance-intake-api/internal/adapters/postgres"
	"github.com/BennettSmith/insurance-intake-api/internal/domain"
	"github.com/BennettSmith/insurance-intake-api/internal/ports/out/applicationrepo"
)

// Repo is a Postgres implementation of applicationrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Repo) Get(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	if r.pool == nil {
		return domain.Application{}, errors.New("nil postgres pool")
	}
	return load(ctx, r.pool, id)
}

func (r *Repo) Delete(ctx context.Context, id domain.ApplicationID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	appUUID, ok := parseUUID(string(id))
	if !ok {
		return applicationrepo.ErrNotFound
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var memberID uuid.NullUUID
		err := tx.QueryRow(ctx, `SELECT member_id FROM applications WHERE id = $1 FOR UPDATE`, appUUID).Scan(&memberID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return applicationrepo.ErrNotFound
			}
			return err
		}
		// Address, vehicles and additional members cascade.
		if _, err := tx.Exec(ctx, `DELETE FROM applications WHERE id = $1`, appUUID); err != nil {
			return err
		}
		if memberID.Valid {
			if _, err := tx.Exec(ctx, `DELETE FROM members WHERE id = $1`, memberID.UUID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repo) InTx(ctx context.Context, fn func(tx applicationrepo.Tx) error) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	return pgx.BeginFunc(ctx, r.pool, func(ptx pgx.Tx) error {
		return fn(&tx{q: ptx})
	})
}

type tx struct {
	q querier
}

func (t *tx) CreateApplication(ctx context.Context, a domain.Application) error {
	appUUID, err := uuid.Parse(string(a.ID))
	if err != nil {
		return fmt.Errorf("invalid application id: %w", err)
	}
	status := a.Status
	if status == "" {
		status = domain.ApplicationStatusDraft
	}
	_, err = t.q.Exec(ctx, `
		INSERT INTO applications (id, status, quote_number, created_at, updated_at, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		appUUID,
		string(status),
		a.QuoteNumber,
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
		utcPtr(a.SubmittedAt),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "applications_pkey" {
			return applicationrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (t *tx) GetApplication(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	return getApplicationRow(ctx, t.q, id)
}

func (t *tx) Load(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	return load(ctx, t.q, id)
}

func (t *tx) GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	memberUUID, ok := parseUUID(string(id))
	if !ok {
		return domain.Member{}, applicationrepo.ErrMemberNotFound
	}
	row := t.q.QueryRow(ctx, `
		SELECT id, first_name, last_name, date_of_birth
		FROM members
		WHERE id = $1 AND additional_application_id IS NULL
	`, memberUUID)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Member{}, applicationrepo.ErrMemberNotFound
		}
		return domain.Member{}, err
	}
	return m, nil
}

func (t *tx) CreateMember(ctx context.Context, m domain.Member) error {
	memberUUID, err := uuid.Parse(string(m.ID))
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}
	_, err = t.q.Exec(ctx, `
		INSERT INTO members (id, first_name, last_name, date_of_birth)
		VALUES ($1, $2, $3, $4)
	`, memberUUID, m.FirstName, m.LastName, datePtr(m.DateOfBirth))
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return applicationrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (t *tx) UpdateMember(ctx context.Context, m domain.Member) error {
	memberUUID, ok := parseUUID(string(m.ID))
	if !ok {
		return applicationrepo.ErrMemberNotFound
	}
	tag, err := t.q.Exec(ctx, `
		UPDATE members
		SET first_name = $2, last_name = $3, date_of_birth = $4
		WHERE id = $1 AND additional_application_id IS NULL
	`, memberUUID, m.FirstName, m.LastName, datePtr(m.DateOfBirth))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return applicationrepo.ErrMemberNotFound
	}
	return nil
}

func (t *tx) LinkMember(ctx context.Context, appID domain.ApplicationID, memberID domain.MemberID) error {
	appUUID, ok := parseUUID(string(appID))
	if !ok {
		return applicationrepo.ErrNotFound
	}
	memberUUID, ok := parseUUID(string(memberID))
	if !ok {
		return applicationrepo.ErrMemberNotFound
	}
	tag, err := t.q.Exec(ctx, `UPDATE applications SET member_id = $2 WHERE id = $1`, appUUID, memberUUID)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
			return applicationrepo.ErrMemberNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return applicationrepo.ErrNotFound
	}
	return nil
}

func (t *tx) UpsertAddress(ctx context.Context, a domain.Address) error {
	appUUID, ok := parseUUID(string(a.ApplicationID))
	if !ok {
		return applicationrepo.ErrNotFound
	}
	addrUUID, err := uuid.Parse(string(a.ID))
	if err != nil {
		return fmt.Errorf("invalid address id: %w", err)
	}
	_, err = t.q.Exec(ctx, `
		INSERT INTO addresses (id, application_id, street, city, state, zip_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (application_id) DO UPDATE SET
			street = EXCLUDED.street,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip_code = EXCLUDED.zip_code
	`, addrUUID, appUUID, a.Street, a.City, a.State, a.ZipCode)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
			return applicationrepo.ErrNotFound
		}
		return err
	}
	return nil
}

func (t *tx) DeleteVehicles(ctx context.Context, appID domain.ApplicationID) error {
	appUUID, ok := parseUUID(string(appID))
	if !ok {
		return nil
	}
	_, err := t.q.Exec(ctx, `DELETE FROM vehicles WHERE application_id = $1`, appUUID)
	return err
}

func (t *tx) CreateVehicles(ctx context.Context, vs []domain.Vehicle) error {
	for _, v := range vs {
		appUUID, ok := parseUUID(string(v.ApplicationID))
		if !ok {
			return applicationrepo.ErrNotFound
		}
		vehicleUUID, err := uuid.Parse(string(v.ID))
		if err != nil {
			return fmt.Errorf("invalid vehicle id: %w", err)
		}
		_, err = t.q.Exec(ctx, `
			INSERT INTO vehicles (id, application_id, vin, year, make, model, position)
			VALUES ($1, $2, $3, $4, $5, $6,
				(SELECT COALESCE(MAX(position) + 1, 0) FROM vehicles WHERE application_id = $2))
		`, vehicleUUID, appUUID, v.VIN, v.Year, v.Make, v.Model)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode {
				return applicationrepo.ErrNotFound
			}
			return err
		}
	}
	return nil
}

func (t *tx) DeleteAdditionalMembers(ctx context.Context, appID domain.ApplicationID) error {
	appUUID, ok := parseUUID(string(appID))
	if !ok {
		return nil
	}
	_, err := t.q.Exec(ctx, `DELETE FROM members WHERE additional_application_id = $1`, appUUID)
	return err
}

func (t *tx) CreateAdditionalMembers(ctx context.Context, ms []domain.AdditionalMember) error {
	for _, m := range ms {
		appUUID, ok := parseUUID(string(m.ApplicationID))
		if !ok {
			return applicationrepo.ErrNotFound
		}
		memberUUID, err := uuid.Parse(string(m.ID))
		if err != nil {
			return fmt.Errorf("invalid member id: %w", err)
		}
		_, err = t.q.Exec(ctx, `
			INSERT INTO members (id, first_name, last_name, date_of_birth, relationship, additional_application_id, position)
			VALUES ($1, $2, $3, $4, $5, $6,
				(SELECT COALESCE(MAX(position) + 1, 0) FROM members WHERE additional_application_id = $6))
		`, memberUUID, m.FirstName, m.LastName, datePtr(m.DateOfBirth), relationshipForDB(m.Relationship), appUUID)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok {
				switch pe.Code {
				case postgres.ForeignKeyViolationCode:
					return applicationrepo.ErrNotFound
				case postgres.UniqueViolationCode:
					return applicationrepo.ErrAlreadyExists
				}
			}
			return err
		}
	}
	return nil
}

func (t *tx) Touch(ctx context.Context, appID domain.ApplicationID, at time.Time) error {
	appUUID, ok := parseUUID(string(appID))
	if !ok {
		return applicationrepo.ErrNotFound
	}
	tag, err := t.q.Exec(ctx, `UPDATE applications SET updated_at = $2 WHERE id = $1`, appUUID, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return applicationrepo.ErrNotFound
	}
	return nil
}

func (t *tx) MarkSubmitted(ctx context.Context, appID domain.ApplicationID, quote float64, at time.Time) error {
	appUUID, ok := parseUUID(string(appID))
	if !ok {
		return applicationrepo.ErrNotFound
	}
	tag, err := t.q.Exec(ctx, `
		UPDATE applications
		SET status = $2, quote_number = $3, submitted_at = $4, updated_at = $4
		WHERE id = $1
	`, appUUID, string(domain.ApplicationStatusSubmitted), quote, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return applicationrepo.ErrNotFound
	}
	return nil
}

// --- loading ---

func getApplicationRow(ctx context.Context, q querier, id domain.ApplicationID) (domain.Application, error) {
	appUUID, ok := parseUUID(string(id))
	if !ok {
		return domain.Application{}, applicationrepo.ErrNotFound
	}
	var (
		gotID       uuid.UUID
		memberID    uuid.NullUUID
		status      string
		quote       *float64
		createdAt   time.Time
		updatedAt   time.Time
		submittedAt *time.Time
	)
	err := q.QueryRow(ctx, `
		SELECT id, member_id, status, quote_number, created_at, updated_at, submitted_at
		FROM applications
		WHERE id = $1
	`, appUUID).Scan(&gotID, &memberID, &status, &quote, &createdAt, &updatedAt, &submittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Application{}, applicationrepo.ErrNotFound
		}
		return domain.Application{}, err
	}
	a := domain.Application{
		ID:          domain.ApplicationID(gotID.String()),
		Status:      domain.ApplicationStatus(status),
		QuoteNumber: quote,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
		SubmittedAt: utcPtr(submittedAt),
	}
	if memberID.Valid {
		mid := domain.MemberID(memberID.UUID.String())
		a.MemberID = &mid
	}
	return a, nil
}

func load(ctx context.Context, q querier, id domain.ApplicationID) (domain.Application, error) {
	a, err := getApplicationRow(ctx, q, id)
	if err != nil {
		return domain.Application{}, err
	}
	appUUID := uuid.MustParse(string(a.ID))

	if a.MemberID != nil {
		row := q.QueryRow(ctx, `
			SELECT id, first_name, last_name, date_of_birth
			FROM members
			WHERE id = $1
		`, uuid.MustParse(string(*a.MemberID)))
		m, err := scanMember(row)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return domain.Application{}, err
		}
		if err == nil {
			a.Member = &m
		}
	}

	var (
		addrID uuid.UUID
		addr   domain.Address
	)
	err = q.QueryRow(ctx, `
		SELECT id, street, city, state, zip_code
		FROM addresses
		WHERE application_id = $1
	`, appUUID).Scan(&addrID, &addr.Street, &addr.City, &addr.State, &addr.ZipCode)
	switch {
	case err == nil:
		addr.ID = domain.AddressID(addrID.String())
		addr.ApplicationID = a.ID
		a.Address = &addr
	case !errors.Is(err, pgx.ErrNoRows):
		return domain.Application{}, err
	}

	if a.Vehicles, err = loadVehicles(ctx, q, appUUID, a.ID); err != nil {
		return domain.Application{}, err
	}
	if a.AdditionalMembers, err = loadAdditionalMembers(ctx, q, appUUID, a.ID); err != nil {
		return domain.Application{}, err
	}
	return a, nil
}

func loadVehicles(ctx context.Context, q querier, appUUID uuid.UUID, appID domain.ApplicationID) ([]domain.Vehicle, error) {
	rows, err := q.Query(ctx, `
		SELECT id, vin, year, make, model
		FROM vehicles
		WHERE application_id = $1
		ORDER BY position ASC, id ASC
	`, appUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Vehicle, 0)
	for rows.Next() {
		var (
			id uuid.UUID
			v  domain.Vehicle
		)
		if err := rows.Scan(&id, &v.VIN, &v.Year, &v.Make, &v.Model); err != nil {
			return nil, err
		}
		v.ID = domain.VehicleID(id.String())
		v.ApplicationID = appID
		out = append(out, v)
	}
	return out, rows.Err()
}

func loadAdditionalMembers(ctx context.Context, q querier, appUUID uuid.UUID, appID domain.ApplicationID) ([]domain.AdditionalMember, error) {
	rows, err := q.Query(ctx, `
		SELECT id, first_name, last_name, date_of_birth, relationship
		FROM members
		WHERE additional_application_id = $1
		ORDER BY position ASC, id ASC
	`, appUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.AdditionalMember, 0)
	for rows.Next() {
		var (
			id           uuid.UUID
			dob          pgtype.Date
			relationship *string
			m            domain.AdditionalMember
		)
		if err := rows.Scan(&id, &m.FirstName, &m.LastName, &dob, &relationship); err != nil {
			return nil, err
		}
		m.ID = domain.MemberID(id.String())
		m.ApplicationID = appID
		m.DateOfBirth = dateToTimePtr(dob)
		if relationship != nil {
			m.Relationship = domain.ParseRelationship(*relationship)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMember(row interface{ Scan(dest ...any) error }) (domain.Member, error) {
	var (
		id  uuid.UUID
		dob pgtype.Date
		m   domain.Member
	)
	if err := row.Scan(&id, &m.FirstName, &m.LastName, &dob); err != nil {
		return domain.Member{}, err
	}
	m.ID = domain.MemberID(id.String())
	m.DateOfBirth = dateToTimePtr(dob)
	return m, nil
}

// --- helpers ---

func parseUUID(s string) (uuid.UUID, bool) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, false
	}
	return u, true
}

func datePtr(t *time.Time) pgtype.Date {
	var d pgtype.Date
	if t == nil {
		return d
	}
	tt := t.UTC()
	d.Time = time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, time.UTC)
	d.Valid = true
	return d
}

func dateToTimePtr(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}

func relationshipForDB(r *domain.Relationship) *string {
	if r == nil || !r.IsARelationship() {
		return nil
	}
	s := r.String()
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
