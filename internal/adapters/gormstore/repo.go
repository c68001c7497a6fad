package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
	"github.com/BennettSmith/insurance-intake-api/internal/ports/out/applicationrepo"
)

// Ensure Repo implements applicationrepo.Repository.
var _ applicationrepo.Repository = (*Repo)(nil)

// Repo implements applicationrepo.Repository on top of gorm.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Open connects to Postgres through gorm with the settings the repository expects.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), Config())
}

// Config is the gorm configuration shared by Open and tests.
func Config() *gorm.Config {
	return &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	}
}

func (r *Repo) Get(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	if r.db == nil {
		return domain.Application{}, errors.New("nil gorm db")
	}
	return load(r.db.WithContext(ctx), id)
}

func (r *Repo) Delete(ctx context.Context, id domain.ApplicationID) error {
	if r.db == nil {
		return errors.New("nil gorm db")
	}
	if !validUUID(string(id)) {
		return applicationrepo.ErrNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var app applicationModel
		if err := db.Where("id = ?", string(id)).First(&app).Error; err != nil {
			return mapNotFound(err, applicationrepo.ErrNotFound)
		}
		if err := db.Where("id = ?", app.ID).Delete(&applicationModel{}).Error; err != nil {
			return err
		}
		if app.MemberID != nil {
			if err := db.Where("id = ?", *app.MemberID).Delete(&memberModel{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repo) InTx(ctx context.Context, fn func(tx applicationrepo.Tx) error) error {
	if r.db == nil {
		return errors.New("nil gorm db")
	}
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&tx{db: db})
	})
}

type tx struct {
	db *gorm.DB
}

func (t *tx) CreateApplication(ctx context.Context, a domain.Application) error {
	if !validUUID(string(a.ID)) {
		return fmt.Errorf("invalid application id %q", a.ID)
	}
	db := t.db.WithContext(ctx)
	var n int64
	if err := db.Model(&applicationModel{}).Where("id = ?", string(a.ID)).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return applicationrepo.ErrAlreadyExists
	}
	status := a.Status
	if status == "" {
		status = domain.ApplicationStatusDraft
	}
	return db.Create(&applicationModel{
		ID:          string(a.ID),
		Status:      string(status),
		QuoteNumber: a.QuoteNumber,
		Created:     a.CreatedAt.UTC(),
		Updated:     a.UpdatedAt.UTC(),
		SubmittedAt: utcPtr(a.SubmittedAt),
	}).Error
}

func (t *tx) GetApplication(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	m, err := getApplicationRow(t.db.WithContext(ctx), id)
	if err != nil {
		return domain.Application{}, err
	}
	return m.toDomain(), nil
}

func (t *tx) Load(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	return load(t.db.WithContext(ctx), id)
}

func (t *tx) GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	if !validUUID(string(id)) {
		return domain.Member{}, applicationrepo.ErrMemberNotFound
	}
	var m memberModel
	err := t.db.WithContext(ctx).
		Where("id = ? AND additional_application_id IS NULL", string(id)).
		First(&m).Error
	if err != nil {
		return domain.Member{}, mapNotFound(err, applicationrepo.ErrMemberNotFound)
	}
	return m.toMember(), nil
}

func (t *tx) CreateMember(ctx context.Context, m domain.Member) error {
	if !validUUID(string(m.ID)) {
		return fmt.Errorf("invalid member id %q", m.ID)
	}
	db := t.db.WithContext(ctx)
	var n int64
	if err := db.Model(&memberModel{}).Where("id = ?", string(m.ID)).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return applicationrepo.ErrAlreadyExists
	}
	return db.Create(&memberModel{
		ID:          string(m.ID),
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		DateOfBirth: dateOnly(m.DateOfBirth),
	}).Error
}

func (t *tx) UpdateMember(ctx context.Context, m domain.Member) error {
	if !validUUID(string(m.ID)) {
		return applicationrepo.ErrMemberNotFound
	}
	res := t.db.WithContext(ctx).
		Model(&memberModel{}).
		Where("id = ? AND additional_application_id IS NULL", string(m.ID)).
		Updates(map[string]any{
			"first_name":    m.FirstName,
			"last_name":     m.LastName,
			"date_of_birth": dateOnly(m.DateOfBirth),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return applicationrepo.ErrMemberNotFound
	}
	return nil
}

func (t *tx) LinkMember(ctx context.Context, appID domain.ApplicationID, memberID domain.MemberID) error {
	db := t.db.WithContext(ctx)
	if _, err := getApplicationRow(db, appID); err != nil {
		return err
	}
	if !validUUID(string(memberID)) {
		return applicationrepo.ErrMemberNotFound
	}
	var n int64
	if err := db.Model(&memberModel{}).Where("id = ?", string(memberID)).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return applicationrepo.ErrMemberNotFound
	}
	return db.Model(&applicationModel{}).Where("id = ?", string(appID)).Update("member_id", string(memberID)).Error
}

func (t *tx) UpsertAddress(ctx context.Context, a domain.Address) error {
	db := t.db.WithContext(ctx)
	if _, err := getApplicationRow(db, a.ApplicationID); err != nil {
		return err
	}
	if !validUUID(string(a.ID)) {
		return fmt.Errorf("invalid address id %q", a.ID)
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "application_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"street", "city", "state", "zip_code"}),
	}).Create(&addressModel{
		ID:            string(a.ID),
		ApplicationID: string(a.ApplicationID),
		Street:        a.Street,
		City:          a.City,
		State:         a.State,
		ZipCode:       a.ZipCode,
	}).Error
}

func (t *tx) DeleteVehicles(ctx context.Context, appID domain.ApplicationID) error {
	if !validUUID(string(appID)) {
		return nil
	}
	return t.db.WithContext(ctx).Where("application_id = ?", string(appID)).Delete(&vehicleModel{}).Error
}

func (t *tx) CreateVehicles(ctx context.Context, vs []domain.Vehicle) error {
	db := t.db.WithContext(ctx)
	next := map[domain.ApplicationID]int{}
	for _, v := range vs {
		pos, err := nextPosition(db, &vehicleModel{}, "application_id", v.ApplicationID, next)
		if err != nil {
			return err
		}
		if !validUUID(string(v.ID)) {
			return fmt.Errorf("invalid vehicle id %q", v.ID)
		}
		if err := db.Create(&vehicleModel{
			ID:            string(v.ID),
			ApplicationID: string(v.ApplicationID),
			VIN:           v.VIN,
			Year:          v.Year,
			Make:          v.Make,
			Model:         v.Model,
			Position:      pos,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) DeleteAdditionalMembers(ctx context.Context, appID domain.ApplicationID) error {
	if !validUUID(string(appID)) {
		return nil
	}
	return t.db.WithContext(ctx).Where("additional_application_id = ?", string(appID)).Delete(&memberModel{}).Error
}

func (t *tx) CreateAdditionalMembers(ctx context.Context, ms []domain.AdditionalMember) error {
	db := t.db.WithContext(ctx)
	next := map[domain.ApplicationID]int{}
	for _, m := range ms {
		pos, err := nextPosition(db, &memberModel{}, "additional_application_id", m.ApplicationID, next)
		if err != nil {
			return err
		}
		if !validUUID(string(m.ID)) {
			return fmt.Errorf("invalid member id %q", m.ID)
		}
		appID := string(m.ApplicationID)
		if err := db.Create(&memberModel{
			ID:                      string(m.ID),
			FirstName:               m.FirstName,
			LastName:                m.LastName,
			DateOfBirth:             dateOnly(m.DateOfBirth),
			Relationship:            relationshipForDB(m.Relationship),
			AdditionalApplicationID: &appID,
			Position:                pos,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) Touch(ctx context.Context, appID domain.ApplicationID, at time.Time) error {
	return t.updateApplication(ctx, appID, map[string]any{"updated_at": at.UTC()})
}

func (t *tx) MarkSubmitted(ctx context.Context, appID domain.ApplicationID, quote float64, at time.Time) error {
	return t.updateApplication(ctx, appID, map[string]any{
		"status":       string(domain.ApplicationStatusSubmitted),
		"quote_number": quote,
		"submitted_at": at.UTC(),
		"updated_at":   at.UTC(),
	})
}

func (t *tx) updateApplication(ctx context.Context, appID domain.ApplicationID, values map[string]any) error {
	if !validUUID(string(appID)) {
		return applicationrepo.ErrNotFound
	}
	res := t.db.WithContext(ctx).Model(&applicationModel{}).Where("id = ?", string(appID)).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return applicationrepo.ErrNotFound
	}
	return nil
}

// --- loading ---

func getApplicationRow(db *gorm.DB, id domain.ApplicationID) (applicationModel, error) {
	if !validUUID(string(id)) {
		return applicationModel{}, applicationrepo.ErrNotFound
	}
	var m applicationModel
	if err := db.Where("id = ?", string(id)).First(&m).Error; err != nil {
		return applicationModel{}, mapNotFound(err, applicationrepo.ErrNotFound)
	}
	return m, nil
}

func load(db *gorm.DB, id domain.ApplicationID) (domain.Application, error) {
	row, err := getApplicationRow(db, id)
	if err != nil {
		return domain.Application{}, err
	}
	a := row.toDomain()

	if row.MemberID != nil {
		var m memberModel
		err := db.Where("id = ?", *row.MemberID).First(&m).Error
		switch {
		case err == nil:
			member := m.toMember()
			a.Member = &member
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return domain.Application{}, err
		}
	}

	var addr addressModel
	err = db.Where("application_id = ?", row.ID).First(&addr).Error
	switch {
	case err == nil:
		a.Address = &domain.Address{
			ID:            domain.AddressID(addr.ID),
			ApplicationID: a.ID,
			Street:        addr.Street,
			City:          addr.City,
			State:         addr.State,
			ZipCode:       addr.ZipCode,
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return domain.Application{}, err
	}

	var vehicles []vehicleModel
	if err := db.Where("application_id = ?", row.ID).Order("position ASC").Order("id ASC").Find(&vehicles).Error; err != nil {
		return domain.Application{}, err
	}
	a.Vehicles = make([]domain.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		a.Vehicles = append(a.Vehicles, domain.Vehicle{
			ID:            domain.VehicleID(v.ID),
			ApplicationID: a.ID,
			VIN:           v.VIN,
			Year:          v.Year,
			Make:          v.Make,
			Model:         v.Model,
		})
	}

	var additional []memberModel
	if err := db.Where("additional_application_id = ?", row.ID).Order("position ASC").Order("id ASC").Find(&additional).Error; err != nil {
		return domain.Application{}, err
	}
	a.AdditionalMembers = make([]domain.AdditionalMember, 0, len(additional))
	for _, m := range additional {
		am := domain.AdditionalMember{
			ID:            domain.MemberID(m.ID),
			ApplicationID: a.ID,
			FirstName:     m.FirstName,
			LastName:      m.LastName,
			DateOfBirth:   dateOnly(m.DateOfBirth),
		}
		if m.Relationship != nil {
			am.Relationship = domain.ParseRelationship(*m.Relationship)
		}
		a.AdditionalMembers = append(a.AdditionalMembers, am)
	}
	return a, nil
}

func (m applicationModel) toDomain() domain.Application {
	a := domain.Application{
		ID:          domain.ApplicationID(m.ID),
		Status:      domain.ApplicationStatus(m.Status),
		QuoteNumber: m.QuoteNumber,
		CreatedAt:   m.Created.UTC(),
		UpdatedAt:   m.Updated.UTC(),
		SubmittedAt: utcPtr(m.SubmittedAt),
	}
	if m.MemberID != nil {
		id := domain.MemberID(*m.MemberID)
		a.MemberID = &id
	}
	return a
}

func (m memberModel) toMember() domain.Member {
	return domain.Member{
		ID:          domain.MemberID(m.ID),
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		DateOfBirth: dateOnly(m.DateOfBirth),
	}
}

// --- helpers ---

// nextPosition returns the next ordinal for a child row of appID, remembering
// positions handed out earlier in the same batch.
func nextPosition(db *gorm.DB, model any, column string, appID domain.ApplicationID, next map[domain.ApplicationID]int) (int, error) {
	if pos, ok := next[appID]; ok {
		next[appID] = pos + 1
		return pos, nil
	}
	if _, err := getApplicationRow(db, appID); err != nil {
		return 0, err
	}
	var pos int
	err := db.Model(model).
		Where(column+" = ?", string(appID)).
		Select("COALESCE(MAX(position) + 1, 0)").
		Scan(&pos).Error
	if err != nil {
		return 0, err
	}
	next[appID] = pos + 1
	return pos, nil
}

func mapNotFound(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
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
