package applicationrepo

import (
	"context"
	"sync"
	"time"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
	"github.com/BennettSmith/insurance-intake-api/internal/ports/out/applicationrepo"
)

// Repo is an in-memory implementation of applicationrepo.Repository.
// It is safe for concurrent use. Transactions are serialized and work on a
// private copy of the state that replaces the committed state only on success.
type Repo struct {
	mu sync.RWMutex
	st state
}

type state struct {
	apps       map[domain.ApplicationID]domain.Application
	members    map[domain.MemberID]domain.Member
	addresses  map[domain.ApplicationID]domain.Address
	vehicles   map[domain.ApplicationID][]domain.Vehicle
	additional map[domain.ApplicationID][]domain.AdditionalMember
}

func NewRepo() *Repo {
	return &Repo{st: newState()}
}

func newState() state {
	return state{
		apps:       make(map[domain.ApplicationID]domain.Application),
		members:    make(map[domain.MemberID]domain.Member),
		addresses:  make(map[domain.ApplicationID]domain.Address),
		vehicles:   make(map[domain.ApplicationID][]domain.Vehicle),
		additional: make(map[domain.ApplicationID][]domain.AdditionalMember),
	}
}

func (r *Repo) Get(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.load(id)
}

func (r *Repo) Delete(ctx context.Context, id domain.ApplicationID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.st.apps[id]
	if !ok {
		return applicationrepo.ErrNotFound
	}
	if a.MemberID != nil {
		delete(r.st.members, *a.MemberID)
	}
	delete(r.st.apps, id)
	delete(r.st.addresses, id)
	delete(r.st.vehicles, id)
	delete(r.st.additional, id)
	return nil
}

func (r *Repo) InTx(ctx context.Context, fn func(tx applicationrepo.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := &tx{st: r.st.clone()}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st = t.st
	return nil
}

type tx struct {
	st state
}

func (t *tx) CreateApplication(ctx context.Context, a domain.Application) error {
	_ = ctx
	if a.ID == "" {
		return applicationrepo.ErrAlreadyExists
	}
	if _, ok := t.st.apps[a.ID]; ok {
		return applicationrepo.ErrAlreadyExists
	}
	t.st.apps[a.ID] = cloneApplicationRow(a)
	return nil
}

func (t *tx) GetApplication(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	_ = ctx
	a, ok := t.st.apps[id]
	if !ok {
		return domain.Application{}, applicationrepo.ErrNotFound
	}
	return cloneApplicationRow(a), nil
}

func (t *tx) Load(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	_ = ctx
	return t.st.load(id)
}

func (t *tx) GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	_ = ctx
	m, ok := t.st.members[id]
	if !ok {
		return domain.Member{}, applicationrepo.ErrMemberNotFound
	}
	return cloneMember(m), nil
}

func (t *tx) CreateMember(ctx context.Context, m domain.Member) error {
	_ = ctx
	if _, ok := t.st.members[m.ID]; ok {
		return applicationrepo.ErrAlreadyExists
	}
	t.st.members[m.ID] = cloneMember(m)
	return nil
}

func (t *tx) UpdateMember(ctx context.Context, m domain.Member) error {
	_ = ctx
	if _, ok := t.st.members[m.ID]; !ok {
		return applicationrepo.ErrMemberNotFound
	}
	t.st.members[m.ID] = cloneMember(m)
	return nil
}

func (t *tx) LinkMember(ctx context.Context, appID domain.ApplicationID, memberID domain.MemberID) error {
	_ = ctx
	a, ok := t.st.apps[appID]
	if !ok {
		return applicationrepo.ErrNotFound
	}
	if _, ok := t.st.members[memberID]; !ok {
		return applicationrepo.ErrMemberNotFound
	}
	id := memberID
	a.MemberID = &id
	t.st.apps[appID] = a
	return nil
}

func (t *tx) UpsertAddress(ctx context.Context, addr domain.Address) error {
	_ = ctx
	if _, ok := t.st.apps[addr.ApplicationID]; !ok {
		return applicationrepo.ErrNotFound
	}
	if existing, ok := t.st.addresses[addr.ApplicationID]; ok {
		addr.ID = existing.ID
	}
	t.st.addresses[addr.ApplicationID] = cloneAddress(addr)
	return nil
}

func (t *tx) DeleteVehicles(ctx context.Context, appID domain.ApplicationID) error {
	_ = ctx
	delete(t.st.vehicles, appID)
	return nil
}

func (t *tx) CreateVehicles(ctx context.Context, vs []domain.Vehicle) error {
	_ = ctx
	for _, v := range vs {
		if _, ok := t.st.apps[v.ApplicationID]; !ok {
			return applicationrepo.ErrNotFound
		}
		t.st.vehicles[v.ApplicationID] = append(t.st.vehicles[v.ApplicationID], cloneVehicle(v))
	}
	return nil
}

func (t *tx) DeleteAdditionalMembers(ctx context.Context, appID domain.ApplicationID) error {
	_ = ctx
	delete(t.st.additional, appID)
	return nil
}

func (t *tx) CreateAdditionalMembers(ctx context.Context, ms []domain.AdditionalMember) error {
	_ = ctx
	for _, m := range ms {
		if _, ok := t.st.apps[m.ApplicationID]; !ok {
			return applicationrepo.ErrNotFound
		}
		t.st.additional[m.ApplicationID] = append(t.st.additional[m.ApplicationID], cloneAdditionalMember(m))
	}
	return nil
}

func (t *tx) Touch(ctx context.Context, appID domain.ApplicationID, at time.Time) error {
	_ = ctx
	a, ok := t.st.apps[appID]
	if !ok {
		return applicationrepo.ErrNotFound
	}
	a.UpdatedAt = at.UTC()
	t.st.apps[appID] = a
	return nil
}

func (t *tx) MarkSubmitted(ctx context.Context, appID domain.ApplicationID, quote float64, at time.Time) error {
	_ = ctx
	a, ok := t.st.apps[appID]
	if !ok {
		return applicationrepo.ErrNotFound
	}
	q := quote
	ts := at.UTC()
	a.Status = domain.ApplicationStatusSubmitted
	a.QuoteNumber = &q
	a.SubmittedAt = &ts
	a.UpdatedAt = ts
	t.st.apps[appID] = a
	return nil
}

func (s state) load(id domain.ApplicationID) (domain.Application, error) {
	a, ok := s.apps[id]
	if !ok {
		return domain.Application{}, applicationrepo.ErrNotFound
	}
	out := cloneApplicationRow(a)
	if a.MemberID != nil {
		if m, ok := s.members[*a.MemberID]; ok {
			mc := cloneMember(m)
			out.Member = &mc
		}
	}
	if addr, ok := s.addresses[id]; ok {
		ac := cloneAddress(addr)
		out.Address = &ac
	}
	out.Vehicles = make([]domain.Vehicle, 0, len(s.vehicles[id]))
	for _, v := range s.vehicles[id] {
		out.Vehicles = append(out.Vehicles, cloneVehicle(v))
	}
	out.AdditionalMembers = make([]domain.AdditionalMember, 0, len(s.additional[id]))
	for _, m := range s.additional[id] {
		out.AdditionalMembers = append(out.AdditionalMembers, cloneAdditionalMember(m))
	}
	return out, nil
}

func (s state) clone() state {
	out := newState()
	for k, v := range s.apps {
		out.apps[k] = cloneApplicationRow(v)
	}
	for k, v := range s.members {
		out.members[k] = cloneMember(v)
	}
	for k, v := range s.addresses {
		out.addresses[k] = cloneAddress(v)
	}
	for k, vs := range s.vehicles {
		cp := make([]domain.Vehicle, 0, len(vs))
		for _, v := range vs {
			cp = append(cp, cloneVehicle(v))
		}
		out.vehicles[k] = cp
	}
	for k, ms := range s.additional {
		cp := make([]domain.AdditionalMember, 0, len(ms))
		for _, m := range ms {
			cp = append(cp, cloneAdditionalMember(m))
		}
		out.additional[k] = cp
	}
	return out
}

// cloneApplicationRow copies the row fields only; relations are dropped.
func cloneApplicationRow(a domain.Application) domain.Application {
	return domain.Application{
		ID:          a.ID,
		MemberID:    clonePtr(a.MemberID),
		Status:      a.Status,
		QuoteNumber: clonePtr(a.QuoteNumber),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		SubmittedAt: clonePtr(a.SubmittedAt),
	}
}

func cloneMember(m domain.Member) domain.Member {
	out := m
	out.DateOfBirth = clonePtr(m.DateOfBirth)
	return out
}

func cloneAdditionalMember(m domain.AdditionalMember) domain.AdditionalMember {
	out := m
	out.DateOfBirth = clonePtr(m.DateOfBirth)
	out.Relationship = clonePtr(m.Relationship)
	return out
}

func cloneAddress(a domain.Address) domain.Address {
	out := a
	out.ZipCode = clonePtr(a.ZipCode)
	return out
}

func cloneVehicle(v domain.Vehicle) domain.Vehicle {
	out := v
	out.Year = clonePtr(v.Year)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
