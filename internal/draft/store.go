package draft

import (
	"encoding/json"
	"fmt"
)

// Backend is a scoped key/value store for raw JSON documents.
type Backend interface {
	// Get returns ok=false when the key is not stored.
	Get(scope, key string) (value []byte, ok bool, err error)
	Set(scope, key string, value []byte) error
	Remove(scope string, keys ...string) error
	Close() error
}

// DefaultScope is used when the wizard is not bound to a named draft.
const DefaultScope = "default"

// Store reads and writes one draft. It is meant for a single writer.
type Store struct {
	backend Backend
	scope   string
}

func NewStore(backend Backend, scope string) *Store {
	if scope == "" {
		scope = DefaultScope
	}
	return &Store{backend: backend, scope: scope}
}

func (s *Store) Scope() string { return s.scope }

// Load returns the stored draft. Each key that is missing or does not decode
// falls back to its default independently of the others.
func (s *Store) Load() (Draft, error) {
	d := Default()

	if u, ok, err := load[User](s, KeyUser); err != nil {
		return d, err
	} else if ok {
		d.User = u
	}
	if a, ok, err := load[Address](s, KeyAddress); err != nil {
		return d, err
	} else if ok {
		d.Address = a
	}
	if vs, ok, err := load[[]Vehicle](s, KeyVehicles); err != nil {
		return d, err
	} else if ok && vs != nil {
		d.Vehicles = vs
	}
	if ms, ok, err := load[[]AdditionalMember](s, KeyAdditionalMembers); err != nil {
		return d, err
	} else if ok && ms != nil {
		d.AdditionalMembers = ms
	}
	if step, ok, err := load[int](s, KeyStep); err != nil {
		return d, err
	} else if ok && step >= 0 {
		d.Step = step
	}
	return d, nil
}

// load decodes one key. Backend failures are returned; a stored value that
// does not decode is reported as absent.
func load[T any](s *Store, key string) (T, bool, error) {
	var v T
	raw, ok, err := s.backend.Get(s.scope, key)
	if err != nil {
		return v, false, fmt.Errorf("draft: get %s: %w", key, err)
	}
	if !ok {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

func (s *Store) save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("draft: encode %s: %w", key, err)
	}
	if err := s.backend.Set(s.scope, key, raw); err != nil {
		return fmt.Errorf("draft: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) SaveUser(u User) error       { return s.save(KeyUser, u) }
func (s *Store) SaveAddress(a Address) error { return s.save(KeyAddress, a) }
func (s *Store) SaveStep(step int) error     { return s.save(KeyStep, step) }

func (s *Store) SaveVehicles(vs []Vehicle) error {
	if vs == nil {
		vs = []Vehicle{}
	}
	return s.save(KeyVehicles, vs)
}

func (s *Store) SaveAdditionalMembers(ms []AdditionalMember) error {
	if ms == nil {
		ms = []AdditionalMember{}
	}
	return s.save(KeyAdditionalMembers, ms)
}

// Save writes every entity of d.
func (s *Store) Save(d Draft) error {
	if err := s.SaveUser(d.User); err != nil {
		return err
	}
	if err := s.SaveAddress(d.Address); err != nil {
		return err
	}
	if err := s.SaveVehicles(d.Vehicles); err != nil {
		return err
	}
	if err := s.SaveAdditionalMembers(d.AdditionalMembers); err != nil {
		return err
	}
	return s.SaveStep(d.Step)
}

// Clear removes the four entity keys and the step.
func (s *Store) Clear() error {
	if err := s.backend.Remove(s.scope, Keys...); err != nil {
		return fmt.Errorf("draft: clear: %w", err)
	}
	return nil
}
