package migration

import (
	"sort"
)

// Repository holds the known migration units in apply order. It is built once
// per run from the registered unit list and has no side effects, so a fixture
// repository can stand in during tests.
type Repository struct {
	units []Unit
	byID  map[string]Unit
}

// NewRepository validates and orders the given units. It fails with a
// DiscoveryError if two units share an identifier, an identifier is malformed,
// or a unit is missing either direction.
func NewRepository(units []Unit) (*Repository, error) {
	r := &Repository{
		units: make([]Unit, 0, len(units)),
		byID:  make(map[string]Unit, len(units)),
	}
	for _, u := range units {
		if !ValidIdentifier(u.ID) {
			return nil, &DiscoveryError{Identifier: u.ID, Reason: "malformed identifier"}
		}
		if u.Apply == nil {
			return nil, &DiscoveryError{Identifier: u.ID, Reason: "missing apply"}
		}
		if u.Revert == nil {
			return nil, &DiscoveryError{Identifier: u.ID, Reason: "missing revert"}
		}
		if _, dup := r.byID[u.ID]; dup {
			return nil, &DiscoveryError{Identifier: u.ID, Reason: "duplicate identifier"}
		}
		r.byID[u.ID] = u
		r.units = append(r.units, u)
	}
	sort.Slice(r.units, func(i, j int) bool { return r.units[i].ID < r.units[j].ID })
	return r, nil
}

// List returns all units ordered by identifier ascending.
func (r *Repository) List() []Unit {
	out := make([]Unit, len(r.units))
	copy(out, r.units)
	return out
}

// Get returns the unit with the given identifier, or ErrNotFound.
func (r *Repository) Get(id string) (Unit, error) {
	u, ok := r.byID[id]
	if !ok {
		return Unit{}, ErrNotFound
	}
	return u, nil
}
