// Package store implements bazarbot's data access over the migrated SQLite
// schema: users, catalog, advertisements, favorites, and per-user temp state.
package store

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Advertisement moderation states.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusSold     = "sold"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Store wraps the application database.
type Store struct {
	db *sql.DB
}

// New creates a store over db. The schema is expected to be migrated.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}
