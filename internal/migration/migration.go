// Package migration provides versioned schema migration tracking and execution
// for bazarbot. Units are registered at startup, ordered by identifier, and
// tracked in the _migrations ledger table so the schema can be rolled forward
// and back deterministically.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"
)

// Unit represents a single reversible schema change. The identifier is a
// timestamp plus slug (e.g. 20241001_000001_create_initial_schema); its
// lexicographic order is the apply order.
type Unit struct {
	ID     string
	Apply  func(ctx context.Context, tx *sql.Tx) error
	Revert func(ctx context.Context, tx *sql.Tx) error
}

// identifierRegex matches unit identifiers: YYYYMMDD_HHMMSS_slug.
var identifierRegex = regexp.MustCompile(`^\d{8}_\d{6}_[a-z][a-z0-9_]*$`)

// slugRegex matches migration slugs (lowercase snake_case).
var slugRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NewIdentifier builds a unit identifier from a timestamp and a slug.
func NewIdentifier(at time.Time, slug string) (string, error) {
	if !slugRegex.MatchString(slug) {
		return "", fmt.Errorf("migration slug must be lowercase alphanumeric with underscores, starting with a letter: %q", slug)
	}
	return at.UTC().Format("20060102_150405") + "_" + slug, nil
}

// ValidIdentifier reports whether id has the expected identifier shape.
func ValidIdentifier(id string) bool {
	return identifierRegex.MatchString(id)
}

// Statements builds an apply or revert function that executes raw SQL
// statements in order within the unit's transaction.
func Statements(stmts ...string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
			}
		}
		return nil
	}
}

// firstLine trims a statement down to its first non-empty line for error
// messages, so failures name the offending DDL without dumping whole scripts.
func firstLine(stmt string) string {
	start := 0
	for start < len(stmt) && (stmt[start] == '\n' || stmt[start] == '\t' || stmt[start] == ' ') {
		start++
	}
	end := start
	for end < len(stmt) && stmt[end] != '\n' {
		end++
	}
	s := stmt[start:end]
	if end < len(stmt) {
		s += " ..."
	}
	return s
}
