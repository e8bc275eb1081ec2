package migration

import (
	"context"
	"database/sql"
	"time"
)

// timeFormat is the applied_at storage format. It sorts lexicographically,
// which the rollback ordering relies on.
const timeFormat = "2006-01-02 15:04:05"

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS _migrations (
    identifier  TEXT PRIMARY KEY,
    applied_at  TEXT NOT NULL
)`

// Entry is one row of the _migrations ledger: a unit that has been applied
// and not subsequently reverted. The identifier may reference a unit no
// longer present in the repository.
type Entry struct {
	Identifier string
	AppliedAt  time.Time
}

// Ledger reads and writes the _migrations table. Record operations run on the
// caller's transaction so ledger writes commit atomically with the schema
// change itself.
type Ledger struct{}

// EnsureSchema creates the ledger table if absent. This is the one ledger
// operation that runs outside a unit's transaction: it is a bootstrap
// precondition and is idempotent.
func (Ledger) EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		return &LedgerError{Op: "ensure schema", Err: err}
	}
	return nil
}

// Applied returns all ledger entries ordered by applied_at ascending,
// identifier ascending. Reversing the slice yields the rollback order.
func (Ledger) Applied(ctx context.Context, db *sql.DB) ([]Entry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT identifier, applied_at
		FROM _migrations
		ORDER BY applied_at ASC, identifier ASC
	`)
	if err != nil {
		return nil, &LedgerError{Op: "read applied", Err: err}
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var appliedAt string
		if err := rows.Scan(&e.Identifier, &appliedAt); err != nil {
			return nil, &LedgerError{Op: "read applied", Err: err}
		}
		e.AppliedAt, _ = time.Parse(timeFormat, appliedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &LedgerError{Op: "read applied", Err: err}
	}
	return entries, nil
}

// RecordApplied inserts a ledger row for the given identifier within tx.
func (Ledger) RecordApplied(ctx context.Context, tx *sql.Tx, identifier string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO _migrations (identifier, applied_at) VALUES (?, ?)`,
		identifier, at.UTC().Format(timeFormat),
	)
	if err != nil {
		return &LedgerError{Op: "record applied " + identifier, Err: err}
	}
	return nil
}

// RecordReverted deletes the ledger row for the given identifier within tx.
func (Ledger) RecordReverted(ctx context.Context, tx *sql.Tx, identifier string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM _migrations WHERE identifier = ?`, identifier)
	if err != nil {
		return &LedgerError{Op: "record reverted " + identifier, Err: err}
	}
	return nil
}
