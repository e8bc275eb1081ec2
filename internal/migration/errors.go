package migration

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Repository.Get for unknown identifiers.
var ErrNotFound = errors.New("migration not found")

// DiscoveryError reports a malformed or duplicate unit found while building
// the repository. It is surfaced before any database interaction.
type DiscoveryError struct {
	Identifier string
	Reason     string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("migration discovery: %s: %s", e.Identifier, e.Reason)
}

// LedgerError wraps a failure reading or writing the _migrations table.
// It is fatal for the current run.
type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string { return fmt.Sprintf("migration ledger: %s: %v", e.Op, e.Err) }
func (e *LedgerError) Unwrap() error { return e.Err }

// ApplyError reports a unit whose forward operation (or its ledger recording)
// failed. The unit's transaction has been rolled back; earlier units of the
// same run remain committed.
type ApplyError struct {
	Identifier string
	Err        error
}

func (e *ApplyError) Error() string { return fmt.Sprintf("apply %s: %v", e.Identifier, e.Err) }
func (e *ApplyError) Unwrap() error { return e.Err }

// RevertError is the rollback-side counterpart of ApplyError.
type RevertError struct {
	Identifier string
	Err        error
}

func (e *RevertError) Error() string { return fmt.Sprintf("revert %s: %v", e.Identifier, e.Err) }
func (e *RevertError) Unwrap() error { return e.Err }

// UnresolvableRevertError reports an applied ledger entry whose unit is no
// longer present in the repository, so its revert logic is unavailable.
type UnresolvableRevertError struct {
	Identifier string
}

func (e *UnresolvableRevertError) Error() string {
	return fmt.Sprintf("revert %s: unit not present in repository", e.Identifier)
}

// DuplicateIdentifierError reports a scaffolding collision: a new unit would
// reuse an identifier that already exists.
type DuplicateIdentifierError struct {
	Identifier string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("migration %s already exists", e.Identifier)
}
