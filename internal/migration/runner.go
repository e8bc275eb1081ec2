package migration

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// Runner orchestrates migrate, rollback, and status against one repository and
// one database. It keeps no state of its own: the pending set is recomputed
// from the ledger on every invocation, so a run is always safe to re-invoke
// after an interruption.
type Runner struct {
	db     *sql.DB
	repo   *Repository
	ledger Ledger
	now    func() time.Time
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock overrides the timestamp source for ledger entries.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a migration runner.
func NewRunner(db *sql.DB, repo *Repository, opts ...RunnerOption) *Runner {
	r := &Runner{
		db:     db,
		repo:   repo,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Migrate applies all pending units in identifier order, one transaction per
// unit, and returns the identifiers applied. It halts at the first failing
// unit: that unit's transaction is rolled back, earlier units of the run stay
// committed, and the error names the unit. An empty result is "nothing to do",
// which is success.
func (r *Runner) Migrate(ctx context.Context) ([]string, error) {
	if err := r.ledger.EnsureSchema(ctx, r.db); err != nil {
		return nil, err
	}

	applied, err := r.ledger.Applied(ctx, r.db)
	if err != nil {
		return nil, err
	}
	appliedSet := make(map[string]bool, len(applied))
	for _, e := range applied {
		appliedSet[e.Identifier] = true
	}

	var done []string
	for _, unit := range r.repo.List() {
		if appliedSet[unit.ID] {
			continue
		}
		r.logger.Info("applying migration", "identifier", unit.ID)
		if err := r.applyOne(ctx, unit); err != nil {
			return done, err
		}
		done = append(done, unit.ID)
	}
	if len(done) == 0 {
		r.logger.Info("no pending migrations")
	}
	return done, nil
}

func (r *Runner) applyOne(ctx context.Context, unit Unit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &ApplyError{Identifier: unit.ID, Err: err}
	}
	defer tx.Rollback()

	if err := unit.Apply(ctx, tx); err != nil {
		return &ApplyError{Identifier: unit.ID, Err: err}
	}
	if err := r.ledger.RecordApplied(ctx, tx, unit.ID, r.now()); err != nil {
		return &ApplyError{Identifier: unit.ID, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &ApplyError{Identifier: unit.ID, Err: err}
	}
	return nil
}

// Rollback reverts the count most recently applied units, most recent first
// (applied_at descending, identifier descending on ties — the ledger's
// recorded order is authoritative, not the repository's static order). A count
// past the number of applied entries reverts everything applied. A ledger
// entry whose unit is missing from the repository halts the rollback with
// UnresolvableRevertError.
func (r *Runner) Rollback(ctx context.Context, count int) ([]string, error) {
	if err := r.ledger.EnsureSchema(ctx, r.db); err != nil {
		return nil, err
	}

	applied, err := r.ledger.Applied(ctx, r.db)
	if err != nil {
		return nil, err
	}
	if count > len(applied) {
		count = len(applied)
	}

	var done []string
	for i := 0; i < count; i++ {
		entry := applied[len(applied)-1-i]
		unit, err := r.repo.Get(entry.Identifier)
		if err != nil {
			return done, &UnresolvableRevertError{Identifier: entry.Identifier}
		}
		r.logger.Info("reverting migration", "identifier", unit.ID)
		if err := r.revertOne(ctx, unit); err != nil {
			return done, err
		}
		done = append(done, unit.ID)
	}
	if len(done) == 0 {
		r.logger.Info("no migrations to roll back")
	}
	return done, nil
}

func (r *Runner) revertOne(ctx context.Context, unit Unit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &RevertError{Identifier: unit.ID, Err: err}
	}
	defer tx.Rollback()

	if err := unit.Revert(ctx, tx); err != nil {
		return &RevertError{Identifier: unit.ID, Err: err}
	}
	if err := r.ledger.RecordReverted(ctx, tx, unit.ID); err != nil {
		return &RevertError{Identifier: unit.ID, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &RevertError{Identifier: unit.ID, Err: err}
	}
	return nil
}

// UnitStatus is one row of the status report. Missing marks ledger entries
// whose unit is no longer present in the repository.
type UnitStatus struct {
	Identifier string
	Applied    bool
	AppliedAt  time.Time
	Missing    bool
}

// Status merges the repository against the ledger and returns every known
// identifier, ascending, with its applied/pending state.
func (r *Runner) Status(ctx context.Context) ([]UnitStatus, error) {
	if err := r.ledger.EnsureSchema(ctx, r.db); err != nil {
		return nil, err
	}

	applied, err := r.ledger.Applied(ctx, r.db)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Entry, len(applied))
	for _, e := range applied {
		byID[e.Identifier] = e
	}

	var out []UnitStatus
	for _, unit := range r.repo.List() {
		s := UnitStatus{Identifier: unit.ID}
		if e, ok := byID[unit.ID]; ok {
			s.Applied = true
			s.AppliedAt = e.AppliedAt
			delete(byID, unit.ID)
		}
		out = append(out, s)
	}
	// Applied entries with no matching unit, e.g. after a unit file was
	// deleted. Reported so rollback failures are diagnosable.
	for _, e := range applied {
		if _, leftover := byID[e.Identifier]; leftover {
			out = append(out, UnitStatus{
				Identifier: e.Identifier,
				Applied:    true,
				AppliedAt:  e.AppliedAt,
				Missing:    true,
			})
		}
	}
	return out, nil
}
