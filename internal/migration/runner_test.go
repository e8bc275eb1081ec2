package migration

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/markb/bazarbot/internal/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(path)
	if err != nil {
		t.Fatalf("failed to create db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// tableUnit builds a unit that creates and drops one table.
func tableUnit(id, table string) Unit {
	return Unit{
		ID:     id,
		Apply:  Statements(fmt.Sprintf("CREATE TABLE %s (id INTEGER PRIMARY KEY)", table)),
		Revert: Statements(fmt.Sprintf("DROP TABLE %s", table)),
	}
}

func mustRepo(t *testing.T, units ...Unit) *Repository {
	t.Helper()
	repo, err := NewRepository(units)
	if err != nil {
		t.Fatalf("NewRepository() error: %v", err)
	}
	return repo
}

func tableExists(t *testing.T, database *db.DB, table string) bool {
	t.Helper()
	var n int
	err := database.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
	).Scan(&n)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return n > 0
}

func ledgerIdentifiers(t *testing.T, database *db.DB) []string {
	t.Helper()
	rows, err := database.Query("SELECT identifier FROM _migrations ORDER BY identifier ASC")
	if err != nil {
		t.Fatalf("query ledger: %v", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("scan ledger row: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestMigrateAppliesInIdentifierOrder(t *testing.T) {
	database := setupTestDB(t)

	// Registered out of order on purpose.
	repo := mustRepo(t,
		tableUnit("20240103_000000_third", "cc"),
		tableUnit("20240101_000000_first", "aa"),
		tableUnit("20240102_000000_second", "bb"),
	)
	runner := NewRunner(database.DB, repo)

	applied, err := runner.Migrate(context.Background())
	if err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	want := []string{"20240101_000000_first", "20240102_000000_second", "20240103_000000_third"}
	if len(applied) != len(want) {
		t.Fatalf("expected %d applied, got %d", len(want), len(applied))
	}
	for i, id := range want {
		if applied[i] != id {
			t.Errorf("applied[%d] = %s, want %s", i, applied[i], id)
		}
	}
	for _, table := range []string{"aa", "bb", "cc"} {
		if !tableExists(t, database, table) {
			t.Errorf("table %s should exist after migrate", table)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := setupTestDB(t)
	repo := mustRepo(t, tableUnit("20240101_000000_first", "aa"))
	runner := NewRunner(database.DB, repo)

	if _, err := runner.Migrate(context.Background()); err != nil {
		t.Fatalf("first Migrate() error: %v", err)
	}

	applied, err := runner.Migrate(context.Background())
	if err != nil {
		t.Fatalf("second Migrate() error: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("second run should apply nothing, applied %v", applied)
	}
	if ids := ledgerIdentifiers(t, database); len(ids) != 1 {
		t.Errorf("ledger should still have 1 entry, has %d", len(ids))
	}
}

func TestMigrateFailFast(t *testing.T) {
	database := setupTestDB(t)

	// b creates a table and then fails; the table must not survive.
	failing := Unit{
		ID: "20240102_000000_second",
		Apply: Statements(
			"CREATE TABLE bb (id INTEGER PRIMARY KEY)",
			"THIS IS NOT SQL",
		),
		Revert: Statements("DROP TABLE bb"),
	}
	repo := mustRepo(t,
		tableUnit("20240101_000000_first", "aa"),
		failing,
		tableUnit("20240103_000000_third", "cc"),
	)
	runner := NewRunner(database.DB, repo)

	applied, err := runner.Migrate(context.Background())

	var aerr *ApplyError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected ApplyError, got %v", err)
	}
	if aerr.Identifier != "20240102_000000_second" {
		t.Errorf("failure should name the second unit, named %s", aerr.Identifier)
	}
	if len(applied) != 1 || applied[0] != "20240101_000000_first" {
		t.Errorf("expected only the first unit applied, got %v", applied)
	}

	if ids := ledgerIdentifiers(t, database); len(ids) != 1 || ids[0] != "20240101_000000_first" {
		t.Errorf("ledger should contain only the first unit, has %v", ids)
	}
	if !tableExists(t, database, "aa") {
		t.Error("first unit's table should remain committed")
	}
	if tableExists(t, database, "bb") {
		t.Error("failed unit's partial work should be rolled back")
	}
	if tableExists(t, database, "cc") {
		t.Error("units after the failure must not run")
	}
}

func TestRollbackRevertsInReverseAppliedOrder(t *testing.T) {
	database := setupTestDB(t)

	clock := time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC)
	ticking := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	repo := mustRepo(t,
		tableUnit("20240101_000000_first", "aa"),
		tableUnit("20240102_000000_second", "bb"),
		tableUnit("20240103_000000_third", "cc"),
	)
	runner := NewRunner(database.DB, repo, WithClock(ticking))

	if _, err := runner.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	reverted, err := runner.Rollback(context.Background(), 2)
	if err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}
	want := []string{"20240103_000000_third", "20240102_000000_second"}
	if len(reverted) != len(want) {
		t.Fatalf("expected %d reverted, got %d", len(want), len(reverted))
	}
	for i, id := range want {
		if reverted[i] != id {
			t.Errorf("reverted[%d] = %s, want %s", i, reverted[i], id)
		}
	}
	if !tableExists(t, database, "aa") || tableExists(t, database, "bb") || tableExists(t, database, "cc") {
		t.Error("only the first unit's table should remain")
	}
}

func TestRollbackFollowsLedgerOrderNotIdentifierOrder(t *testing.T) {
	database := setupTestDB(t)

	first := tableUnit("20240101_000000_first", "aa")
	second := tableUnit("20240102_000000_second", "bb")

	clock := time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC)
	ticking := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	// The second unit lands before the first exists, e.g. the first was added
	// to source later. Recorded apply order is second, then first.
	early := NewRunner(database.DB, mustRepo(t, second), WithClock(ticking))
	if _, err := early.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	full := NewRunner(database.DB, mustRepo(t, first, second), WithClock(ticking))
	if _, err := full.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	reverted, err := full.Rollback(context.Background(), 2)
	if err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}
	// Most recently applied first: the ledger's order, not identifier order.
	want := []string{"20240101_000000_first", "20240102_000000_second"}
	for i, id := range want {
		if reverted[i] != id {
			t.Errorf("reverted[%d] = %s, want %s", i, reverted[i], id)
		}
	}
}

func TestRollbackTieBreaksByIdentifierDescending(t *testing.T) {
	database := setupTestDB(t)

	fixed := time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC)
	repo := mustRepo(t,
		tableUnit("20240101_000000_first", "aa"),
		tableUnit("20240102_000000_second", "bb"),
	)
	runner := NewRunner(database.DB, repo, WithClock(func() time.Time { return fixed }))

	if _, err := runner.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	// Both entries share applied_at; identifier descending decides.
	reverted, err := runner.Rollback(context.Background(), 2)
	if err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}
	want := []string{"20240102_000000_second", "20240101_000000_first"}
	for i, id := range want {
		if reverted[i] != id {
			t.Errorf("reverted[%d] = %s, want %s", i, reverted[i], id)
		}
	}
}

func TestRollbackCountClamped(t *testing.T) {
	database := setupTestDB(t)
	repo := mustRepo(t,
		tableUnit("20240101_000000_first", "aa"),
		tableUnit("20240102_000000_second", "bb"),
		tableUnit("20240103_000000_third", "cc"),
	)
	runner := NewRunner(database.DB, repo)

	if _, err := runner.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	reverted, err := runner.Rollback(context.Background(), 5)
	if err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}
	if len(reverted) != 3 {
		t.Errorf("expected all 3 reverted, got %d", len(reverted))
	}
	if ids := ledgerIdentifiers(t, database); len(ids) != 0 {
		t.Errorf("ledger should be empty, has %v", ids)
	}
}

func TestRollbackUnresolvableUnit(t *testing.T) {
	database := setupTestDB(t)

	unit := tableUnit("20240101_000000_first", "aa")
	if _, err := NewRunner(database.DB, mustRepo(t, unit)).Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	// The unit's source is gone from the repository.
	gone := NewRunner(database.DB, mustRepo(t))
	_, err := gone.Rollback(context.Background(), 1)

	var uerr *UnresolvableRevertError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UnresolvableRevertError, got %v", err)
	}
	if uerr.Identifier != "20240101_000000_first" {
		t.Errorf("error should name the missing unit, named %s", uerr.Identifier)
	}
	if ids := ledgerIdentifiers(t, database); len(ids) != 1 {
		t.Errorf("ledger entry must survive a failed rollback, has %v", ids)
	}
}

func TestRollbackFailureKeepsLedgerEntry(t *testing.T) {
	database := setupTestDB(t)

	unit := Unit{
		ID:     "20240101_000000_first",
		Apply:  Statements("CREATE TABLE aa (id INTEGER PRIMARY KEY)"),
		Revert: Statements("THIS IS NOT SQL"),
	}
	runner := NewRunner(database.DB, mustRepo(t, unit))

	if _, err := runner.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	_, err := runner.Rollback(context.Background(), 1)
	var rerr *RevertError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RevertError, got %v", err)
	}
	if rerr.Identifier != "20240101_000000_first" {
		t.Errorf("error should name the failing unit, named %s", rerr.Identifier)
	}
	if ids := ledgerIdentifiers(t, database); len(ids) != 1 {
		t.Errorf("ledger entry must survive, has %v", ids)
	}
	if !tableExists(t, database, "aa") {
		t.Error("failed revert must leave schema unchanged")
	}
}

func TestApplyRevertRoundTrip(t *testing.T) {
	database := setupTestDB(t)

	unit := Unit{
		ID: "20240101_000000_first",
		Apply: Statements(
			"CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT)",
			"CREATE INDEX idx_posts_title ON posts(title)",
		),
		Revert: Statements(
			"DROP INDEX idx_posts_title",
			"DROP TABLE posts",
		),
	}
	runner := NewRunner(database.DB, mustRepo(t, unit))

	if _, err := runner.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if _, err := runner.Rollback(context.Background(), 1); err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}

	var n int
	err := database.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE name IN ('posts', 'idx_posts_title')",
	).Scan(&n)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if n != 0 {
		t.Errorf("schema objects should be gone after round trip, %d remain", n)
	}
	if ids := ledgerIdentifiers(t, database); len(ids) != 0 {
		t.Errorf("ledger should be empty after round trip, has %v", ids)
	}
}

func TestStatusScenario(t *testing.T) {
	database := setupTestDB(t)

	repo := mustRepo(t,
		tableUnit("20240101_000000_create_users", "users_x"),
		tableUnit("20240102_000000_add_first_name", "first_names"),
	)
	runner := NewRunner(database.DB, repo)
	ctx := context.Background()

	// Fresh database: everything pending.
	statuses, err := runner.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if len(statuses) != 2 || statuses[0].Applied || statuses[1].Applied {
		t.Fatalf("fresh database should report 2 pending units, got %+v", statuses)
	}

	if _, err := runner.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	statuses, err = runner.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("%s should be applied", s.Identifier)
		}
		if s.AppliedAt.IsZero() {
			t.Errorf("%s should carry applied_at", s.Identifier)
		}
	}

	if _, err := runner.Rollback(ctx, 1); err != nil {
		t.Fatalf("Rollback() error: %v", err)
	}
	statuses, err = runner.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if !statuses[0].Applied {
		t.Errorf("%s should remain applied", statuses[0].Identifier)
	}
	if statuses[1].Applied {
		t.Errorf("%s should be pending again after rollback", statuses[1].Identifier)
	}
	if ids := ledgerIdentifiers(t, database); len(ids) != 1 || ids[0] != "20240101_000000_create_users" {
		t.Errorf("ledger should hold only the first unit, has %v", ids)
	}
}

func TestStatusReportsOrphanedLedgerEntries(t *testing.T) {
	database := setupTestDB(t)

	unit := tableUnit("20240101_000000_first", "aa")
	if _, err := NewRunner(database.DB, mustRepo(t, unit)).Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	gone := NewRunner(database.DB, mustRepo(t))
	statuses, err := gone.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("expected 1 status row, got %d", len(statuses))
	}
	if !statuses[0].Applied || !statuses[0].Missing {
		t.Errorf("orphaned entry should be applied and missing, got %+v", statuses[0])
	}
}

func TestMigrateContextCancellation(t *testing.T) {
	database := setupTestDB(t)

	unit := tableUnit("20240101_000000_first", "aa")
	runner := NewRunner(database.DB, mustRepo(t, unit))

	// Bootstrap the ledger, then cancel before the unit runs.
	if _, err := NewRunner(database.DB, mustRepo(t)).Migrate(context.Background()); err != nil {
		t.Fatalf("bootstrap Migrate() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Migrate(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}
	if ids := ledgerIdentifiers(t, database); len(ids) != 0 {
		t.Errorf("nothing should be recorded after cancellation, has %v", ids)
	}
}
