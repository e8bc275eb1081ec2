package migrations

import "github.com/markb/bazarbot/internal/migration"

func init() {
	register(migration.Unit{
		ID: "20241001_000002_add_first_name_to_users",
		Apply: migration.Statements(
			`ALTER TABLE users ADD COLUMN first_name TEXT NOT NULL DEFAULT 'Unknown'`,
		),
		Revert: migration.Statements(
			`ALTER TABLE users DROP COLUMN first_name`,
		),
	})
}
