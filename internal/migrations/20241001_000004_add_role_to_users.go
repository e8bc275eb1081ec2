package migrations

import "github.com/markb/bazarbot/internal/migration"

func init() {
	register(migration.Unit{
		ID: "20241001_000004_add_role_to_users",
		Apply: migration.Statements(
			`ALTER TABLE users ADD COLUMN role TEXT NOT NULL DEFAULT 'user'`,
		),
		Revert: migration.Statements(
			`ALTER TABLE users DROP COLUMN role`,
		),
	})
}
