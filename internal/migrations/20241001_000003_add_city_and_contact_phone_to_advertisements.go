package migrations

import "github.com/markb/bazarbot/internal/migration"

func init() {
	register(migration.Unit{
		ID: "20241001_000003_add_city_and_contact_phone_to_advertisements",
		Apply: migration.Statements(
			`ALTER TABLE advertisements ADD COLUMN city TEXT NOT NULL DEFAULT 'Unknown'`,
			`ALTER TABLE advertisements ADD COLUMN contact_phone TEXT NOT NULL DEFAULT ''`,
		),
		Revert: migration.Statements(
			`ALTER TABLE advertisements DROP COLUMN contact_phone`,
			`ALTER TABLE advertisements DROP COLUMN city`,
		),
	})
}
