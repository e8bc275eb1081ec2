package migrations

import "github.com/markb/bazarbot/internal/migration"

func init() {
	register(migration.Unit{
		ID: "20241001_000001_create_initial_schema",
		Apply: migration.Statements(
			`CREATE TABLE categories (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				name_ru     TEXT NOT NULL,
				name_uz     TEXT NOT NULL,
				name_en     TEXT NOT NULL,
				is_active   INTEGER NOT NULL DEFAULT 1,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			)`,
			`CREATE TABLE brands (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				name        TEXT NOT NULL,
				category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
				is_active   INTEGER NOT NULL DEFAULT 1,
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			)`,
			`CREATE TABLE users (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				telegram_id  INTEGER NOT NULL UNIQUE,
				username     TEXT,
				language     TEXT NOT NULL DEFAULT 'ru',
				created_at   TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
			)`,
			`CREATE TABLE advertisements (
				id                INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id           INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				category_id       INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
				brand_id          INTEGER NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
				model             TEXT NOT NULL,
				price             INTEGER NOT NULL,
				description       TEXT NOT NULL DEFAULT '',
				phone             TEXT NOT NULL DEFAULT '',
				photo_path        TEXT,
				status            TEXT NOT NULL DEFAULT 'pending'
				                  CHECK (status IN ('pending', 'approved', 'rejected', 'sold')),
				rejection_reason  TEXT,
				moderated_at      TEXT,
				created_at        TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
			)`,
			`CREATE TABLE favorites (
				id                INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id           INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				advertisement_id  INTEGER NOT NULL REFERENCES advertisements(id) ON DELETE CASCADE,
				created_at        TEXT NOT NULL DEFAULT (datetime('now')),
				UNIQUE (user_id, advertisement_id)
			)`,
			`CREATE TABLE user_temp_data (
				user_id     INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
				data        TEXT NOT NULL DEFAULT '{}',
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			)`,
			`INSERT INTO categories (name_ru, name_uz, name_en) VALUES
				('Смартфоны', 'Smartfonlar', 'smartphones'),
				('Планшеты', 'Planshetlar', 'tablets'),
				('Ноутбуки', 'Noutbuklar', 'laptops'),
				('Наушники', 'Quloqchinlar', 'headphones'),
				('Часы', 'Soatlar', 'watches')`,
			`INSERT INTO brands (name, category_id) VALUES
				('Apple', 1), ('Samsung', 1), ('Xiaomi', 1), ('Huawei', 1),
				('Apple', 2), ('Samsung', 2), ('Lenovo', 2),
				('Apple', 3), ('Dell', 3), ('HP', 3), ('Lenovo', 3),
				('Apple', 4), ('Sony', 4), ('JBL', 4), ('Bose', 4),
				('Apple', 5), ('Samsung', 5), ('Garmin', 5), ('Fitbit', 5)`,
		),
		Revert: migration.Statements(
			`DROP TABLE user_temp_data`,
			`DROP TABLE favorites`,
			`DROP TABLE advertisements`,
			`DROP TABLE brands`,
			`DROP TABLE categories`,
			`DROP TABLE users`,
		),
	})
}
