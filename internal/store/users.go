package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// User is a registered bot user keyed by Telegram ID.
type User struct {
	ID         int64
	TelegramID int64
	Username   string
	FirstName  string
	Language   string
	Role       string
	CreatedAt  string
}

// UserByTelegramID returns the user with the given Telegram ID, or ErrNotFound.
func (s *Store) UserByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, telegram_id, COALESCE(username, ''), first_name, language, role, created_at
		FROM users WHERE telegram_id = ?
	`, telegramID)

	var u User
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.Language, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user %d: %w", telegramID, err)
	}
	return &u, nil
}

// UserByID returns the user with the given row ID, or ErrNotFound.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, telegram_id, COALESCE(username, ''), first_name, language, role, created_at
		FROM users WHERE id = ?
	`, id)

	var u User
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.Language, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user id %d: %w", id, err)
	}
	return &u, nil
}

// GetOrCreateUser returns the existing user or creates one with the given
// profile fields.
func (s *Store) GetOrCreateUser(ctx context.Context, telegramID int64, firstName, username, languageCode string) (*User, error) {
	u, err := s.UserByTelegramID(ctx, telegramID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if firstName == "" {
		firstName = "Unknown"
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, first_name, username, language)
		VALUES (?, ?, ?, ?)
	`, telegramID, firstName, username, languageCode)
	if err != nil {
		return nil, fmt.Errorf("create user %d: %w", telegramID, err)
	}
	return s.UserByTelegramID(ctx, telegramID)
}

// SetUserLanguage updates the user's catalog language.
func (s *Store) SetUserLanguage(ctx context.Context, telegramID int64, language string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET language = ?, updated_at = datetime('now') WHERE telegram_id = ?
	`, language, telegramID)
	if err != nil {
		return fmt.Errorf("set language for %d: %w", telegramID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserRole promotes or demotes a user.
func (s *Store) SetUserRole(ctx context.Context, telegramID int64, role string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET role = ?, updated_at = datetime('now') WHERE telegram_id = ?
	`, role, telegramID)
	if err != nil {
		return fmt.Errorf("set role for %d: %w", telegramID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
