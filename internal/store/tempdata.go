package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// TempData carries the bot's per-user conversation state: the current flow
// step plus the fields collected so far.
type TempData struct {
	State string            `json:"state,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// TempData returns the user's conversation state, empty if none is stored.
func (s *Store) TempData(ctx context.Context, userID int64) (*TempData, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM user_temp_data WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return &TempData{Data: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query temp data: %w", err)
	}

	var td TempData
	if err := json.Unmarshal([]byte(raw), &td); err != nil {
		return nil, fmt.Errorf("decode temp data: %w", err)
	}
	if td.Data == nil {
		td.Data = map[string]string{}
	}
	return &td, nil
}

// SetTempData upserts the user's conversation state.
func (s *Store) SetTempData(ctx context.Context, userID int64, td *TempData) error {
	raw, err := json.Marshal(td)
	if err != nil {
		return fmt.Errorf("encode temp data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_temp_data (user_id, data) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET data = excluded.data, updated_at = datetime('now')
	`, userID, string(raw))
	if err != nil {
		return fmt.Errorf("set temp data: %w", err)
	}
	return nil
}

// ClearTempData resets the user's conversation state.
func (s *Store) ClearTempData(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM user_temp_data WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear temp data: %w", err)
	}
	return nil
}
