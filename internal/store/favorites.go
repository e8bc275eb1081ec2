package store

import (
	"context"
	"fmt"
)

// AddFavorite saves an advertisement to a user's favorites. Saving twice is
// not an error.
func (s *Store) AddFavorite(ctx context.Context, userID, adID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO favorites (user_id, advertisement_id) VALUES (?, ?)
	`, userID, adID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes a favorite if present.
func (s *Store) RemoveFavorite(ctx context.Context, userID, adID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM favorites WHERE user_id = ? AND advertisement_id = ?
	`, userID, adID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether the user saved the advertisement.
func (s *Store) IsFavorite(ctx context.Context, userID, adID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM favorites WHERE user_id = ? AND advertisement_id = ?
	`, userID, adID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query favorite: %w", err)
	}
	return n > 0, nil
}

// Favorites returns the user's saved advertisements, newest save first.
func (s *Store) Favorites(ctx context.Context, userID int64) ([]Advertisement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.user_id, a.category_id, a.brand_id, a.model, a.price, a.description,
		       COALESCE(a.city, ''), COALESCE(a.contact_phone, ''), COALESCE(a.photo_path, ''),
		       a.status, COALESCE(a.rejection_reason, ''), a.created_at
		FROM favorites f
		JOIN advertisements a ON a.id = f.advertisement_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, f.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var out []Advertisement
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
