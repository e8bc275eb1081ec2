package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Advertisement is one marketplace listing.
type Advertisement struct {
	ID              int64
	UserID          int64
	CategoryID      int64
	BrandID         int64
	Model           string
	Price           int64
	Description     string
	City            string
	ContactPhone    string
	PhotoPath       string
	Status          string
	RejectionReason string
	CreatedAt       string
}

// AdFilter narrows Advertisements queries. Zero fields are ignored except
// Status, which defaults to approved.
type AdFilter struct {
	CategoryID int64
	BrandID    int64
	Status     string
	Limit      int
	Offset     int
}

const adColumns = `
	id, user_id, category_id, brand_id, model, price, description,
	COALESCE(city, ''), COALESCE(contact_phone, ''), COALESCE(photo_path, ''),
	status, COALESCE(rejection_reason, ''), created_at`

func scanAd(row interface{ Scan(...any) error }) (*Advertisement, error) {
	var a Advertisement
	err := row.Scan(
		&a.ID, &a.UserID, &a.CategoryID, &a.BrandID, &a.Model, &a.Price, &a.Description,
		&a.City, &a.ContactPhone, &a.PhotoPath, &a.Status, &a.RejectionReason, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAdvertisement inserts a new pending listing and returns its ID.
func (s *Store) CreateAdvertisement(ctx context.Context, a *Advertisement) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO advertisements
			(user_id, category_id, brand_id, model, price, description, city, contact_phone, photo_path, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')
	`, a.UserID, a.CategoryID, a.BrandID, a.Model, a.Price, a.Description, a.City, a.ContactPhone, a.PhotoPath)
	if err != nil {
		return 0, fmt.Errorf("create advertisement: %w", err)
	}
	return res.LastInsertId()
}

// Advertisement returns one listing by ID, or ErrNotFound.
func (s *Store) Advertisement(ctx context.Context, id int64) (*Advertisement, error) {
	a, err := scanAd(s.db.QueryRowContext(ctx,
		`SELECT `+adColumns+` FROM advertisements WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query advertisement %d: %w", id, err)
	}
	return a, nil
}

// Advertisements returns listings matching the filter, newest first.
func (s *Store) Advertisements(ctx context.Context, f AdFilter) ([]Advertisement, error) {
	var (
		where []string
		args  []any
	)
	status := f.Status
	if status == "" {
		status = StatusApproved
	}
	where = append(where, "status = ?")
	args = append(args, status)
	if f.CategoryID > 0 {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.BrandID > 0 {
		where = append(where, "brand_id = ?")
		args = append(args, f.BrandID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+adColumns+` FROM advertisements
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query advertisements: %w", err)
	}
	defer rows.Close()

	var out []Advertisement
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advertisement: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// UserAdvertisements returns a user's own listings in any status, newest first.
func (s *Store) UserAdvertisements(ctx context.Context, userID int64) ([]Advertisement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+adColumns+` FROM advertisements
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user advertisements: %w", err)
	}
	defer rows.Close()

	var out []Advertisement
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advertisement: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// PendingAdvertisements returns the moderation queue, oldest first.
func (s *Store) PendingAdvertisements(ctx context.Context) ([]Advertisement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+adColumns+` FROM advertisements
		 WHERE status = 'pending' ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query pending advertisements: %w", err)
	}
	defer rows.Close()

	var out []Advertisement
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advertisement: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ApproveAdvertisement moves a pending listing to approved.
func (s *Store) ApproveAdvertisement(ctx context.Context, id int64) error {
	return s.moderate(ctx, id, StatusApproved, "")
}

// RejectAdvertisement moves a pending listing to rejected with a reason.
func (s *Store) RejectAdvertisement(ctx context.Context, id int64, reason string) error {
	return s.moderate(ctx, id, StatusRejected, reason)
}

func (s *Store) moderate(ctx context.Context, id int64, status, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE advertisements
		SET status = ?, rejection_reason = NULLIF(?, ''),
		    moderated_at = datetime('now'), updated_at = datetime('now')
		WHERE id = ? AND status = 'pending'
	`, status, reason, id)
	if err != nil {
		return fmt.Errorf("moderate advertisement %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAdvertisementSold marks an approved listing sold, owner-checked.
func (s *Store) MarkAdvertisementSold(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE advertisements
		SET status = 'sold', updated_at = datetime('now')
		WHERE id = ? AND user_id = ? AND status = 'approved'
	`, id, userID)
	if err != nil {
		return fmt.Errorf("mark advertisement %d sold: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
