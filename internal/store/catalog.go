package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Category is a top-level product category with localized names.
type Category struct {
	ID     int64
	NameRU string
	NameUZ string
	NameEN string
}

// Name returns the category name for a catalog language.
func (c Category) Name(lang string) string {
	switch lang {
	case "uz":
		return c.NameUZ
	case "en":
		return c.NameEN
	default:
		return c.NameRU
	}
}

// Brand belongs to one category.
type Brand struct {
	ID         int64
	Name       string
	CategoryID int64
}

// Categories returns all active categories ordered by ID.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name_ru, name_uz, name_en
		FROM categories WHERE is_active = 1 ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.NameRU, &c.NameUZ, &c.NameEN); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Category returns one category by ID, or ErrNotFound.
func (s *Store) Category(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name_ru, name_uz, name_en FROM categories WHERE id = ?
	`, id).Scan(&c.ID, &c.NameRU, &c.NameUZ, &c.NameEN)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query category %d: %w", id, err)
	}
	return &c, nil
}

// Brands returns the active brands of a category ordered by name.
func (s *Store) Brands(ctx context.Context, categoryID int64) ([]Brand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category_id
		FROM brands WHERE category_id = ? AND is_active = 1 ORDER BY name
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}
	defer rows.Close()

	var out []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.CategoryID); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Brand returns one brand by ID, or ErrNotFound.
func (s *Store) Brand(ctx context.Context, id int64) (*Brand, error) {
	var b Brand
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category_id FROM brands WHERE id = ?
	`, id).Scan(&b.ID, &b.Name, &b.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query brand %d: %w", id, err)
	}
	return &b, nil
}
