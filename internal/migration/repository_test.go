package migration

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func noop(ctx context.Context, tx *sql.Tx) error { return nil }

func TestNewRepositorySortsUnits(t *testing.T) {
	repo, err := NewRepository([]Unit{
		{ID: "20240103_000000_third", Apply: noop, Revert: noop},
		{ID: "20240101_000000_first", Apply: noop, Revert: noop},
		{ID: "20240102_000000_second", Apply: noop, Revert: noop},
	})
	if err != nil {
		t.Fatalf("NewRepository() error: %v", err)
	}

	units := repo.List()
	want := []string{"20240101_000000_first", "20240102_000000_second", "20240103_000000_third"}
	if len(units) != len(want) {
		t.Fatalf("expected %d units, got %d", len(want), len(units))
	}
	for i, id := range want {
		if units[i].ID != id {
			t.Errorf("units[%d].ID = %s, want %s", i, units[i].ID, id)
		}
	}
}

func TestNewRepositoryRejectsDuplicates(t *testing.T) {
	_, err := NewRepository([]Unit{
		{ID: "20240101_000000_first", Apply: noop, Revert: noop},
		{ID: "20240101_000000_first", Apply: noop, Revert: noop},
	})

	var derr *DiscoveryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DiscoveryError, got %v", err)
	}
	if derr.Identifier != "20240101_000000_first" {
		t.Errorf("unexpected identifier in error: %s", derr.Identifier)
	}
}

func TestNewRepositoryRejectsMalformedUnits(t *testing.T) {
	tests := []struct {
		name string
		unit Unit
	}{
		{"bad identifier", Unit{ID: "not_an_identifier", Apply: noop, Revert: noop}},
		{"missing apply", Unit{ID: "20240101_000000_first", Revert: noop}},
		{"missing revert", Unit{ID: "20240101_000000_first", Apply: noop}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRepository([]Unit{tt.unit})
			var derr *DiscoveryError
			if !errors.As(err, &derr) {
				t.Fatalf("expected DiscoveryError, got %v", err)
			}
		})
	}
}

func TestRepositoryGet(t *testing.T) {
	repo, err := NewRepository([]Unit{
		{ID: "20240101_000000_first", Apply: noop, Revert: noop},
	})
	if err != nil {
		t.Fatalf("NewRepository() error: %v", err)
	}

	if _, err := repo.Get("20240101_000000_first"); err != nil {
		t.Errorf("Get() error: %v", err)
	}
	if _, err := repo.Get("20240102_000000_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
