package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Scaffolder writes new migration unit source files into the migrations
// package directory.
type Scaffolder struct {
	Dir string
	now func() time.Time
}

// NewScaffolder creates a scaffolder targeting dir.
func NewScaffolder(dir string) *Scaffolder {
	return &Scaffolder{Dir: dir, now: time.Now}
}

const scaffoldTemplate = `package migrations

import "github.com/markb/bazarbot/internal/migration"

func init() {
	register(migration.Unit{
		ID: %q,
		Apply: migration.Statements(
			// forward DDL statements
		),
		Revert: migration.Statements(
			// inverse DDL statements, reverse order
		),
	})
}
`

// Create writes an empty unit template named by the current timestamp plus
// slug and returns the new identifier and file path. Identifiers carry
// second resolution; a collision within the same second returns
// DuplicateIdentifierError and the caller retries.
func (s *Scaffolder) Create(slug string) (identifier, path string, err error) {
	identifier, err = NewIdentifier(s.now(), slug)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create migrations directory: %w", err)
	}

	path = filepath.Join(s.Dir, identifier+".go")
	if _, err := os.Stat(path); err == nil {
		return "", "", &DuplicateIdentifierError{Identifier: identifier}
	}

	content := fmt.Sprintf(scaffoldTemplate, identifier)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", "", fmt.Errorf("write migration file: %w", err)
	}
	return identifier, path, nil
}
