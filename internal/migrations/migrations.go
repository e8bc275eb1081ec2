// Package migrations holds bazarbot's schema migration units. Each unit lives
// in its own file named after its identifier and registers itself from an
// init function; All returns the registered set for the runner's repository.
package migrations

import "github.com/markb/bazarbot/internal/migration"

var registry []migration.Unit

func register(u migration.Unit) {
	registry = append(registry, u)
}

// All returns every registered unit. Ordering and validation are the
// repository's job, not the registry's.
func All() []migration.Unit {
	out := make([]migration.Unit, len(registry))
	copy(out, registry)
	return out
}
