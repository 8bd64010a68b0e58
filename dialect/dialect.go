package dialect

import "slices"

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Dialects lists all supported dialects.
var Dialects = []string{MySQL, Postgres, SQLite}

// Valid reports if name is a supported dialect.
func Valid(name string) bool {
	return slices.Contains(Dialects, name)
}
