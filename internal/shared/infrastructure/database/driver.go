package database

import (
	"strconv"
	"strings"
)

// Driver identifies the backend of the record mirror.
type Driver string

const (
	// DriverPostgres stores the mirror in PostgreSQL.
	DriverPostgres Driver = "postgres"
	// DriverSQLite stores the mirror in a local SQLite file.
	DriverSQLite Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// IsValid reports whether the driver is supported.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

// DetectDriver picks a driver from a connection string. An empty string
// selects SQLite so the mirror works without any setup.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return DriverSQLite
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(url, ext) {
			return DriverSQLite
		}
	}
	return DriverPostgres
}

// SQLitePath extracts a file path from a SQLite connection string.
func SQLitePath(url string) string {
	return strings.TrimPrefix(url, "sqlite://")
}

// Rebind rewrites '?' placeholders into the driver's native form.
// Queries are written once with '?' and rebound for PostgreSQL.
func (d Driver) Rebind(query string) string {
	if d != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
