package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// dialect captures the SQL differences between the supported databases.
// Queries are written once with ? placeholders and rebound per dialect.
type dialect struct {
	name       string
	numbered   bool   // $1, $2... placeholders
	like       string // case-insensitive LIKE operator
	stringAgg  string // format with one %s for the aggregated expression
	primaryKey string // auto-increment primary key column type
	timestamp  string
}

var dialects = map[string]dialect{
	DriverPostgres: {
		name:       DriverPostgres,
		numbered:   true,
		like:       "ILIKE",
		stringAgg:  "STRING_AGG(%s, ', ')",
		primaryKey: "BIGSERIAL PRIMARY KEY",
		timestamp:  "TIMESTAMPTZ",
	},
	DriverSQLite: {
		name:       DriverSQLite,
		like:       "LIKE",
		stringAgg:  "GROUP_CONCAT(%s, ', ')",
		primaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
		timestamp:  "TIMESTAMP",
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	return d, nil
}

// rebind converts ? placeholders to the dialect's form.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) aggregate(expr string) string {
	return fmt.Sprintf(d.stringAgg, expr)
}
