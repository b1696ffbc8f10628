package repository

import (
	"strconv"
	"strings"
	"time"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// sqliteTimeLayout sorts lexicographically, so range filters work on the text column.
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

func dialectOf(driver string) Dialect {
	if strings.EqualFold(driver, "postgres") {
		return Postgres
	}
	return SQLite
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func (d Dialect) rebind(q string) string {
	if d != Postgres {
		return q
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(q) + 8)
	for _, r := range q {
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

// timeArg encodes t for a TIMESTAMP column.
func (d Dialect) timeArg(t time.Time) any {
	if d == Postgres {
		return t.UTC()
	}
	return t.UTC().Format(sqliteTimeLayout)
}
