package database

import (
	"strings"
)

// QueryBuilder rewrites the "?" placeholders every query in this package is
// written with into the dialect's bind syntax.
type QueryBuilder struct {
	dialect Dialect
}

func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build numbers each "?" for dialects that need it:
//
//	"SELECT id FROM dungeons WHERE seed = ? AND width = ?"
//	-> "SELECT id FROM dungeons WHERE seed = $1 AND width = $2"
//
// Queries never carry "?" inside string literals.
func (qb *QueryBuilder) Build(query string) string {
	if qb.dialect.Placeholder(1) == "?" || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 2*strings.Count(query, "?"))
	n := 0
	for {
		i := strings.IndexByte(query, '?')
		if i < 0 {
			b.WriteString(query)
			return b.String()
		}
		n++
		b.WriteString(query[:i])
		b.WriteString(qb.dialect.Placeholder(n))
		query = query[i+1:]
	}
}

// BuildWithReturning is Build for an INSERT whose new column value is read
// back: PostgreSQL gets a RETURNING clause, SQLite uses LastInsertId.
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	q := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		q += qb.dialect.ReturningClause(column)
	}
	return q
}
