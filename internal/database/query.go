package database

import (
	"strings"
)

// QueryBuilder rewrites queries written with ? placeholders for the active
// dialect, so each history query is written once.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a QueryBuilder for dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build numbers the ? placeholders of query for the dialect. A ? inside a
// single-quoted literal is text and is left alone.
//
//	input:    SELECT id FROM topologies WHERE fingerprint = ? AND seed = ?
//	Postgres: SELECT id FROM topologies WHERE fingerprint = $1 AND seed = $2
func (qb *QueryBuilder) Build(query string) string {
	if _, ok := qb.dialect.(*SQLiteDialect); ok {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	position := 1
	quoted := false

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			b.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// BuildWithReturning is Build plus a RETURNING clause for column on dialects
// without LastInsertId.
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	converted := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		converted += qb.dialect.ReturningClause(column)
	}
	return converted
}

// insertQuery writes an INSERT of columns into table with one placeholder
// per column, before dialect conversion.
func insertQuery(table string, columns ...string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" + marks + ")"
}
