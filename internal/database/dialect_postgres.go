package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresDialect is the shared store used by the service and migrations.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string {
	return string(DialectPostgres)
}

// Placeholder renders "$n".
func (d *PostgresDialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (d *PostgresDialect) SupportsLastInsertID() bool {
	return false
}

func (d *PostgresDialect) ReturningClause(column string) string {
	return " RETURNING " + column
}

// InitStatements pin the session to UTC so created_at round-trips unchanged.
func (d *PostgresDialect) InitStatements() []string {
	return []string{"SET TIME ZONE 'UTC'"}
}

// IsDuplicateKeyError checks the pq error code first and the message text
// second, so errors that lost their type still match.
func (d *PostgresDialect) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, uniqueViolation)
}
