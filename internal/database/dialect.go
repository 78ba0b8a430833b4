package database

// Dialect covers the SQL differences between the SQLite and PostgreSQL
// stores: placeholders, how a new dungeon id comes back, session setup and
// how a fingerprint collision is reported.
type Dialect interface {
	// DriverName is the database/sql driver to open.
	DriverName() string

	// Placeholder renders the 1-based bind parameter n.
	Placeholder(n int) string

	// SupportsLastInsertID is false when inserts must use RETURNING.
	SupportsLastInsertID() bool

	// ReturningClause is appended to an INSERT to read back column.
	ReturningClause(column string) string

	// InitStatements run once on every new database handle.
	InitStatements() []string

	// IsDuplicateKeyError reports a unique constraint violation, which for
	// the dungeons table means the fingerprint is already stored.
	IsDuplicateKeyError(err error) bool
}

// DialectType names a supported store.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect returns the dialect for t. Unknown types get SQLite.
func NewDialect(t DialectType) Dialect {
	if t == DialectPostgres {
		return &PostgresDialect{}
	}
	return &SQLiteDialect{}
}
