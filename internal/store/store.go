package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverSQLServer = "sqlserver"
)

// Store persists the portal's content and activity log in a relational
// database accessed through sqlx. SQLite is the default; PostgreSQL, MySQL
// and SQL Server are supported for hosted deployments.
type Store struct {
	db     *sqlx.DB
	driver string
}

// NewStore opens a SQLite store in dataDir. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	return Open(DriverSQLite, dataDir)
}

// Open connects to the database identified by driver and dsn and applies
// migrations. For SQLite the dsn is a data directory ("" for in-memory).
func Open(driver, dsn string) (*Store, error) {
	var (
		sqlDriver string
		connStr   string
	)
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		sqlDriver = "sqlite"
		if dsn == "" {
			connStr = ":memory:?_journal_mode=WAL"
		} else {
			if err := os.MkdirAll(dsn, 0755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			connStr = filepath.Join(dsn, "portal.db") + "?_journal_mode=WAL&_busy_timeout=5000"
		}
	case DriverPostgres:
		sqlDriver = "pgx"
		connStr = dsn
	case DriverMySQL:
		sqlDriver = "mysql"
		connStr = mysqlDSN(dsn)
	case DriverSQLServer:
		sqlDriver = "sqlserver"
		connStr = dsn
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(sqlDriver, connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// NewWithDB wraps an existing connection without running migrations.
func NewWithDB(db *sqlx.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// mysqlDSN makes sure DATETIME columns scan into time.Time.
func mysqlDSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

// pageClause returns the ORDER BY and paging suffix for a newest-first
// listing, with its arguments in placeholder order.
func (s *Store) pageClause(offset, limit int) (string, []any) {
	const order = ` ORDER BY created_at DESC, id DESC`
	if s.driver == DriverSQLServer {
		return order + ` OFFSET ? ROWS FETCH NEXT ? ROWS ONLY`, []any{offset, limit}
	}
	return order + ` LIMIT ? OFFSET ?`, []any{limit, offset}
}

// isUniqueViolation matches the unique constraint errors of all supported drivers.
func isUniqueViolation(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate key") ||
		strings.Contains(lower, "duplicate entry") ||
		strings.Contains(lower, "violation of unique key")
}
