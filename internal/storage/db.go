package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialects supported by DB.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

// DB wraps a SQL connection together with its dialect.
type DB struct {
	conn    *sql.DB
	dialect string
}

// OpenSQLite opens (or creates) the SQLite file at path.
func OpenSQLite(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer
	conn.SetMaxOpenConns(1)
	return newDB(conn, DialectSQLite)
}

// OpenSQL opens a postgres or mysql database from a DSN.
func OpenSQL(dialect, dsn string) (*DB, error) {
	if dialect != DialectPostgres && dialect != DialectMySQL {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	conn, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(10 * time.Minute)
	return newDB(conn, dialect)
}

func newDB(conn *sql.DB, dialect string) (*DB, error) {
	db := &DB{conn: conn, dialect: dialect}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Dialect returns the SQL dialect name.
func (db *DB) Dialect() string {
	return db.dialect
}

// rebind rewrites ? placeholders for dialects that number them.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
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

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.conn.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.conn.QueryRowContext(ctx, db.rebind(query), args...)
}

// upsert builds an insert that replaces the row on a primary key conflict.
func (db *DB) upsert(table string, cols []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks)

	var sets []string
	for _, c := range cols[1:] {
		if db.dialect == DialectMySQL {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
		} else {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	if db.dialect == DialectMySQL {
		return q + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return q + fmt.Sprintf(" ON CONFLICT(%s) DO UPDATE SET ", cols[0]) + strings.Join(sets, ", ")
}

func (db *DB) migrate(ctx context.Context) error {
	text, key := "TEXT", "TEXT"
	if db.dialect == DialectMySQL {
		text, key = "LONGTEXT", "VARCHAR(64)"
	}
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id ` + key + ` PRIMARY KEY,
			name ` + text + ` NOT NULL,
			body ` + text + ` NOT NULL,
			last_edited BIGINT NOT NULL
		)`,
		// Committed history entries, newest kept
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id ` + key + ` PRIMARY KEY,
			document_id ` + key + ` NOT NULL,
			seq BIGINT NOT NULL,
			description ` + text + ` NOT NULL,
			batch_id ` + text + ` NOT NULL,
			snapshot ` + text + ` NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	}
	if db.dialect == DialectMySQL {
		migrations = append(migrations, `CREATE INDEX idx_journal_document ON journal_entries(document_id, seq)`)
	} else {
		migrations = append(migrations, `CREATE INDEX IF NOT EXISTS idx_journal_document ON journal_entries(document_id, seq)`)
	}

	for _, m := range migrations {
		if _, err := db.conn.ExecContext(ctx, m); err != nil {
			// MySQL has no IF NOT EXISTS for indexes
			if db.dialect == DialectMySQL && strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}
