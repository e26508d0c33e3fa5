package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"xtr/internal/logging"
	"xtr/internal/persist"
)

const subsystem = "storage"

// The same statements run on sqlite and mysql
const (
	createSessionsTable = `CREATE TABLE IF NOT EXISTS session_references (
	session    VARCHAR(191)  NOT NULL,
	position   INTEGER       NOT NULL,
	project_id VARCHAR(191)  NOT NULL,
	type_name  VARCHAR(1024) NOT NULL,
	PRIMARY KEY (session, position)
)`
	deleteSession = `DELETE FROM session_references WHERE session = ?`
	insertRef     = `INSERT INTO session_references (session, position, project_id, type_name) VALUES (?, ?, ?, ?)`
	selectSession = `SELECT project_id, type_name FROM session_references WHERE session = ? ORDER BY position`
	countSession  = `SELECT COUNT(*) FROM session_references WHERE session = ?`
)

// SQLSessionStore keeps sessions in a sqlite file or a shared mysql database
type SQLSessionStore struct {
	db *sql.DB
}

// OpenSQLSessionStore connects to dsn with driver ("sqlite" or "mysql") and
// creates the schema if needed.
func OpenSQLSessionStore(driver, dsn string) (*SQLSessionStore, error) {
	if driver == "sqlite" && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}
	if driver == "sqlite" {
		// a single writer avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s store: %w", driver, err)
	}
	if _, err := db.Exec(createSessionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	logging.Debug(subsystem, "opened %s session store", driver)
	return &SQLSessionStore{db: db}, nil
}

func (s *SQLSessionStore) SaveSession(name string, refs []persist.Reference) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(deleteSession, name); err != nil {
		return fmt.Errorf("clear session %s: %w", name, err)
	}
	stmt, err := tx.Prepare(insertRef)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ref := range refs {
		if _, err = stmt.Exec(name, i, ref.ProjectID, ref.TypeName); err != nil {
			return fmt.Errorf("insert %s: %w", ref.TypeName, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadSession cannot tell an empty saved session from a missing one; both
// return ErrNoSession.
func (s *SQLSessionStore) LoadSession(name string) ([]persist.Reference, error) {
	var n int
	if err := s.db.QueryRow(countSession, name).Scan(&n); err != nil {
		return nil, fmt.Errorf("count session %s: %w", name, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSession)
	}

	rows, err := s.db.Query(selectSession, name)
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", name, err)
	}
	defer rows.Close()

	refs := make([]persist.Reference, 0, n)
	for rows.Next() {
		var ref persist.Reference
		if err := rows.Scan(&ref.ProjectID, &ref.TypeName); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *SQLSessionStore) Close() error {
	return s.db.Close()
}
