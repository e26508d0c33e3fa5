// Package storage persists run results and session references.
package storage

import (
	"errors"

	"xtr/internal/config"
	"xtr/internal/domain"
	"xtr/internal/persist"
)

// ErrNoSession is returned when a named session has never been saved
var ErrNoSession = errors.New("session not found")

// Storage persists and loads test run results (e.g. for the failures viewer).
type Storage interface {
	Save(meta domain.TestResultsMeta, failures []domain.TestFailure) error
	Load() (*domain.TestResultsOutput, error)
	// SaveOutput writes the full output (e.g. after marking failures resolved).
	SaveOutput(output *domain.TestResultsOutput) error
}

// SessionStore persists the class references of named sessions
type SessionStore interface {
	SaveSession(name string, refs []persist.Reference) error
	// LoadSession returns ErrNoSession when name was never saved
	LoadSession(name string) ([]persist.Reference, error)
	Close() error
}

// JSONStorage stores results in a JSON file under the configured output path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}

// NewSessionStore opens the session store selected by the config's store driver
func NewSessionStore(cfg *config.Config) (SessionStore, error) {
	switch cfg.Store.Driver {
	case config.StoreSQLite, config.StoreMySQL:
		return OpenSQLSessionStore(cfg.Store.Driver, cfg.GetStoreDSN())
	default:
		return NewJSONSessionStore(cfg.GetSessionPath()), nil
	}
}
