package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"xtr/internal/domain"
	"xtr/internal/persist"
)

// Save writes the run summary and failures to the configured JSON output file.
func (s *JSONStorage) Save(meta domain.TestResultsMeta, failures []domain.TestFailure) error {
	if meta.Timestamp == "" {
		meta.Timestamp = time.Now().Format(time.RFC3339)
	}
	if failures == nil {
		failures = []domain.TestFailure{}
	}
	return s.SaveOutput(&domain.TestResultsOutput{Meta: meta, Details: failures})
}

// Load reads the last test results from the configured JSON output file.
func (s *JSONStorage) Load() (*domain.TestResultsOutput, error) {
	data, err := os.ReadFile(s.cfg.GetOutputPath())
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var output domain.TestResultsOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &output, nil
}

// SaveOutput writes the full output to the configured JSON file.
func (s *JSONStorage) SaveOutput(output *domain.TestResultsOutput) error {
	return writeJSON(s.cfg.GetOutputPath(), output)
}

// JSONSessionStore keeps every session in one JSON file keyed by name
type JSONSessionStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONSessionStore returns a SessionStore backed by the file at path
func NewJSONSessionStore(path string) *JSONSessionStore {
	return &JSONSessionStore{path: path}
}

func (s *JSONSessionStore) SaveSession(name string, refs []persist.Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read()
	if err != nil {
		return err
	}
	if refs == nil {
		refs = []persist.Reference{}
	}
	sessions[name] = refs
	return writeJSON(s.path, sessions)
}

func (s *JSONSessionStore) LoadSession(name string) ([]persist.Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read()
	if err != nil {
		return nil, err
	}
	refs, ok := sessions[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSession)
	}
	return refs, nil
}

func (s *JSONSessionStore) Close() error { return nil }

func (s *JSONSessionStore) read() (map[string][]persist.Reference, error) {
	sessions := make(map[string][]persist.Reference)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return sessions, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("parse sessions: %w", err)
	}
	return sessions, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
