package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore persists one JSON document on disk. It backs the file-based
// profile and offering stores used when no MongoDB URI is configured.
type JSONStore struct {
	mu       sync.Mutex
	filePath string
}

// NewJSONStore creates the data directory and returns a store for
// dataDir/filename.
func NewJSONStore(dataDir, filename string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	return &JSONStore{filePath: filepath.Join(dataDir, filename)}, nil
}

func (s *JSONStore) Path() string {
	return s.filePath
}

// Load decodes the file into v. A missing file leaves v untouched.
func (s *JSONStore) Load(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", s.filePath, err)
	}
	return nil
}

// Save writes v to a temp file and renames it over the previous snapshot.
func (s *JSONStore) Save(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("storage: encode %s: %w", s.filePath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, s.filePath)
}

func (s *JSONStore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.filePath)
	return err == nil
}
