package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HistoryStore persists publish-time snapshots under a base directory.
type HistoryStore struct {
	baseDir string
}

// NewHistoryStore ensures the snapshot directory exists and returns a handle.
func NewHistoryStore(baseDir string) (*HistoryStore, error) {
	if baseDir == "" {
		baseDir = "./data/history"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return &HistoryStore{baseDir: baseDir}, nil
}

// Snapshot copies the source file to the named snapshot. The copy is staged in
// a temp file and renamed so a crash never leaves a half-written snapshot.
func (s *HistoryStore) Snapshot(src, filename string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read snapshot source: %w", err)
	}
	return s.save(filename, data)
}

// SaveJSON marshals v into the named snapshot.
func (s *HistoryStore) SaveJSON(filename string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return s.save(filename, data)
}

func (s *HistoryStore) save(filename string, data []byte) (string, error) {
	path := s.resolve(filename)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("stage snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("commit snapshot: %w", err)
	}
	return path, nil
}

// Open returns a read-only handle for a stored snapshot.
func (s *HistoryStore) Open(filename string) (*os.File, error) {
	file, err := os.Open(s.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	return file, nil
}

// List returns the snapshot filenames currently on disk.
func (s *HistoryStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// CleanupOlderThan removes snapshots older than the provided TTL and returns deleted names.
func (s *HistoryStore) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("cleanup snapshots: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("cleanup snapshots: %w", err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("cleanup snapshots: %w", err)
		}
		deleted = append(deleted, entry.Name())
	}
	return deleted, nil
}

// Path exposes the absolute path of a snapshot.
func (s *HistoryStore) Path(filename string) string {
	return s.resolve(filename)
}

func (s *HistoryStore) resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(s.baseDir, filename)
}
