package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// RecordDataset stores the fingerprint of the file a dataset was loaded from.
func (s *Store) RecordDataset(name string, fp FileFingerprint) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO datasets VALUES (?, ?, ?, ?)",
		name, fp.Path, fp.Size, fp.ModTime.UnixNano())
	if err != nil {
		return fmt.Errorf("record dataset %s: %w", name, err)
	}
	return nil
}

// DatasetChanged reports whether the dataset file differs from the one
// recorded, or was never recorded. Stale exports should then be cleared.
func (s *Store) DatasetChanged(name string, fp FileFingerprint) (bool, error) {
	var size, modNs int64
	err := s.db.QueryRow("SELECT size, mod_time_ns FROM datasets WHERE name=?", name).Scan(&size, &modNs)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("query dataset %s: %w", name, err)
	}
	return size != fp.Size || modNs != fp.ModTime.UnixNano(), nil
}
