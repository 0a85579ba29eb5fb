package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"ppm-intake-be/internal/repository/contract"
	"ppm-intake-be/pkg/intake/record"
)

var ErrUnsafeSessionID = errors.New("session id cannot be used as a file name")

var safeID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// RecordStore writes collected_info_<session id>.json files into one directory
type RecordStore struct {
	dir string
}

var _ contract.RecordRepository = (*RecordStore)(nil)

func NewRecordStore(dir string) (*RecordStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	return &RecordStore{dir: dir}, nil
}

func (s *RecordStore) path(sessionID string) (string, error) {
	if !safeID.MatchString(sessionID) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeSessionID, sessionID)
	}
	return filepath.Join(s.dir, "collected_info_"+sessionID+".json"), nil
}

// Save replaces the file through a rename so readers never see a partial record
func (s *RecordStore) Save(ctx context.Context, rec record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(rec.SessionID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".collected_info_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close record: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish record: %w", err)
	}
	return nil
}

func (s *RecordStore) Load(ctx context.Context, sessionID string) (record.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return record.Record{}, false, err
	}
	path, err := s.path(sessionID)
	if err != nil {
		return record.Record{}, false, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return record.Record{}, false, nil
	}
	if err != nil {
		return record.Record{}, false, fmt.Errorf("read record: %w", err)
	}

	var rec record.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record.Record{}, false, fmt.Errorf("decode record %s: %w", path, err)
	}
	return rec, true, nil
}
