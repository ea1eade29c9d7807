package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Proton-105/mensa-bot/internal/domain"
	"github.com/Proton-105/mensa-bot/pkg/metrics"
)

// FileStore keeps all records as an indented JSON array in a single file.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

// NewFileStore opens the data file at path, creating it as an empty array when absent.
func NewFileStore(path string, log *slog.Logger) (*FileStore, error) {
	if log == nil {
		log = slog.Default()
	}

	store := &FileStore{path: path, log: log}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat data file %q: %w", path, err)
		}

		log.Info("no existing data file found, creating one", slog.String("path", path))
		if err := store.write(nil); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// Append adds record to the end of the array. Existing entries are kept verbatim.
func (s *FileStore) Append(ctx context.Context, record *domain.MealRecord) error {
	if record == nil {
		return errors.New("nil record")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ensureID(record)

	if err := s.append(record); err != nil {
		metrics.RecordAppend(DriverFile, "error")
		return err
	}

	metrics.RecordAppend(DriverFile, "ok")
	s.log.Info("meal record saved",
		slog.String("record_id", record.ID),
		slog.String("canteen", record.CanteenName),
		slog.Float64("total", record.Total),
	)

	return nil
}

func (s *FileStore) append(record *domain.MealRecord) error {
	entries, err := s.read()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	return s.write(append(entries, encoded))
}

// HealthCheck verifies that the data file exists and is a regular file.
func (s *FileStore) HealthCheck(ctx context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("stat data file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("data file %q is not a regular file", s.path)
	}
	return nil
}

func (s *FileStore) read() ([]json.RawMessage, error) {
	// #nosec G304: the data file path comes from configuration
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read data file %q: %w", s.path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode data file %q: %w", s.path, err)
	}

	return entries, nil
}

func (s *FileStore) write(entries []json.RawMessage) error {
	if entries == nil {
		entries = []json.RawMessage{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}

	return nil
}
