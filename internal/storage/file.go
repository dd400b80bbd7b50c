package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xaenox/assistant-relay/internal/models"
	"go.uber.org/zap"
)

// FileStore persists the usage counter and QA log as two JSON files:
// the counter as {"date":"YYYY-MM-DD","count":N} and the log as a single
// JSON array rewritten in full on each append. A shared lock file guards
// every read-modify-write so concurrent answers cannot lose an increment
// or corrupt the array.
type FileStore struct {
	counterPath string
	qaPath      string
	lockPath    string
	logger      *zap.Logger
}

func NewFileStore(counterPath, qaPath, lockPath string, logger *zap.Logger) (*FileStore, error) {
	for _, path := range []string{counterPath, qaPath, lockPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("error creating storage directory: %v", err)
		}
	}
	return &FileStore{
		counterPath: counterPath,
		qaPath:      qaPath,
		lockPath:    lockPath,
		logger:      logger,
	}, nil
}

// GetCounter reads the persisted counter. A missing or unreadable file is
// treated as a fresh counter rather than an error, so a wiped data directory
// never blocks answering.
func (s *FileStore) GetCounter() (models.UsageCounter, error) {
	data, err := os.ReadFile(s.counterPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to read counter file, treating as fresh",
				zap.Error(err),
				zap.String("path", s.counterPath))
		}
		return models.UsageCounter{}, nil
	}

	var counter models.UsageCounter
	if err := json.Unmarshal(data, &counter); err != nil {
		s.logger.Warn("Counter file is corrupt, treating as fresh",
			zap.Error(err),
			zap.String("path", s.counterPath))
		return models.UsageCounter{}, nil
	}
	return counter, nil
}

func (s *FileStore) SetCounter(counter models.UsageCounter) error {
	return withFileLock(s.lockPath, func() error {
		data, err := json.Marshal(counter)
		if err != nil {
			return fmt.Errorf("error encoding counter: %v", err)
		}
		return writeFileAtomic(s.counterPath, data)
	})
}

func (s *FileStore) AppendQA(record models.QARecord) error {
	return withFileLock(s.lockPath, func() error {
		records, err := s.readQA()
		if err != nil {
			return err
		}
		records = append(records, record)

		data, err := json.MarshalIndent(records, "", "    ")
		if err != nil {
			return fmt.Errorf("error encoding QA log: %v", err)
		}
		return writeFileAtomic(s.qaPath, data)
	})
}

func (s *FileStore) ListQA() ([]models.QARecord, error) {
	return s.readQA()
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) readQA() ([]models.QARecord, error) {
	data, err := os.ReadFile(s.qaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.QARecord{}, nil
		}
		return nil, fmt.Errorf("error reading QA log: %v", err)
	}

	var records []models.QARecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("error decoding QA log: %v", err)
	}
	return records, nil
}

// writeFileAtomic writes via a temp file in the target directory and renames
// it over the destination, so readers never observe a partial write.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("error creating temp file for %s: %v", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("error writing temp file for %s: %v", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("error syncing temp file for %s: %v", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("error setting permissions for %s: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing temp file for %s: %v", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("error replacing %s: %v", path, err)
	}
	return nil
}
