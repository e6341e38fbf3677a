package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/providentiaww/iga-slack-bridge/internal/models"
)

// RequestStoreInterface is the persistence contract for access request
// records: upsert by id, query with a caller-side requester filter.
type RequestStoreInterface interface {
	Put(ctx context.Context, record models.AccessRequestRecord) error
	Query(ctx context.Context, limit int) ([]models.AccessRequestRecord, error)
	Ping() error
	Close() error
}

// FileRequestStore keeps access request records in a JSON file. Meant for
// local development; production deployments use Postgres.
type FileRequestStore struct {
	filePath string
	records  map[string]models.AccessRequestRecord
	mu       sync.RWMutex
}

// NewFileRequestStore creates a file-backed request store, loading any
// existing records.
func NewFileRequestStore(filePath string) (*FileRequestStore, error) {
	store := &FileRequestStore{
		filePath: filePath,
		records:  make(map[string]models.AccessRequestRecord),
	}

	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load request records: %w", err)
	}

	return store, nil
}

func (s *FileRequestStore) load() error {
	absPath, err := filepath.Abs(s.filePath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read records file: %w", err)
	}

	var records []models.AccessRequestRecord
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("failed to parse records JSON: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		s.records[record.ID] = record
	}
	return nil
}

func (s *FileRequestStore) saveToFile() error {
	s.mu.RLock()
	list := make([]models.AccessRequestRecord, 0, len(s.records))
	for _, record := range s.records {
		list = append(list, record)
	}
	s.mu.RUnlock()

	// Sort by id for stable output
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(s.filePath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(absPath, data, 0644)
}

// Put upserts a record by request id.
func (s *FileRequestStore) Put(_ context.Context, record models.AccessRequestRecord) error {
	s.mu.Lock()
	s.records[record.ID] = record
	s.mu.Unlock()

	return s.saveToFile()
}

// Query returns up to limit records in stable id order.
func (s *FileRequestStore) Query(_ context.Context, limit int) ([]models.AccessRequestRecord, error) {
	s.mu.RLock()
	list := make([]models.AccessRequestRecord, 0, len(s.records))
	for _, record := range s.records {
		list = append(list, record)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Ping is a no-op for file-based storage
func (s *FileRequestStore) Ping() error {
	return nil
}

// Close is a no-op for file-based storage
func (s *FileRequestStore) Close() error {
	return nil
}

// NewRequestStoreFromEnv creates a request store based on environment
// variables. If REQUESTS_FILE is set, uses file-based storage; otherwise
// PostgreSQL (requires DATABASE_URL).
func NewRequestStoreFromEnv() (RequestStoreInterface, error) {
	requestsFile := os.Getenv("REQUESTS_FILE")
	if requestsFile != "" {
		return NewFileRequestStore(requestsFile)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("either REQUESTS_FILE or DATABASE_URL must be set")
	}

	return NewPostgresRequestStore(databaseURL)
}
