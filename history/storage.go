package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"netshield/models"
	"netshield/utils"
)

// Store is a JSON-file history backend for local runs without a database.
// The whole file is rewritten on every append; fine for a dev workstation,
// not for production volume.
type Store struct {
	path string
	mu   sync.RWMutex
}

func NewStore(path string) *Store {
	if path == "" {
		path = "history.json"
	}
	return &Store{path: path}
}

// loadInternal loads all records from the JSON file (without lock)
func (s *Store) loadInternal() ([]models.AnalysisRecord, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return []models.AnalysisRecord{}, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("error reading history file: %v", err)
	}

	if len(data) == 0 {
		return []models.AnalysisRecord{}, nil
	}

	var records []models.AnalysisRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("error unmarshaling history: %v", err)
	}

	return records, nil
}

func (s *Store) AppendRecord(_ context.Context, record *models.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadInternal()
	if err != nil {
		return err
	}

	if record.ID == "" {
		record.ID = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	records = append(records, *record)

	dir := filepath.Dir(s.path)
	if dir != "." && dir != "" {
		if err := utils.CreateFolder(dir); err != nil {
			return fmt.Errorf("error creating directory: %v", err)
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling history: %v", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("error writing history file: %v", err)
	}

	return nil
}

func (s *Store) AllRecords(_ context.Context) ([]models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadInternal()
}

func (s *Store) RecordsByUser(_ context.Context, userID int64) ([]models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.loadInternal()
	if err != nil {
		return nil, err
	}

	var out []models.AnalysisRecord
	for _, record := range records {
		if record.UserID != nil && *record.UserID == userID {
			out = append(out, record)
		}
	}
	return out, nil
}

// RecordsByEndpoint keeps a record matching both sides in the result twice,
// matching the database backends.
func (s *Store) RecordsByEndpoint(_ context.Context, address string) ([]models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.loadInternal()
	if err != nil {
		return nil, err
	}

	var out []models.AnalysisRecord
	for _, record := range records {
		if record.SrcIP != nil && *record.SrcIP == address {
			out = append(out, record)
		}
	}
	for _, record := range records {
		if record.DstIP != nil && *record.DstIP == address {
			out = append(out, record)
		}
	}
	return out, nil
}
