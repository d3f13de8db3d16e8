package track

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const DefaultStorageFileName = ".fusion-swap-orders.json"

// Storage persists submitted orders to a local JSON file so later
// invocations can list and refresh them.
type Storage struct {
	filePath string
	mu       sync.RWMutex
	orders   map[string]*OrderRecord
}

type fileFormat struct {
	Orders map[string]*OrderRecord `json:"orders"`
}

// NewStorage creates a storage instance, loading any existing file
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	storage := &Storage{
		filePath: filePath,
		orders:   make(map[string]*OrderRecord),
	}

	if err := storage.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load order history: %w", err)
		}
	}

	return storage, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var contents fileFormat
	if err := json.Unmarshal(data, &contents); err != nil {
		return fmt.Errorf("failed to unmarshal order history: %w", err)
	}

	s.orders = contents.Orders
	if s.orders == nil {
		s.orders = make(map[string]*OrderRecord)
	}
	return nil
}

// save writes to a temporary file first, then renames for an atomic write
func (s *Storage) save() error {
	data, err := json.MarshalIndent(fileFormat{Orders: s.orders}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal order history: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write order history: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Create records a newly submitted order
func (s *Storage) Create(record *OrderRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[record.OrderHash]; exists {
		return fmt.Errorf("order %s is already tracked", record.OrderHash)
	}

	now := time.Now()
	if record.Created.IsZero() {
		record.Created = now
	}
	record.LastUpdated = now

	s.orders[record.OrderHash] = record
	return s.save()
}

// UpdateStatus records the latest reported status for an order
func (s *Storage) UpdateStatus(orderHash, status, fillTxHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.orders[orderHash]
	if !exists {
		return fmt.Errorf("order %s not tracked", orderHash)
	}

	record.Status = status
	if fillTxHash != "" {
		record.FillTxHash = fillTxHash
	}
	record.LastUpdated = time.Now()

	return s.save()
}

// Get retrieves a tracked order by hash
func (s *Storage) Get(orderHash string) (*OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.orders[orderHash]
	if !exists {
		return nil, fmt.Errorf("order %s not tracked", orderHash)
	}
	return record, nil
}

// List returns all tracked orders, newest first
func (s *Storage) List() []*OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*OrderRecord, 0, len(s.orders))
	for _, record := range s.orders {
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Created.After(records[j].Created)
	})
	return records
}

// Exists checks if an order is already tracked
func (s *Storage) Exists(orderHash string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.orders[orderHash]
	return exists
}

// GetFilePath returns the storage file path
func (s *Storage) GetFilePath() string {
	return s.filePath
}
