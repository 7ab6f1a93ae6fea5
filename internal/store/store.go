// Package store persists the small bits of client state that must survive
// restarts: the set of task ids already notified about, and the last known
// file listing so the UI can paint instantly before the first fetch.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/voxtui/vox/internal/domain"
)

// Bucket names
var (
	bucketNotified = []byte("notified")
	bucketFiles    = []byte("files")
)

const filesKey = "listing"

// cachedListing wraps the persisted file listing with its save time.
type cachedListing struct {
	SavedAt time.Time     `json:"saved_at"`
	Files   []domain.File `json:"files"`
}

// Store implements the local cache using BoltDB with a memory overlay for
// hot-path reads. An empty dir selects memory-only mode (no persistence).
type Store struct {
	db *bolt.DB
	mu sync.RWMutex

	notified map[string]struct{}
	files    *cachedListing
}

// Open creates or opens the cache under dir.
func Open(dir string) (*Store, error) {
	s := &Store{notified: make(map[string]struct{})}
	if dir == "" {
		return s, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "vox.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketNotified, bucketFiles} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	s.loadNotified()
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// loadNotified promotes the full notified set into memory; it only grows,
// so one read at open is enough.
func (s *Store) loadNotified() {
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotified)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			s.notified[string(k)] = struct{}{}
			return nil
		})
	})
}

// IsNotified reports whether a completion notification was already emitted
// for the task id.
func (s *Store) IsNotified(taskID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.notified[taskID]
	return ok
}

// MarkNotified records a task id in the monotonically growing notified set.
func (s *Store) MarkNotified(taskID string) error {
	s.mu.Lock()
	s.notified[taskID] = struct{}{}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNotified).Put([]byte(taskID), []byte{1})
	})
}

// SaveFiles replaces the cached file listing.
func (s *Store) SaveFiles(files []domain.File) error {
	entry := &cachedListing{SavedAt: time.Now(), Files: files}

	s.mu.Lock()
	s.files = entry
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFiles).Put([]byte(filesKey), data)
	})
}

// GetFiles returns the cached listing, if any.
func (s *Store) GetFiles() ([]domain.File, bool) {
	s.mu.RLock()
	if s.files != nil {
		defer s.mu.RUnlock()
		return s.files.Files, true
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketFiles).Get([]byte(filesKey)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if data == nil {
		return nil, false
	}

	var entry cachedListing
	if json.Unmarshal(data, &entry) != nil {
		return nil, false
	}

	s.mu.Lock()
	s.files = &entry
	s.mu.Unlock()
	return entry.Files, true
}
