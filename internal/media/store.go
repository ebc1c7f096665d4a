// Package media provides thread-safe in-memory storage for fetched
// video binaries, giving each a locally addressable handle the view
// layer can reference.
package media

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxSize is the maximum size of a single stored binary (256MB).
	MaxSize = 256 * 1024 * 1024
)

var (
	// ErrNotFound indicates the requested handle does not exist.
	ErrNotFound = errors.New("media not found")
	// ErrTooLarge indicates the binary exceeds the maximum allowed size.
	ErrTooLarge = errors.New("media exceeds maximum size")
)

type stored struct {
	Data        []byte
	ContentType string
	CreatedAt   time.Time
}

// Store maps uuid handles to binary payloads.
type Store struct {
	mu    sync.RWMutex
	items map[string]*stored
}

// NewStore creates an empty media store.
func NewStore() *Store {
	return &Store{items: make(map[string]*stored)}
}

// Put stores a binary and returns its handle.
func (s *Store) Put(data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty media data")
	}
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.items[id] = &stored{
		Data:        data,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}
	s.mu.Unlock()
	return id, nil
}

// Get returns the binary and content type for a handle.
func (s *Store) Get(id string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	return item.Data, item.ContentType, nil
}
