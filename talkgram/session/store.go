package session

import (
	"context"
	"sync"
	"time"
)

// Store holds active conversations. Each browser session maps to at most one
// record here; nothing in the store crosses users.
type Store interface {
	// Create stores a new session with Version set to 1.
	Create(ctx context.Context, data *ChatSession) error

	// Get retrieves a session by ID. A missing session returns nil, not an
	// error.
	Get(ctx context.Context, id string) (*ChatSession, error)

	// Update persists a session with optimistic locking, returning
	// ErrVersionConflict on a stale Version and ErrNotFound when the
	// session is gone.
	Update(ctx context.Context, data *ChatSession) error

	// Delete removes a session by ID.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// StoreType selects the session store driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// NewStore creates a session store. The Redis driver requires
// WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory:
		return &inMemoryStore{
			sessions: make(map[string]*ChatSession),
		}, nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		ttl := config.redisTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		return &redisStore{
			client: config.redisClient,
			ttl:    ttl,
		}, nil

	default:
		return nil, ErrInvalidStoreType
	}
}

type inMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*ChatSession
}

func (s *inMemoryStore) Create(ctx context.Context, data *ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	copied := *data
	s.sessions[data.ID] = &copied
	return nil
}

func (s *inMemoryStore) Get(ctx context.Context, id string) (*ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.sessions[id]
	if !exists {
		return nil, nil
	}
	copied := *data
	return &copied, nil
}

func (s *inMemoryStore) Update(ctx context.Context, data *ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.sessions[data.ID]
	if !exists {
		return ErrNotFound
	}
	if stored.Version != data.Version {
		return ErrVersionConflict
	}

	data.Version++
	data.UpdatedAt = time.Now()

	copied := *data
	s.sessions[data.ID] = &copied
	return nil
}

func (s *inMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *inMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	return nil
}
