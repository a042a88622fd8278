package repository

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore хранит значения в памяти процесса и теряет их при перезапуске.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]memoryEntry
	ttl   time.Duration
	clock func() time.Time
}

// NewMemoryStore создаёт хранилище в памяти. Нулевой ttl отключает истечение ключей.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]memoryEntry),
		ttl:   ttl,
		clock: time.Now,
	}
}

// Close ничего не делает.
func (s *MemoryStore) Close() error { return nil }

// Get возвращает копию значения по ключу.
// При заданном ttl чтение продлевает время жизни ключа.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.ttl <= 0 {
		s.mu.RLock()
		e, ok := s.data[key]
		s.mu.RUnlock()
		if !ok {
			return nil, ErrNotFound
		}
		return cloneBytes(e.value), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok || s.expired(e) {
		return nil, ErrNotFound
	}
	e.expiresAt = s.clock().Add(s.ttl)
	s.data[key] = e

	return cloneBytes(e.value), nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Set сохраняет копию значения.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := memoryEntry{value: cloneBytes(value)}
	if s.ttl > 0 {
		e.expiresAt = s.clock().Add(s.ttl)
	}

	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
	return nil
}

// Delete удаляет ключ.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Sweep удаляет истёкшие ключи.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, e := range s.data {
		if s.expired(e) {
			delete(s.data, k)
			n++
		}
	}
	return n
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.clock().Before(e.expiresAt)
}
