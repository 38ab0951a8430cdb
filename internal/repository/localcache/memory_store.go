package localcache

import (
	"context"
	"sync"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps values in process memory. It never fails and never
// expires entries, but loses everything on restart.
type MemoryStore struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (s *MemoryStore) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(key), nil
}

func (s *MemoryStore) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.get(key))
	if err != nil {
		return err
	}
	s.cache.Set(key, append([]byte(nil), next...), cache.NoExpiration)
	return nil
}

// Close is a no-op; the store stays usable for the life of the process.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) get(key string) []byte {
	x, found := s.cache.Get(key)
	if !found {
		return nil
	}
	return append([]byte(nil), x.([]byte)...)
}
