package cache

import (
	"context"
	"slices"
	"time"

	"bilancio/internal/metrics"
)

// LocalStore is a Store kept in process memory.
type LocalStore struct {
	lru *LRUCache[[]byte]
}

func NewLocalStore(maxSize int, ttl time.Duration) *LocalStore {
	lru := NewLRUCache[[]byte](maxSize, ttl)
	lru.OnEvict(func(_ string, reason EvictReason) {
		metrics.CacheEvictions.WithLabelValues(string(reason)).Inc()
	})
	return &LocalStore{lru: lru}
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

func (s *LocalStore) Set(_ context.Context, key string, val []byte) error {
	s.lru.Set(key, slices.Clone(val))
	return nil
}

func (s *LocalStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	return s.lru.DeletePrefix(prefix), nil
}

// CleanExpired lets a Manager sweep the underlying LRU.
func (s *LocalStore) CleanExpired() int {
	return s.lru.CleanExpired()
}
