package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const defaultCredentialPrefix = "sessions:refresh:"

// RedisCredentialStore keeps refresh credentials in Redis, keyed by
// account id. Redis provides the per key atomicity the concurrency model
// relies on; best effort persistence across restarts is acceptable.
type RedisCredentialStore struct {
	client *redis.Client
	prefix string
}

var _ CredentialStore = (*RedisCredentialStore)(nil)

// NewRedisCredentialStore creates a store on an existing client.
func NewRedisCredentialStore(client *redis.Client) *RedisCredentialStore {
	return &RedisCredentialStore{
		client: client,
		prefix: defaultCredentialPrefix,
	}
}

// WithPrefix overrides the key namespace.
func (s *RedisCredentialStore) WithPrefix(prefix string) *RedisCredentialStore {
	if prefix != "" {
		s.prefix = prefix
	}
	return s
}

// Get returns the stored credential for the key. A missing key maps to
// ErrRefreshNotStored, distinct from transport failures.
func (s *RedisCredentialStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrRefreshNotStored
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "credential store read failed")
	}
	return val, nil
}

// Set stores the credential, overwriting any previous value for the key.
func (s *RedisCredentialStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "credential store write failed")
	}
	return nil
}

// Delete removes the credential. Absence is not an error.
func (s *RedisCredentialStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "credential store delete failed")
	}
	return nil
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCredentialStore is a TTL aware in process store used in tests and
// single node deployments.
type MemoryCredentialStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)

// NewMemoryCredentialStore creates an empty in memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the stored credential for the key, honoring entry TTLs.
func (s *MemoryCredentialStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return "", ErrRefreshNotStored
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", ErrRefreshNotStored
	}

	return entry.value, nil
}

// Set stores the credential, overwriting any previous value for the key.
func (s *MemoryCredentialStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Delete removes the credential. Absence is not an error.
func (s *MemoryCredentialStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}
