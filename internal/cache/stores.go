package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tgienger/tung/internal/db"
)

// Nop stores nothing
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, string) error                     { return nil }

type memEntry struct {
	value   []byte
	expires time.Time
}

// Memory is a process-local store
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}
	m.entries[key] = memEntry{value: value, expires: expires}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// SQLite persists entries in the local database so lookups survive restarts
type SQLite struct {
	DB  *db.DB
	now func() time.Time
}

// NewSQLite returns a store backed by d
func NewSQLite(d *db.DB) *SQLite {
	return &SQLite{DB: d, now: time.Now}
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	b, ok, err := s.DB.CacheGet(ctx, key, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMiss
	}
	return b, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 100 * 365 * 24 * time.Hour
	}
	return s.DB.CacheSet(ctx, key, value, s.now().Add(ttl))
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	return s.DB.CacheDelete(ctx, key)
}

// Redis shares entries between clients through a Redis server
type Redis struct {
	RDB    *redis.Client
	Prefix string
}

// NewRedis connects to addr
func NewRedis(addr, pass string, dbIndex int) *Redis {
	return &Redis{
		RDB:    redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: dbIndex}),
		Prefix: "tung:",
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.RDB.Get(ctx, r.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.RDB.Set(ctx, r.Prefix+key, value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.RDB.Del(ctx, r.Prefix+key).Err()
}

// Ping checks the connection
func (r *Redis) Ping(ctx context.Context) error {
	return r.RDB.Ping(ctx).Err()
}

// Close releases the connection pool
func (r *Redis) Close() error {
	return r.RDB.Close()
}
