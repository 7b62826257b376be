package db

import (
	"context"
	"database/sql"
	"time"
)

// CacheGet returns the unexpired value stored under key
func (db *DB) CacheGet(ctx context.Context, key string, now time.Time) ([]byte, bool, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `
		SELECT value FROM lookup_cache WHERE key = ? AND expires_at > ?
	`, key, now.UnixMilli()).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// CacheSet stores value under key until expiresAt
func (db *DB) CacheSet(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO lookup_cache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, expiresAt.UnixMilli())
	return err
}

// CacheDelete removes key
func (db *DB) CacheDelete(ctx context.Context, key string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM lookup_cache WHERE key = ?", key)
	return err
}

// CachePurge drops expired entries and returns how many were removed
func (db *DB) CachePurge(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, "DELETE FROM lookup_cache WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
