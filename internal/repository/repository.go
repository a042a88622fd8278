// Package repository содержит хранилища «ключ-значение», на которых работает витрина.
package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotFound возвращается, если ключ отсутствует в хранилище.
	ErrNotFound = errors.New("key not found")
	// ErrExpiryUnsupported возвращается, если хранилище не умеет ограничивать время жизни ключей.
	ErrExpiryUnsupported = errors.New("backend does not support key expiry")
	// ErrUnsupportedScheme возвращается для DSN с неизвестной схемой.
	ErrUnsupportedScheme = errors.New("unsupported store scheme")
)

// Backend описывает контракт хранилища «ключ-значение».
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type options struct {
	ttl time.Duration
}

// Option настраивает открываемое хранилище.
type Option func(*options)

// WithTTL задаёт время жизни ключа, продлеваемое при каждой записи.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// Open открывает хранилище по DSN: postgres://, sqlite://, redis:// или memory://.
func Open(ctx context.Context, dsn string, opts ...Option) (Backend, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse store dsn: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "memory":
		return NewMemoryStore(o.ttl), nil
	case "redis", "rediss":
		return NewRedisStore(ctx, dsn, o.ttl)
	case "postgres", "postgresql":
		if o.ttl > 0 {
			return nil, ErrExpiryUnsupported
		}
		return NewPostgresStore(ctx, dsn)
	case "sqlite", "file":
		if o.ttl > 0 {
			return nil, ErrExpiryUnsupported
		}
		return NewSQLiteStore(ctx, u.Host+u.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
