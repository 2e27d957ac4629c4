// Package redisstore persists run snapshots in Redis so operators and
// downstream dashboards can read the latest sync state without touching
// the chain or the provider.
package redisstore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Username string
	Password string
	DB       int
	UseTLS   bool
}

type Store struct {
	client *redis.Client
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	opts := &redis.Options{
		Addr:         strings.TrimSpace(cfg.Addr),
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Put(ctx context.Context, key string, blob []byte, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("snapshot key must not be empty")
	}
	if err := s.client.Set(ctx, key, blob, ttl).Err(); err != nil {
		return fmt.Errorf("store snapshot %s: %w", key, err)
	}
	return nil
}

// Get returns the stored blob, or nil with no error when the key is
// absent or expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	return blob, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
