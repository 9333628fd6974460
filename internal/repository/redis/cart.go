// Package redis stores cart mirrors in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/electroshop/internal/domain"
	"github.com/utafrali/electroshop/internal/repository"
)

const keyPrefix = "cart:"

// CartMirror implements repository.CartMirror. Keys never expire; a cart
// lives until it is cleared.
type CartMirror struct {
	client *redis.Client
}

// NewCartMirror creates a Redis-backed cart mirror.
func NewCartMirror(client *redis.Client) *CartMirror {
	return &CartMirror{client: client}
}

// Key returns the Redis key holding the session's cart.
func Key(sessionID string) string {
	return keyPrefix + sessionID
}

// Load reads the session's cart.
func (m *CartMirror) Load(ctx context.Context, sessionID string) ([]map[string]any, error) {
	data, err := m.client.Get(ctx, Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrCorruptMirror, err)
	}
	return records, nil
}

// Save overwrites the session's cart.
func (m *CartMirror) Save(ctx context.Context, sessionID string, items []domain.LineItem) error {
	if items == nil {
		items = []domain.LineItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := m.client.Set(ctx, Key(sessionID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Clear deletes the session's cart. Deleting a missing key is not an error.
func (m *CartMirror) Clear(ctx context.Context, sessionID string) error {
	if err := m.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (m *CartMirror) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}
