package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"proshift/cache"
)

// Cache is an in-memory cache.Cache without expiry
type Cache struct {
	mu    sync.Mutex
	Items map[string][]byte
}

var _ cache.Cache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{Items: map[string][]byte{}}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.Items[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (c *Cache) Set(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Items[key] = data
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.Items, k)
	}
	return nil
}

func (c *Cache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.Items {
		if strings.HasPrefix(k, prefix) {
			delete(c.Items, k)
		}
	}
	return nil
}

func (c *Cache) Ping(context.Context) error { return nil }

func (c *Cache) Close() error { return nil }
