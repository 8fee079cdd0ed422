package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nikhilbhutani/prompthub/internal/models"
	"github.com/redis/go-redis/v9"
)

// PromptCache keeps the active version of each prompt name in redis.
// Failures degrade to cache misses; the store stays authoritative.
type PromptCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPromptCache(client *redis.Client, ttl time.Duration) *PromptCache {
	return &PromptCache{client: client, ttl: ttl}
}

func key(name string) string {
	return "prompt:active:" + name
}

func (c *PromptCache) GetActive(ctx context.Context, name string) (*models.Prompt, bool) {
	val, err := c.client.Get(ctx, key(name)).Result()
	if err != nil {
		return nil, false
	}
	var p models.Prompt
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *PromptCache) SetActive(ctx context.Context, name string, p *models.Prompt) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	c.client.Set(ctx, key(name), data, c.ttl)
}

func (c *PromptCache) Invalidate(ctx context.Context, name string) {
	c.client.Del(ctx, key(name))
}
