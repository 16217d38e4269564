package redis

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/bazaar/storefront-gateway/internal/api/metrics"
	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

const defaultPrincipalTTL = 30 * time.Second

// PrincipalCache keeps recently validated principals in Redis so page loads
// do not hit the backend profile endpoint every time.
// Key format: principal:<role>:<blake2b-256(token) hex>. The raw credential
// never reaches Redis.
type PrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPrincipalCache wraps client; a non-positive ttl uses defaultPrincipalTTL.
func NewPrincipalCache(client *redis.Client, ttl time.Duration) *PrincipalCache {
	if ttl <= 0 {
		ttl = defaultPrincipalTTL
	}
	return &PrincipalCache{client: client, ttl: ttl}
}

// Get returns (nil, nil) on a miss.
func (c *PrincipalCache) Get(ctx context.Context, role, token string) (*domain.Principal, error) {
	raw, err := c.client.Get(ctx, c.key(role, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.PrincipalCacheTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if err != nil {
		metrics.PrincipalCacheTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("principal cache get: %w", err)
	}
	var p domain.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		metrics.PrincipalCacheTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("principal cache decode: %w", err)
	}
	metrics.PrincipalCacheTotal.WithLabelValues("hit").Inc()
	return &p, nil
}

func (c *PrincipalCache) Put(ctx context.Context, role, token string, p *domain.Principal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("principal cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(role, token), raw, c.ttl).Err()
}

func (c *PrincipalCache) Delete(ctx context.Context, role, token string) error {
	return c.client.Del(ctx, c.key(role, token)).Err()
}

func (c *PrincipalCache) key(role, token string) string {
	sum := blake2b.Sum256([]byte(token))
	return fmt.Sprintf("principal:%s:%s", role, hex.EncodeToString(sum[:]))
}
