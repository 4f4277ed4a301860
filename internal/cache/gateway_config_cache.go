package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/GTDGit/gtd_payments/internal/models"
)

const (
	keyActive     = "gateway:config:active"
	keyPrimary    = "gateway:config:primary"
	keyBackup     = "gateway:config:backup"
	keyTypePrefix = "gateway:config:type:"
)

// ConfigSource is the authoritative config store being cached.
type ConfigSource interface {
	GetActive(ctx context.Context) ([]*models.PaymentGatewayConfig, error)
	GetPrimary(ctx context.Context) (*models.PaymentGatewayConfig, error)
	GetBackup(ctx context.Context) (*models.PaymentGatewayConfig, error)
	GetByType(ctx context.Context, gatewayType models.GatewayType) (*models.PaymentGatewayConfig, error)
}

// GatewayConfigCache is a read-through redis cache in front of a ConfigSource.
// Credentials are never written to redis: cached records carry routing data
// only, and adapters get their credentials at startup. A redis failure falls
// back to the source. Concurrent misses on one key share a single load.
type GatewayConfigCache struct {
	store  Store
	source ConfigSource
	ttl    time.Duration
	loads  singleflight.Group
}

// NewGatewayConfigCache creates a new GatewayConfigCache.
func NewGatewayConfigCache(store Store, source ConfigSource, ttl time.Duration) *GatewayConfigCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &GatewayConfigCache{store: store, source: source, ttl: ttl}
}

func typeKey(t models.GatewayType) string {
	return keyTypePrefix + string(t)
}

// GetActive returns the active configs, ordered as the source orders them.
func (c *GatewayConfigCache) GetActive(ctx context.Context) ([]*models.PaymentGatewayConfig, error) {
	var out []*models.PaymentGatewayConfig
	err := c.readThrough(ctx, keyActive, &out, func() (any, error) {
		return c.source.GetActive(ctx)
	})
	return out, err
}

// GetPrimary returns the primary config or nil.
func (c *GatewayConfigCache) GetPrimary(ctx context.Context) (*models.PaymentGatewayConfig, error) {
	var out *models.PaymentGatewayConfig
	err := c.readThrough(ctx, keyPrimary, &out, func() (any, error) {
		return c.source.GetPrimary(ctx)
	})
	return out, err
}

// GetBackup returns the backup config or nil.
func (c *GatewayConfigCache) GetBackup(ctx context.Context) (*models.PaymentGatewayConfig, error) {
	var out *models.PaymentGatewayConfig
	err := c.readThrough(ctx, keyBackup, &out, func() (any, error) {
		return c.source.GetBackup(ctx)
	})
	return out, err
}

// GetByType returns the config for gatewayType or nil.
func (c *GatewayConfigCache) GetByType(ctx context.Context, gatewayType models.GatewayType) (*models.PaymentGatewayConfig, error) {
	var out *models.PaymentGatewayConfig
	err := c.readThrough(ctx, typeKey(gatewayType), &out, func() (any, error) {
		return c.source.GetByType(ctx, gatewayType)
	})
	return out, err
}

// Invalidate drops every cached entry.
func (c *GatewayConfigCache) Invalidate(ctx context.Context) error {
	keys := []string{keyActive, keyPrimary, keyBackup}
	for _, t := range models.GatewayFallbackOrder {
		keys = append(keys, typeKey(t))
	}
	return c.store.Delete(ctx, keys...)
}

// Refresh reloads every entry from the source and rewrites the cache.
func (c *GatewayConfigCache) Refresh(ctx context.Context) error {
	active, err := c.source.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("load active configs: %w", err)
	}
	primary, err := c.source.GetPrimary(ctx)
	if err != nil {
		return fmt.Errorf("load primary config: %w", err)
	}
	backup, err := c.source.GetBackup(ctx)
	if err != nil {
		return fmt.Errorf("load backup config: %w", err)
	}

	entries := map[string]any{
		keyActive:  active,
		keyPrimary: primary,
		keyBackup:  backup,
	}
	for _, t := range models.GatewayFallbackOrder {
		cfg, err := c.source.GetByType(ctx, t)
		if err != nil {
			return fmt.Errorf("load %s config: %w", t, err)
		}
		entries[typeKey(t)] = cfg
	}

	for key, v := range entries {
		if err := c.write(ctx, key, v); err != nil {
			return err
		}
	}
	return nil
}

// readThrough decodes key into out, or loads it from the source and caches
// the result. nil results are cached too so missing records stay cheap.
func (c *GatewayConfigCache) readThrough(ctx context.Context, key string, out any, load func() (any, error)) error {
	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal([]byte(raw), out); jsonErr == nil {
			return nil
		}
		log.Warn().Str("key", key).Msg("Corrupt gateway config cache entry, reloading")
	case !IsMiss(err):
		log.Warn().Err(err).Str("key", key).Msg("Gateway config cache unavailable, reading source")
	}

	shared, err, _ := c.loads.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode gateway config: %w", err)
		}
		if err := c.store.Set(ctx, key, string(b), c.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to write gateway config cache")
		}
		return b, nil
	})
	if err != nil {
		return err
	}
	// Decode the encoded form so cache hits and misses return the same shape.
	return json.Unmarshal(shared.([]byte), out)
}

func (c *GatewayConfigCache) write(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode gateway config: %w", err)
	}
	return c.store.Set(ctx, key, string(b), c.ttl)
}
