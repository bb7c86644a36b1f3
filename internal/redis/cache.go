package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	ProviderCacheTTL = 30 * time.Second // rating and availability change with reviews
	ServiceCacheTTL  = 5 * time.Minute  // catalog entries change rarely
)

// Key prefixes
const (
	providerCachePrefix = "cache:provider:"
	serviceCachePrefix  = "cache:service:"
)

// CachedProvider is the cached slice of a provider profile used by matching.
type CachedProvider struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	RatingSum   int64  `json:"rating_sum"`
	RatingCount int64  `json:"rating_count"`
}

// CachedService is a cached catalog service record.
type CachedService struct {
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	BasePrice                int64   `json:"base_price"`
	EstimatedDurationMinutes int     `json:"estimated_duration_minutes"`
	IsEmergencyCapable       bool    `json:"is_emergency_capable"`
	EmergencySurchargePct    float64 `json:"emergency_surcharge_pct"`
}

// GetProvider retrieves a provider from cache. A nil result is a cache miss.
func (s *CacheStore) GetProvider(ctx context.Context, providerID string) (*CachedProvider, error) {
	data, err := s.client.Get(ctx, providerCachePrefix+providerID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var provider CachedProvider
	if err := json.Unmarshal(data, &provider); err != nil {
		return nil, err
	}
	return &provider, nil
}

// SetProvider stores a provider in cache.
func (s *CacheStore) SetProvider(ctx context.Context, provider *CachedProvider) error {
	data, err := json.Marshal(provider)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, providerCachePrefix+provider.ID, data, ProviderCacheTTL).Err()
}

// InvalidateProvider removes a provider from cache.
func (s *CacheStore) InvalidateProvider(ctx context.Context, providerID string) error {
	return s.client.Del(ctx, providerCachePrefix+providerID).Err()
}

// GetProvidersBatch retrieves multiple providers from cache using a pipeline.
// Returns a map of providerID -> CachedProvider and a slice of missing IDs.
func (s *CacheStore) GetProvidersBatch(ctx context.Context, providerIDs []string) (map[string]*CachedProvider, []string, error) {
	if len(providerIDs) == 0 {
		return make(map[string]*CachedProvider), nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(providerIDs))

	for _, id := range providerIDs {
		cmds[id] = pipe.Get(ctx, providerCachePrefix+id)
	}

	// Pipeline returns redis.Nil when any key is missing; misses are handled
	// per command below.
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, providerIDs, err
	}

	result := make(map[string]*CachedProvider)
	var missing []string

	for id, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}

		var provider CachedProvider
		if err := json.Unmarshal(data, &provider); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = &provider
	}

	return result, missing, nil
}

// SetProvidersBatch stores multiple providers in cache using a pipeline.
func (s *CacheStore) SetProvidersBatch(ctx context.Context, providers []*CachedProvider) error {
	if len(providers) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()

	for _, provider := range providers {
		data, err := json.Marshal(provider)
		if err != nil {
			continue // Skip invalid entries
		}
		pipe.Set(ctx, providerCachePrefix+provider.ID, data, ProviderCacheTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// GetService retrieves a catalog service from cache. A nil result is a miss.
func (s *CacheStore) GetService(ctx context.Context, serviceID string) (*CachedService, error) {
	data, err := s.client.Get(ctx, serviceCachePrefix+serviceID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var svc CachedService
	if err := json.Unmarshal(data, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// SetService stores a catalog service in cache.
func (s *CacheStore) SetService(ctx context.Context, svc *CachedService) error {
	data, err := json.Marshal(svc)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, serviceCachePrefix+svc.ID, data, ServiceCacheTTL).Err()
}

// InvalidateService removes a catalog service from cache.
func (s *CacheStore) InvalidateService(ctx context.Context, serviceID string) error {
	return s.client.Del(ctx, serviceCachePrefix+serviceID).Err()
}
