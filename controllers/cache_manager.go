package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	importListCachePrefix = "imports:list:"
	importVersionPrefix   = "imports:version:"
)

// CacheManager caches owner-scoped import listings in Redis. Invalidation
// bumps a per-owner version key, so stale list entries simply age out under
// their TTL. Any Redis failure degrades to a repository read.
type CacheManager struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCacheManager(redis *redis.Client) *CacheManager {
	return &CacheManager{
		redis: redis,
		ttl:   DefaultCacheTTL,
	}
}

// GetBatchList retrieves a cached import listing for the owner.
func (cm *CacheManager) GetBatchList(ctx context.Context, ownerID string) ([]BatchResponse, bool) {
	version, err := cm.getVersion(ctx, ownerID)
	if err != nil || version == 0 {
		return nil, false
	}

	cached, err := cm.redis.Get(ctx, cm.listKey(ownerID, version)).Result()
	if err != nil {
		return nil, false
	}

	var batches []BatchResponse
	if err := json.Unmarshal([]byte(cached), &batches); err != nil {
		zap.L().Warn("Failed to unmarshal cached import list", zap.Error(err))
		return nil, false
	}
	return batches, true
}

// SetBatchListAsync caches an import listing asynchronously.
func (cm *CacheManager) SetBatchListAsync(ownerID string, batches []BatchResponse) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := cm.getVersion(bgCtx, ownerID)
		if err != nil || version == 0 {
			return
		}
		payload, err := json.Marshal(batches)
		if err != nil {
			zap.L().Warn("Failed to marshal import list for cache", zap.Error(err))
			return
		}
		if err := cm.redis.Set(bgCtx, cm.listKey(ownerID, version), payload, cm.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache import list", zap.Error(err))
		}
	}()
}

// Invalidate invalidates the owner's cached listings by bumping the version.
func (cm *CacheManager) Invalidate(ctx context.Context, ownerID string) {
	if err := cm.redis.Incr(ctx, importVersionPrefix+ownerID).Err(); err != nil {
		zap.L().Warn("Failed to invalidate import cache", zap.Error(err), zap.String("owner_id", ownerID))
	}
}

func (cm *CacheManager) getVersion(ctx context.Context, ownerID string) (int64, error) {
	key := importVersionPrefix + ownerID
	version, err := cm.redis.Get(ctx, key).Int64()
	if err == redis.Nil {
		if err := cm.redis.Set(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return version, err
}

func (cm *CacheManager) listKey(ownerID string, version int64) string {
	return fmt.Sprintf("%s%s:v%d", importListCachePrefix, ownerID, version)
}
