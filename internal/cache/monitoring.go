package cache

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/utils/response"
)

// patterns maps the ?type= values of the admin endpoints to key patterns.
var patterns = map[string]string{
	"stories": "stories:account:*",
	"albums":  "albums:account:*",
	"members": "member:*",
}

// CacheStats represents cache performance statistics
type CacheStats struct {
	RedisConnected bool           `json:"redis_connected"`
	KeyCounts      map[string]int `json:"key_counts"`
	CacheKeys      []string       `json:"cache_keys_sample"`
	KeyCount       int64          `json:"total_keys"`
}

func scanKeys(ctx context.Context, client *redis.Client, pattern string) ([]string, error) {
	var keys []string
	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// GetCacheStats returns cache performance statistics
func GetCacheStats(redisClient *redis.Client, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := CacheStats{
			RedisConnected: true,
			KeyCounts:      make(map[string]int),
		}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
			stats.RedisConnected = false
			response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
			return
		}

		for name, pattern := range patterns {
			keys, err := scanKeys(ctx, redisClient, pattern)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			stats.KeyCounts[name] = len(keys)
			if len(stats.CacheKeys) < 10 {
				stats.CacheKeys = append(stats.CacheKeys, keys[:min(len(keys), 10-len(stats.CacheKeys))]...)
			}
		}

		if n, err := redisClient.DBSize(ctx).Result(); err == nil {
			stats.KeyCount = n
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
	}
}

// ClearCache drops one family of cache keys, or all of them with type=all.
// Token buckets and revoked tokens are never touched.
func ClearCache(redisClient *redis.Client, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cacheType := r.URL.Query().Get("type")
		if cacheType == "" {
			cacheType = "stories"
		}

		var selected []string
		if cacheType == "all" {
			for _, p := range patterns {
				selected = append(selected, p)
			}
		} else if p, ok := patterns[cacheType]; ok {
			selected = []string{p}
		} else {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(fmt.Errorf("unknown cache type %q", cacheType)))
			return
		}

		var deleted int64
		for _, pattern := range selected {
			keys, err := scanKeys(ctx, redisClient, pattern)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			if len(keys) == 0 {
				continue
			}
			n, err := redisClient.Del(ctx, keys...).Result()
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			deleted += n
		}

		logger.Info("cache cleared", zap.String("type", cacheType), zap.Int64("deleted_keys", deleted))
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache cleared successfully", map[string]interface{}{
			"type":         cacheType,
			"deleted_keys": deleted,
		}))
	}
}
