package usecases

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/rihla/internal/core/ports"
)

const (
	keyActiveTrips = "trips:active"
	keyActiveAds   = "ads:active"
)

func tripKey(id string) string { return "trips:id:" + id }
func adKey(id string) string   { return "ads:id:" + id }

// cached reads key into dst. A nil cache, miss or decode failure reports false.
func cached(ctx context.Context, cache ports.CacheService, key string, dst any) bool {
	if cache == nil {
		return false
	}
	data, err := cache.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func store(ctx context.Context, cache ports.CacheService, key string, v any, ttlSeconds int) {
	if cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = cache.Set(ctx, key, data, ttlSeconds)
	}
}

func invalidate(ctx context.Context, cache ports.CacheService, keys ...string) {
	if cache == nil || len(keys) == 0 {
		return
	}
	_ = cache.Delete(ctx, keys...)
}
