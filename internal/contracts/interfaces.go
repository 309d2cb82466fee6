package contracts

import (
	"context"
	"time"
)

// ResultCache caches serialisable analysis results by key
// ⭐ SSOT: 캐시 인터페이스. 구현은 pkg/redis
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}
