package redis

import (
	"context"
	"errors"
	"fmt"

	"cgn-operator-search/internal/domain"
	"cgn-operator-search/internal/domain/ports/repository"
	"cgn-operator-search/internal/infra/metrics"

	"github.com/go-redis/redis/v8"
)

var _ repository.CodePool = (*CodePool)(nil)

const codePoolCache = "bucket_code"

// CodePool keeps one Redis list of prefetched codes per discount.
type CodePool struct {
	client RedisClient
}

func NewCodePool(client RedisClient) *CodePool {
	return &CodePool{client: client}
}

func CodePoolKey(discountID string) string {
	return "bucket_codes:" + discountID
}

func (p *CodePool) PopOne(ctx context.Context, discountID string) (string, bool, error) {
	code, err := p.client.LPop(ctx, CodePoolKey(discountID))
	if errors.Is(err, redis.Nil) {
		metrics.IncCacheRequest(codePoolCache, "miss")
		return "", false, nil
	}
	if err != nil {
		metrics.IncCacheRequest(codePoolCache, "error")
		return "", false, fmt.Errorf("%w: lpop: %w", domain.ErrCacheUnavailable, err)
	}
	metrics.IncCacheRequest(codePoolCache, "hit")
	return code, true, nil
}

func (p *CodePool) PushMany(ctx context.Context, discountID string, codes []string) (bool, error) {
	if len(codes) == 0 {
		return false, nil
	}
	values := make([]interface{}, len(codes))
	for i, c := range codes {
		values[i] = c
	}
	n, err := p.client.RPush(ctx, CodePoolKey(discountID), values...)
	if err != nil {
		return false, fmt.Errorf("%w: rpush: %w", domain.ErrCacheUnavailable, err)
	}
	return n > 0, nil
}
