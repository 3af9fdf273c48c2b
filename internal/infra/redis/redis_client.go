package redis

import (
	"context"
	"crypto/tls"

	"cgn-operator-search/internal/config"

	"github.com/go-redis/redis/v8"
)

// RedisClient is the narrow list-oriented surface the code pool needs.
type RedisClient interface {
	Ping(ctx context.Context) error
	LPop(ctx context.Context, key string) (string, error)
	RPush(ctx context.Context, key string, values ...interface{}) (int64, error)
	Close() error
}

var _ RedisClient = (*redClient)(nil)

type redClient struct {
	cli redis.UniversalClient
}

// NewClient connects to a single node, or to a cluster when cfg.Cluster is
// set and clustered is true (production only, dev always uses a single node).
func NewClient(ctx context.Context, cfg *config.RedisConfig, clustered bool) (*redClient, error) {
	var tlsCfg *tls.Config
	if cfg.TLS {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	var c redis.UniversalClient
	if cfg.Cluster && clustered {
		c = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:     []string{cfg.Addr()},
			Password:  cfg.Password,
			TLSConfig: tlsCfg,
		})
	} else {
		c = redis.NewClient(&redis.Options{
			Addr:      cfg.Addr(),
			Password:  cfg.Password,
			DB:        cfg.DB,
			TLSConfig: tlsCfg,
		})
	}
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &redClient{cli: c}, nil
}

func (c *redClient) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

// LPop returns redis.Nil when the list is empty or missing.
func (c *redClient) LPop(ctx context.Context, key string) (string, error) {
	return c.cli.LPop(ctx, key).Result()
}

func (c *redClient) RPush(ctx context.Context, key string, values ...interface{}) (int64, error) {
	return c.cli.RPush(ctx, key, values...).Result()
}

func (c *redClient) Close() error { return c.cli.Close() }
