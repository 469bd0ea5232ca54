package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis caches report bytes in a shared Redis instance so repeated
// analysis of an identical strip is served from cache across replicas.
type Redis struct {
	cli *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedis(cfg RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &Redis{cli: rdb}
}

func (r *Redis) GetBytes(key string) ([]byte, bool, error) {
	b, err := r.cli.Get(context.Background(), key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) SetBytes(key string, value []byte, ttl time.Duration) error {
	return r.cli.Set(context.Background(), key, value, ttl).Err()
}

func (r *Redis) Close() error { return r.cli.Close() }

var _ BytesCache = (*Redis)(nil)
