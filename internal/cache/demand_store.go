package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/stockcast/internal/config"
)

const (
	defaultForecastTTL  = time.Hour
	defaultKeyNamespace = "stockcast"
	demandKeySpace      = "forecast:demand"
	demandScanBatch     = 100
	redisPingTimeout    = 5 * time.Second
)

// demandStore keeps encoded demand forecasts in redis. All of its keys share
// one prefix, <namespace>:forecast:demand:, and expire after the forecast TTL.
type demandStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func openDemandStore(cfg config.CacheConfig) (*demandStore, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &demandStore{
		client: client,
		prefix: demandPrefix(cfg.KeyPrefix),
		ttl:    forecastTTL(cfg.ForecastTTLSecs),
	}, nil
}

func demandPrefix(namespace string) string {
	namespace = strings.Trim(strings.TrimSpace(namespace), ":")
	if namespace == "" {
		namespace = defaultKeyNamespace
	}
	return namespace + ":" + demandKeySpace + ":"
}

func forecastTTL(secs int) time.Duration {
	if secs <= 0 {
		return defaultForecastTTL
	}
	return time.Duration(secs) * time.Second
}

func (s *demandStore) key(hash string) string {
	return s.prefix + hash
}

func (s *demandStore) load(ctx context.Context, hash string) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, s.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return payload, true, nil
}

func (s *demandStore) save(ctx context.Context, hash string, payload []byte) error {
	if err := s.client.Set(ctx, s.key(hash), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// purge deletes every cached forecast and reports how many keys went.
func (s *demandStore) purge(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", demandScanBatch).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("redis delete failed: %w", err)
			}
			deleted += int(n)
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}
