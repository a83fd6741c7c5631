package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/configs"
)

const keyPrefix = "momentum"

// Key is the cache key of a series' latest candle.
func Key(source, mcvID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, source, mcvID)
}

// RedisPublisher caches the latest candle of every series under Key with a TTL.
type RedisPublisher struct {
	client *goredis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisPublisher connects and pings the server.
func NewRedisPublisher(ctx context.Context, cfg configs.RedisConfig, logger *logrus.Logger) (*RedisPublisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Infof("[redis] connected to %s", cfg.Addr)
	return &RedisPublisher{client: client, ttl: cfg.TTL, logger: logger}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	_, err := p.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, e := range events {
			value, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encode event %s: %w", e.MCVID, err)
			}
			pipe.Set(ctx, Key(e.Source, e.MCVID), value, p.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}

	p.logger.Infof("[redis] cached %d latest candles", len(events))
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
