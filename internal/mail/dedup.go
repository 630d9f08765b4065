package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-meetup/internal/logger"
)

const jobKeyPrefix = "mail:job:"

// Deduper makes job handling idempotent across redeliveries.
type Deduper interface {
	// Claim reports false when the job was already claimed.
	Claim(ctx context.Context, jobID string) (bool, error)
	Release(ctx context.Context, jobID string) error
}

type RedisDeduper struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{Client: client, TTL: ttl}
}

func (d *RedisDeduper) Claim(ctx context.Context, jobID string) (bool, error) {
	ok, err := d.Client.SetNX(ctx, jobKeyPrefix+jobID, time.Now().UTC().Format(time.RFC3339), d.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim job %s: %w", jobID, err)
	}
	return ok, nil
}

func (d *RedisDeduper) Release(ctx context.Context, jobID string) error {
	if err := d.Client.Del(ctx, jobKeyPrefix+jobID).Err(); err != nil {
		return fmt.Errorf("release job %s: %w", jobID, err)
	}
	return nil
}

// NewRedisClient connects to addr and checks the connection
func NewRedisClient(ctx context.Context, addr string, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Error("REDIS", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		client.Close()
		return nil, err
	}

	log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s for mail de-duplication", addr))
	return client, nil
}
