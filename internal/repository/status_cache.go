package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/config"
	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// StatusCache keeps the latest status view of each material for polling clients.
// Get returns nil, nil on a miss.
type StatusCache interface {
	Get(ctx context.Context, materialID string) (*models.ProcessingStatusResponse, error)
	Set(ctx context.Context, status *models.ProcessingStatusResponse) error
	Delete(ctx context.Context, materialID string) error
	Ping(ctx context.Context) error
	Close() error
}

type redisStatusCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	activeTTL time.Duration
	logger    zerolog.Logger
}

func NewRedisStatusCache(cfg config.RedisConfig, logger zerolog.Logger) (StatusCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")

	return &redisStatusCache{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.StatusTTL,
		activeTTL: cfg.ActiveStatusTTL,
		logger:    logger,
	}, nil
}

// expiration keeps pending and processing views short-lived, so a view whose
// replacement could not be written stops shadowing the database soon.
func (c *redisStatusCache) expiration(status models.ProcessingStatus) time.Duration {
	if status.IsTerminal() || c.activeTTL <= 0 || (c.ttl > 0 && c.activeTTL > c.ttl) {
		return c.ttl
	}
	return c.activeTTL
}

func (c *redisStatusCache) key(materialID string) string {
	return c.keyPrefix + materialID
}

func (c *redisStatusCache) Get(ctx context.Context, materialID string) (*models.ProcessingStatusResponse, error) {
	data, err := c.client.Get(ctx, c.key(materialID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var status models.ProcessingStatusResponse
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to decode cached status: %w", err)
	}
	return &status, nil
}

func (c *redisStatusCache) Set(ctx context.Context, status *models.ProcessingStatusResponse) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(status.MaterialID), data, c.expiration(status.Status)).Err()
}

func (c *redisStatusCache) Delete(ctx context.Context, materialID string) error {
	return c.client.Del(ctx, c.key(materialID)).Err()
}

func (c *redisStatusCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisStatusCache) Close() error {
	return c.client.Close()
}

type noopStatusCache struct{}

// NewNoopStatusCache is used when Redis is disabled; every read misses.
func NewNoopStatusCache() StatusCache {
	return noopStatusCache{}
}

func (noopStatusCache) Get(ctx context.Context, materialID string) (*models.ProcessingStatusResponse, error) {
	return nil, nil
}

func (noopStatusCache) Set(ctx context.Context, status *models.ProcessingStatusResponse) error {
	return nil
}

func (noopStatusCache) Delete(ctx context.Context, materialID string) error { return nil }
func (noopStatusCache) Ping(ctx context.Context) error                      { return nil }
func (noopStatusCache) Close() error                                        { return nil }
