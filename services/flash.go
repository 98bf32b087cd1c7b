package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TaskPilotGo/models"

	"github.com/go-redis/redis/v8"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"

	flashTTL = 5 * time.Minute
)

// FlashStore 保存一次性提示消息，下一次页面请求时取出
type FlashStore interface {
	Put(ctx context.Context, userID uint, flash models.Flash) error
	Pop(ctx context.Context, userID uint) (*models.Flash, error)
}

// RedisFlashStore 基于 Redis 的实现，key 为 flash:<uid>
type RedisFlashStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFlashStore(client *redis.Client) *RedisFlashStore {
	return &RedisFlashStore{client: client, ttl: flashTTL}
}

func flashKey(userID uint) string {
	return fmt.Sprintf("flash:%d", userID)
}

func (s *RedisFlashStore) Put(ctx context.Context, userID uint, flash models.Flash) error {
	payload, err := json.Marshal(flash)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, flashKey(userID), payload, s.ttl).Err()
}

// Pop 读取后立即删除
func (s *RedisFlashStore) Pop(ctx context.Context, userID uint) (*models.Flash, error) {
	key := flashKey(userID)

	var get *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	payload, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var flash models.Flash
	if err := json.Unmarshal(payload, &flash); err != nil {
		return nil, fmt.Errorf("decode flash: %w", err)
	}
	return &flash, nil
}

// NopFlashStore 未启用 Redis 时使用
type NopFlashStore struct{}

func (NopFlashStore) Put(context.Context, uint, models.Flash) error { return nil }

func (NopFlashStore) Pop(context.Context, uint) (*models.Flash, error) { return nil, nil }
