package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"pixel-editor/internal/domain"
	"pixel-editor/internal/repository"
)

// RedisImageCache 是 ImageCacheRepository 接口的 Redis 实现
type RedisImageCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisImageCache 创建 RedisImageCache 实例
func NewRedisImageCache(client *redis.Client, keyPrefix string) *RedisImageCache {
	if client == nil {
		panic("redis client cannot be nil for RedisImageCache")
	}
	if keyPrefix == "" {
		keyPrefix = "px:"
	}
	return &RedisImageCache{client: client, keyPrefix: keyPrefix}
}

// --- Key Generation Helpers ---
func (r *RedisImageCache) imageKey(ownerID uint, name string) string {
	return fmt.Sprintf("%suser:%d:image:%s", r.keyPrefix, ownerID, name)
}

func (r *RedisImageCache) listKey(ownerID uint) string {
	return fmt.Sprintf("%suser:%d:images", r.keyPrefix, ownerID)
}

// GetImage 读取缓存的图像记录
func (r *RedisImageCache) GetImage(ctx context.Context, ownerID uint, name string) (*domain.Image, error) {
	key := r.imageKey(ownerID, name)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis: failed to get image from %s: %w", key, err)
	}
	var image domain.Image
	if err := json.Unmarshal(raw, &image); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal image from %s: %w", key, err)
	}
	return &image, nil
}

// SetImage 缓存图像记录
func (r *RedisImageCache) SetImage(ctx context.Context, image *domain.Image, ttl time.Duration) error {
	key := r.imageKey(image.OwnerID, image.Name)
	raw, err := json.Marshal(image)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal image for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to set image on %s: %w", key, err)
	}
	return nil
}

// GetList 读取缓存的图像列表
func (r *RedisImageCache) GetList(ctx context.Context, ownerID uint) ([]domain.ImageSummary, error) {
	key := r.listKey(ownerID)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis: failed to get image list from %s: %w", key, err)
	}
	var list []domain.ImageSummary
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal image list from %s: %w", key, err)
	}
	return list, nil
}

// SetList 缓存图像列表
func (r *RedisImageCache) SetList(ctx context.Context, ownerID uint, list []domain.ImageSummary, ttl time.Duration) error {
	key := r.listKey(ownerID)
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal image list for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to set image list on %s: %w", key, err)
	}
	return nil
}

// Invalidate 在一个 pipeline 中删除图像和列表缓存
func (r *RedisImageCache) Invalidate(ctx context.Context, ownerID uint, name string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.imageKey(ownerID, name))
	pipe.Del(ctx, r.listKey(ownerID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to invalidate image cache (owner: %d, name: %s): %w", ownerID, name, err)
	}
	return nil
}
