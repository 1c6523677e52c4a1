package repository

import (
	"context"
	"time"

	"pixel-editor/internal/domain"
)

// ImageRepository 定义了图像记录在持久化存储 (数据库) 中的操作。
type ImageRepository interface {
	// Save 按 (OwnerID, Name) 插入或覆盖图像。
	Save(ctx context.Context, image *domain.Image) error

	// FindByName 查找指定用户的某张图像，不存在时返回 ErrImageNotFound。
	FindByName(ctx context.Context, ownerID uint, name string) (*domain.Image, error)

	// ListByOwner 返回用户的所有图像摘要，按更新时间倒序。
	ListByOwner(ctx context.Context, ownerID uint) ([]domain.ImageSummary, error)

	// Delete 删除指定图像，不存在时返回 ErrImageNotFound。
	Delete(ctx context.Context, ownerID uint, name string) error
}

// ImageCacheRepository 定义了图像记录的缓存操作，通常由 Redis 实现。
type ImageCacheRepository interface {
	// GetImage 从缓存读取图像，未命中时返回 ErrCacheMiss。
	GetImage(ctx context.Context, ownerID uint, name string) (*domain.Image, error)

	// SetImage 写入图像缓存，ttl 为 0 表示不过期。
	SetImage(ctx context.Context, image *domain.Image, ttl time.Duration) error

	// GetList 从缓存读取用户的图像列表，未命中时返回 ErrCacheMiss。
	GetList(ctx context.Context, ownerID uint) ([]domain.ImageSummary, error)

	// SetList 写入用户的图像列表缓存。
	SetList(ctx context.Context, ownerID uint, list []domain.ImageSummary, ttl time.Duration) error

	// Invalidate 删除某张图像及其所属用户列表的缓存。
	Invalidate(ctx context.Context, ownerID uint, name string) error
}
