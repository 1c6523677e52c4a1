package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"pixel-editor/internal/domain"
)

// ImageRepository 是 repository.ImageRepository 的 mock
type ImageRepository struct {
	mock.Mock
}

func (m *ImageRepository) Save(ctx context.Context, image *domain.Image) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *ImageRepository) FindByName(ctx context.Context, ownerID uint, name string) (*domain.Image, error) {
	args := m.Called(ctx, ownerID, name)
	image, _ := args.Get(0).(*domain.Image)
	return image, args.Error(1)
}

func (m *ImageRepository) ListByOwner(ctx context.Context, ownerID uint) ([]domain.ImageSummary, error) {
	args := m.Called(ctx, ownerID)
	list, _ := args.Get(0).([]domain.ImageSummary)
	return list, args.Error(1)
}

func (m *ImageRepository) Delete(ctx context.Context, ownerID uint, name string) error {
	args := m.Called(ctx, ownerID, name)
	return args.Error(0)
}

// ImageCacheRepository 是 repository.ImageCacheRepository 的 mock
type ImageCacheRepository struct {
	mock.Mock
}

func (m *ImageCacheRepository) GetImage(ctx context.Context, ownerID uint, name string) (*domain.Image, error) {
	args := m.Called(ctx, ownerID, name)
	image, _ := args.Get(0).(*domain.Image)
	return image, args.Error(1)
}

func (m *ImageCacheRepository) SetImage(ctx context.Context, image *domain.Image, ttl time.Duration) error {
	args := m.Called(ctx, image, ttl)
	return args.Error(0)
}

func (m *ImageCacheRepository) GetList(ctx context.Context, ownerID uint) ([]domain.ImageSummary, error) {
	args := m.Called(ctx, ownerID)
	list, _ := args.Get(0).([]domain.ImageSummary)
	return list, args.Error(1)
}

func (m *ImageCacheRepository) SetList(ctx context.Context, ownerID uint, list []domain.ImageSummary, ttl time.Duration) error {
	args := m.Called(ctx, ownerID, list, ttl)
	return args.Error(0)
}

func (m *ImageCacheRepository) Invalidate(ctx context.Context, ownerID uint, name string) error {
	args := m.Called(ctx, ownerID, name)
	return args.Error(0)
}
