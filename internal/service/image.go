package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"pixel-editor/internal/domain"
	"pixel-editor/internal/editor"
	"pixel-editor/internal/preview"
	"pixel-editor/internal/repository"
)

// MaxImageNameLength 与 images.name 列的长度一致
const MaxImageNameLength = 191

// ImageService 负责图像的保存、读取和导出。
// 数据库是唯一的事实来源，Redis 只做读缓存。只接受与编辑器网格尺寸一致的图像。
type ImageService struct {
	imageRepo repository.ImageRepository
	cache     repository.ImageCacheRepository
	cacheTTL  time.Duration
	grid      editor.Grid
}

// NewImageService 创建 ImageService 实例。cache 可以为 nil，此时直接读写数据库。
func NewImageService(imageRepo repository.ImageRepository, cache repository.ImageCacheRepository, cacheTTL time.Duration, grid editor.Grid) *ImageService {
	if imageRepo == nil {
		panic("ImageRepository cannot be nil for ImageService")
	}
	return &ImageService{
		imageRepo: imageRepo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		grid:      grid,
	}
}

// Save 校验并保存图像记录，同名图像会被覆盖。
func (s *ImageService) Save(ctx context.Context, ownerID uint, rec editor.ImageRecord) (*domain.Image, error) {
	rec.Name = strings.TrimSpace(rec.Name)
	logCtx := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "image_name": rec.Name})

	if err := validateName(rec.Name); err != nil {
		return nil, err
	}
	if err := s.checkDimensions(rec.Width, rec.Height); err != nil {
		logCtx.WithError(err).Warn("Rejected image with foreign dimensions")
		return nil, err
	}
	if _, err := editor.ParseImageRecord(rec); err != nil {
		logCtx.WithError(err).Warn("Rejected invalid image record")
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	image := &domain.Image{OwnerID: ownerID}
	image.SetRecord(rec)
	if err := s.imageRepo.Save(ctx, image); err != nil {
		logCtx.WithError(err).Error("Failed to save image")
		return nil, ErrInternalServer
	}
	s.invalidate(ctx, ownerID, rec.Name)

	logCtx.WithFields(logrus.Fields{"width": rec.Width, "height": rec.Height}).Info("Image saved")
	return image, nil
}

// Get 读取图像，优先命中缓存，未命中时回源数据库并回填缓存。
func (s *ImageService) Get(ctx context.Context, ownerID uint, name string) (*domain.Image, error) {
	logCtx := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "image_name": name})

	if s.cache != nil {
		image, err := s.cache.GetImage(ctx, ownerID, name)
		if err == nil {
			return image, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			logCtx.WithError(err).Warn("Image cache read failed, falling back to database")
		}
	}

	image, err := s.imageRepo.FindByName(ctx, ownerID, name)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return nil, ErrImageNotFound
		}
		logCtx.WithError(err).Error("Failed to load image")
		return nil, ErrInternalServer
	}

	if s.cache != nil {
		if err := s.cache.SetImage(ctx, image, s.cacheTTL); err != nil {
			logCtx.WithError(err).Warn("Failed to backfill image cache")
		}
	}
	return image, nil
}

// List 返回用户的图像摘要列表，最近更新的在前。
func (s *ImageService) List(ctx context.Context, ownerID uint) ([]domain.ImageSummary, error) {
	logCtx := logrus.WithField("owner_id", ownerID)

	if s.cache != nil {
		list, err := s.cache.GetList(ctx, ownerID)
		if err == nil {
			return list, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			logCtx.WithError(err).Warn("Image list cache read failed, falling back to database")
		}
	}

	list, err := s.imageRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list images")
		return nil, ErrInternalServer
	}
	if list == nil {
		list = []domain.ImageSummary{}
	}

	if s.cache != nil {
		if err := s.cache.SetList(ctx, ownerID, list, s.cacheTTL); err != nil {
			logCtx.WithError(err).Warn("Failed to backfill image list cache")
		}
	}
	return list, nil
}

// Delete 删除图像并清理缓存。
func (s *ImageService) Delete(ctx context.Context, ownerID uint, name string) error {
	logCtx := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "image_name": name})

	if err := s.imageRepo.Delete(ctx, ownerID, name); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return ErrImageNotFound
		}
		logCtx.WithError(err).Error("Failed to delete image")
		return ErrInternalServer
	}
	s.invalidate(ctx, ownerID, name)
	logCtx.Info("Image deleted")
	return nil
}

// Preview 把图像放大 scale 倍并编码为指定格式。
func (s *ImageService) Preview(ctx context.Context, ownerID uint, name string, scale int, format preview.Format) ([]byte, error) {
	image, err := s.Get(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}
	if err := s.checkDimensions(image.Width, image.Height); err != nil {
		return nil, err
	}
	img, err := preview.Render(image.Record(), scale)
	if err != nil {
		if errors.Is(err, preview.ErrInvalidScale) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		// 数据库中的记录已无法解析
		logrus.WithFields(logrus.Fields{"owner_id": ownerID, "image_name": name}).
			WithError(err).Error("Stored image record is corrupt")
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	var buf bytes.Buffer
	if err := preview.Encode(&buf, img, format); err != nil {
		if errors.Is(err, preview.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, ErrInternalServer
	}
	return buf.Bytes(), nil
}

func (s *ImageService) invalidate(ctx context.Context, ownerID uint, name string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID, name); err != nil {
		logrus.WithFields(logrus.Fields{"owner_id": ownerID, "image_name": name}).
			WithError(err).Warn("Failed to invalidate image cache")
	}
}

func (s *ImageService) checkDimensions(width, height int) error {
	if width != s.grid.Width() || height != s.grid.Height() {
		return fmt.Errorf("%w: image is %dx%d, grid is %dx%d",
			ErrInvalidImage, width, height, s.grid.Width(), s.grid.Height())
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: image name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxImageNameLength {
		return fmt.Errorf("%w: image name longer than %d characters", ErrInvalidInput, MaxImageNameLength)
	}
	return nil
}
