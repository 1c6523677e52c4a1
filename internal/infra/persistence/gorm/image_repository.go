package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pixel-editor/internal/domain"
	"pixel-editor/internal/repository"
)

// GormImageRepository 是 ImageRepository 接口的 GORM 实现
type GormImageRepository struct {
	db *gorm.DB
}

// NewGormImageRepository 创建 GormImageRepository 实例
func NewGormImageRepository(db *gorm.DB) *GormImageRepository {
	if db == nil {
		panic("database connection cannot be nil for GormImageRepository")
	}
	return &GormImageRepository{db: db}
}

// Save 按 (owner_id, name) 插入图像，已存在时覆盖尺寸和像素数据。
func (r *GormImageRepository) Save(ctx context.Context, image *domain.Image) error {
	if image == nil {
		return errors.New("gorm: cannot save nil image")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"width", "height", "data", "updated_at"}),
	}).Create(image).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save image (owner: %d, name: %s): %w", image.OwnerID, image.Name, err)
	}
	return nil
}

// FindByName 查找指定用户的某张图像
func (r *GormImageRepository) FindByName(ctx context.Context, ownerID uint, name string) (*domain.Image, error) {
	var image domain.Image
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND name = ?", ownerID, name).
		First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrImageNotFound
		}
		return nil, fmt.Errorf("gorm: find image (owner: %d, name: %s): %w", ownerID, name, err)
	}
	return &image, nil
}

// ListByOwner 返回用户的所有图像摘要，最近更新的在前
func (r *GormImageRepository) ListByOwner(ctx context.Context, ownerID uint) ([]domain.ImageSummary, error) {
	var list []domain.ImageSummary
	err := r.db.WithContext(ctx).
		Model(&domain.Image{}).
		Select("name", "width", "height", "updated_at").
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list images for owner %d: %w", ownerID, err)
	}
	return list, nil
}

// Delete 删除指定图像
func (r *GormImageRepository) Delete(ctx context.Context, ownerID uint, name string) error {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Delete(&domain.Image{})
	if result.Error != nil {
		return fmt.Errorf("gorm: delete image (owner: %d, name: %s): %w", ownerID, name, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrImageNotFound
	}
	return nil
}
