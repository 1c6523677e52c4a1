package domain

import (
	"time"

	"pixel-editor/internal/editor"
)

// Image 表示一张已保存的像素图 (数据库模型)。
// 同一用户下 Name 唯一，重名保存会覆盖旧记录。
type Image struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;uniqueIndex:idx_owner_name,priority:1" json:"owner_id"`        // 所属用户 ID
	Name      string    `gorm:"type:varchar(191);not null;uniqueIndex:idx_owner_name,priority:2" json:"name"` // 图像名称
	Width     int       `gorm:"not null" json:"width"`
	Height    int       `gorm:"not null" json:"height"`
	Data      string    `gorm:"type:longtext;not null" json:"data"` // 渲染缓存的 JSON 编码 (带 r,g,b,a 通道)
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updated_at"`
}

// ImageSummary 是列表接口返回的图像摘要，不含像素数据。
type ImageSummary struct {
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record 将数据库模型转换为编辑器的图像记录。
func (i *Image) Record() editor.ImageRecord {
	return editor.ImageRecord{
		Name:   i.Name,
		Width:  i.Width,
		Height: i.Height,
		Data:   i.Data,
	}
}

// SetRecord 用编辑器的图像记录填充模型字段。
func (i *Image) SetRecord(rec editor.ImageRecord) {
	i.Name = rec.Name
	i.Width = rec.Width
	i.Height = rec.Height
	i.Data = rec.Data
}

// Summary 返回图像摘要。
func (i *Image) Summary() ImageSummary {
	return ImageSummary{
		Name:      i.Name,
		Width:     i.Width,
		Height:    i.Height,
		UpdatedAt: i.UpdatedAt,
	}
}
