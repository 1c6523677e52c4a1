// Package domain 定义了应用程序中使用的数据结构 (数据库模型)。
package domain

import "time"

// User 表示应用程序中的用户，图像按用户隔离保存。
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"type:varchar(191);uniqueIndex:idx_username;not null"`
	Password  string    `gorm:"type:text;not null"` // 存储的是哈希后的密码，不能为空
	Email     string    `gorm:"type:varchar(191);uniqueIndex:idx_email"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
