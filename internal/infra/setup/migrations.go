package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"pixel-editor/internal/domain"
)

// MigrateDB 迁移所有数据表，返回错误以便调用者决定是否继续启动。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	if err := migrateUsersTable(db); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}

	// images 表的 (owner_id, name) 唯一索引由模型标签声明
	if err := db.AutoMigrate(&domain.Image{}); err != nil {
		logrus.Errorf("Failed to auto-migrate images table: %v", err)
		return fmt.Errorf("failed to auto-migrate images table: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// migrateUsersTable 不存在时用原生 SQL 建表，存在时交给 AutoMigrate 补齐索引
func migrateUsersTable(db *gorm.DB) error {
	if db.Migrator().HasTable(&domain.User{}) {
		if err := db.AutoMigrate(&domain.User{}); err != nil {
			return fmt.Errorf("failed to migrate user indexes: %w", err)
		}
		logrus.Info("Users table schema checked/updated successfully")
		return nil
	}

	sql := `
	CREATE TABLE users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(191) NOT NULL,
		password TEXT NOT NULL,
		email VARCHAR(191),
		created_at DATETIME(3),
		updated_at DATETIME(3),
		UNIQUE INDEX idx_username (username),
		UNIQUE INDEX idx_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_general_ci;
	`
	if err := db.Exec(sql).Error; err != nil {
		logrus.Errorf("Failed to create users table: %v", err)
		return fmt.Errorf("failed to create users table: %w", err)
	}
	logrus.Info("Users table created successfully")
	return nil
}
