package db

import (
	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&model.Permission{},
		&model.Role{},
		&model.User{},
		&model.PersonalAccessToken{},
		&model.PasswordResetToken{},
		&model.Province{},
		&model.Regency{},
		&model.District{},
		&model.Village{},
	}
}

// Migrate runs database migrations on the global connection.
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB runs AutoMigrate for all models on the given connection.
func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
