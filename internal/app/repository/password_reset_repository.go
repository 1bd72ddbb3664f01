package repository

import (
	"time"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"gorm.io/gorm"
)

// PasswordResetRepository stores reset tokens by digest; callers hash before lookup.
type PasswordResetRepository interface {
	WithTx(tx *gorm.DB) PasswordResetRepository
	Create(reset *model.PasswordResetToken) error
	FindByEmailAndToken(email, tokenDigest string) (*model.PasswordResetToken, error)
	Delete(id uint) error
	DeleteByEmail(email string) error
	DeleteCreatedBefore(cutoff time.Time) (int64, error)
}

type passwordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) WithTx(tx *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: tx}
}

func (r *passwordResetRepository) Create(reset *model.PasswordResetToken) error {
	logger.Debug("Creating password reset token in database", map[string]interface{}{
		"email": reset.Email,
	})

	if err := r.db.Create(reset).Error; err != nil {
		logger.Error("Failed to create password reset token in database", err, map[string]interface{}{
			"email": reset.Email,
		})
		return err
	}

	logger.Debug("Password reset token created in database", map[string]interface{}{
		"id":    reset.ID,
		"email": reset.Email,
	})
	return nil
}

func (r *passwordResetRepository) FindByEmailAndToken(email, tokenDigest string) (*model.PasswordResetToken, error) {
	logger.Debug("Finding password reset token in database", map[string]interface{}{
		"email": email,
	})

	var reset model.PasswordResetToken
	if err := r.db.Where("email = ? AND token = ?", email, tokenDigest).First(&reset).Error; err != nil {
		logFindError("Failed to find password reset token in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepository) Delete(id uint) error {
	logger.Debug("Deleting password reset token from database", map[string]interface{}{
		"id": id,
	})

	if err := r.db.Delete(&model.PasswordResetToken{}, id).Error; err != nil {
		logger.Error("Failed to delete password reset token from database", err, map[string]interface{}{
			"id": id,
		})
		return err
	}
	return nil
}

func (r *passwordResetRepository) DeleteByEmail(email string) error {
	if err := r.db.Where("email = ?", email).Delete(&model.PasswordResetToken{}).Error; err != nil {
		logger.Error("Failed to delete password reset tokens by email", err, map[string]interface{}{
			"email": email,
		})
		return err
	}
	return nil
}

func (r *passwordResetRepository) DeleteCreatedBefore(cutoff time.Time) (int64, error) {
	logger.Debug("Deleting expired password reset tokens from database")

	result := r.db.Where("created_at < ?", cutoff).Delete(&model.PasswordResetToken{})
	if result.Error != nil {
		logger.Error("Failed to delete expired password reset tokens from database", result.Error)
		return 0, result.Error
	}

	logger.Debug("Expired password reset tokens deleted from database", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
