package repository

import (
	"time"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"gorm.io/gorm"
)

type AccessTokenRepository interface {
	WithTx(tx *gorm.DB) AccessTokenRepository
	Create(token *model.PersonalAccessToken) error
	FindByTokenID(tokenID string) (*model.PersonalAccessToken, error)
	Touch(id uint, at time.Time) error
	DeleteByTokenID(tokenID string) error
	DeleteByUser(userID uint) (int64, error)
	DeleteExpired(now time.Time) (int64, error)
}

type accessTokenRepository struct {
	db *gorm.DB
}

func NewAccessTokenRepository(db *gorm.DB) AccessTokenRepository {
	return &accessTokenRepository{db: db}
}

func (r *accessTokenRepository) WithTx(tx *gorm.DB) AccessTokenRepository {
	return &accessTokenRepository{db: tx}
}

func (r *accessTokenRepository) Create(token *model.PersonalAccessToken) error {
	logger.Debug("Creating access token in database", map[string]interface{}{
		"user_id": token.UserID,
	})

	if err := r.db.Create(token).Error; err != nil {
		logger.Error("Failed to create access token in database", err, map[string]interface{}{
			"user_id": token.UserID,
		})
		return err
	}
	return nil
}

func (r *accessTokenRepository) FindByTokenID(tokenID string) (*model.PersonalAccessToken, error) {
	var token model.PersonalAccessToken
	if err := r.db.Where("token_id = ?", tokenID).First(&token).Error; err != nil {
		logFindError("Failed to find access token in database", err, nil)
		return nil, err
	}
	return &token, nil
}

func (r *accessTokenRepository) Touch(id uint, at time.Time) error {
	return r.db.Model(&model.PersonalAccessToken{}).Where("id = ?", id).Update("last_used_at", at).Error
}

func (r *accessTokenRepository) DeleteByTokenID(tokenID string) error {
	logger.Debug("Deleting access token from database")

	if err := r.db.Where("token_id = ?", tokenID).Delete(&model.PersonalAccessToken{}).Error; err != nil {
		logger.Error("Failed to delete access token from database", err)
		return err
	}
	return nil
}

func (r *accessTokenRepository) DeleteByUser(userID uint) (int64, error) {
	result := r.db.Where("user_id = ?", userID).Delete(&model.PersonalAccessToken{})
	if result.Error != nil {
		logger.Error("Failed to delete access tokens of user from database", result.Error, map[string]interface{}{
			"user_id": userID,
		})
		return 0, result.Error
	}

	logger.Debug("Access tokens of user deleted from database", map[string]interface{}{
		"user_id": userID,
		"count":   result.RowsAffected,
	})
	return result.RowsAffected, nil
}

func (r *accessTokenRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", now).Delete(&model.PersonalAccessToken{})
	if result.Error != nil {
		logger.Error("Failed to delete expired access tokens from database", result.Error)
		return 0, result.Error
	}

	logger.Debug("Expired access tokens deleted from database", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
