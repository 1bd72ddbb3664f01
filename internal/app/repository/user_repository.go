package repository

import (
	"errors"
	"net/url"
	"time"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/query"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserListOptions whitelists the list parameters of the users endpoint.
// List also matches the search term against role names.
var UserListOptions = query.Options{
	AllowedSort:       []string{"id", "name", "email", "created_at"},
	AllowedRelations:  []string{"Roles"},
	SearchableColumns: []string{"name", "email"},
}

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByEmailAndOTP(email, code string) (*model.User, error)
	EmailTaken(email string, exceptID uint) (bool, error)
	Update(user *model.User) error
	UpdatePassword(id uint, passwordHash string) error
	SetOTP(id uint, code string, expiresAt time.Time) error
	ClearOTP(id uint) error
	ClearExpiredOTPs(now time.Time) (int64, error)
	Delete(id uint) error
	List(values url.Values, roleName string) ([]model.User, *query.Page, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
	})

	if err := r.db.Omit(clause.Associations).Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	logger.Debug("Finding user by ID in database", map[string]interface{}{
		"user_id": id,
	})

	var user model.User
	if err := r.db.Preload("Roles").First(&user, id).Error; err != nil {
		logFindError("Failed to find user by ID in database", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}

	logger.Debug("User found by ID in database", map[string]interface{}{
		"user_id": user.ID,
		"roles":   len(user.Roles),
	})
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	logger.Debug("Finding user by email in database", map[string]interface{}{
		"email": email,
	})

	var user model.User
	if err := r.db.Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		logFindError("Failed to find user by email in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Debug("User found by email in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return &user, nil
}

func (r *userRepository) FindByEmailAndOTP(email, code string) (*model.User, error) {
	logger.Debug("Finding user by email and OTP in database", map[string]interface{}{
		"email": email,
	})

	var user model.User
	if err := r.db.Where("email = ? AND otp_code = ?", email, code).First(&user).Error; err != nil {
		logFindError("Failed to find user by email and OTP in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	return &user, nil
}

// EmailTaken reports whether another user owns email.
func (r *userRepository) EmailTaken(email string, exceptID uint) (bool, error) {
	var count int64
	q := r.db.Model(&model.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		logger.Error("Failed to check email uniqueness", err, map[string]interface{}{
			"email": email,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Update(user *model.User) error {
	logger.Debug("Updating user in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	if err := r.db.Omit(clause.Associations).Save(user).Error; err != nil {
		logger.Error("Failed to update user in database", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	logger.Debug("User updated in database", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

func (r *userRepository) UpdatePassword(id uint, passwordHash string) error {
	logger.Debug("Updating user password in database", map[string]interface{}{
		"user_id": id,
	})

	result := r.db.Model(&model.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if result.Error != nil {
		logger.Error("Failed to update user password in database", result.Error, map[string]interface{}{
			"user_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetOTP stores the code and its expiry together, replacing any previous code.
func (r *userRepository) SetOTP(id uint, code string, expiresAt time.Time) error {
	logger.Debug("Storing OTP for user in database", map[string]interface{}{
		"user_id":    id,
		"expires_at": expiresAt,
	})

	err := r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"otp_code":       code,
		"otp_expires_at": expiresAt,
	}).Error
	if err != nil {
		logger.Error("Failed to store OTP for user in database", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	return nil
}

// ClearOTP nulls both OTP columns.
func (r *userRepository) ClearOTP(id uint) error {
	logger.Debug("Clearing OTP for user in database", map[string]interface{}{
		"user_id": id,
	})

	err := r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"otp_code":       nil,
		"otp_expires_at": nil,
	}).Error
	if err != nil {
		logger.Error("Failed to clear OTP for user in database", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	return nil
}

func (r *userRepository) ClearExpiredOTPs(now time.Time) (int64, error) {
	result := r.db.Model(&model.User{}).
		Where("otp_expires_at IS NOT NULL AND otp_expires_at < ?", now).
		Updates(map[string]interface{}{
			"otp_code":       nil,
			"otp_expires_at": nil,
		})
	if result.Error != nil {
		logger.Error("Failed to clear expired OTPs in database", result.Error)
		return 0, result.Error
	}

	logger.Debug("Expired OTPs cleared in database", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}

// Delete removes the user row and its role links so the email can be
// registered again.
func (r *userRepository) Delete(id uint) error {
	logger.Debug("Deleting user from database", map[string]interface{}{
		"user_id": id,
	})

	if err := r.db.Model(&model.User{ID: id}).Association("Roles").Clear(); err != nil {
		logger.Error("Failed to detach roles from user in database", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}

	result := r.db.Delete(&model.User{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete user from database", result.Error, map[string]interface{}{
			"user_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("User deleted from database", map[string]interface{}{
		"user_id": id,
	})
	return nil
}

// List pages through users. A non-empty roleName keeps only holders of that role.
func (r *userRepository) List(values url.Values, roleName string) ([]model.User, *query.Page, error) {
	logger.Debug("Listing users from database", map[string]interface{}{
		"query": values.Encode(),
		"role":  roleName,
	})

	q := r.db.Model(&model.User{})
	if roleName != "" {
		holders := r.db.Table("user_roles").
			Select("user_roles.user_id").
			Joins("JOIN roles ON roles.id = user_roles.role_id").
			Where("roles.name = ?", roleName)
		q = q.Where("users.id IN (?)", holders)
	}

	opts := UserListOptions
	opts.SearchRelated = func(pattern string) clause.Expression {
		matching := r.db.Table("user_roles").
			Select("user_roles.user_id").
			Joins("JOIN roles ON roles.id = user_roles.role_id").
			Where("LOWER(roles.name) LIKE ? "+query.LikeEscape, pattern)
		return clause.Expr{SQL: "users.id IN (?)", Vars: []interface{}{matching}}
	}

	var users []model.User
	page, err := query.Paginate(q, values, opts, &users)
	if err != nil {
		logger.Error("Failed to list users from database", err)
		return nil, nil, err
	}

	logger.Debug("Users listed from database", map[string]interface{}{
		"count": len(users),
		"total": page.Total,
	})
	return users, page, nil
}

// logFindError keeps missing rows out of the error log; they are expected.
func logFindError(msg string, err error, fields map[string]interface{}) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Debug(msg, fields)
		return
	}
	logger.Error(msg, err, fields)
}
