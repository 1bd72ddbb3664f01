package service

import (
	"errors"
	"net/url"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/app/repository"
	"github.com/ikkim/userhub-backend/internal/query"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"github.com/ikkim/userhub-backend/pkg/util"
	"gorm.io/gorm"
)

// RoleFilterParam narrows the user list to holders of one role.
const RoleFilterParam = "role"

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Roles    []string
}

// UpdateUserInput leaves nil fields unchanged. A non-nil Role replaces all roles.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
}

// UserService is the admin side of user management.
type UserService interface {
	List(values url.Values) ([]model.User, *query.Page, error)
	Get(id uint) (*model.User, error)
	Create(input CreateUserInput) (*model.User, error)
	Update(id uint, input UpdateUserInput) (*model.User, error)
	Delete(id uint) error
}

type userService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	tokenRepo   repository.AccessTokenRepository
	roleService RoleService
}

func NewUserService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	tokenRepo repository.AccessTokenRepository,
	roleService RoleService,
) UserService {
	return &userService{
		db:          db,
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		roleService: roleService,
	}
}

func (s *userService) List(values url.Values) ([]model.User, *query.Page, error) {
	roleName := values.Get(RoleFilterParam)
	if roleName != "" {
		if _, err := s.roleService.FindRole(roleName); err != nil {
			return nil, nil, err
		}
	}
	return s.userRepo.List(values, roleName)
}

func (s *userService) Get(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Create stores the user and its roles in one transaction.
func (s *userService) Create(input CreateUserInput) (*model.User, error) {
	email := normalizeEmail(input.Email)
	logger.Info("Creating user", map[string]interface{}{
		"email": email,
		"roles": input.Roles,
	})

	taken, err := s.userRepo.EmailTaken(email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailAlreadyExists
	}

	roles, err := s.roleService.ResolveRoles(input.Roles)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: hashedPassword,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			return err
		}
		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, r.Name)
		}
		return s.roleService.WithTx(tx).SyncRoles(user.ID, names)
	})
	if err != nil {
		logger.Error("Failed to create user", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Info("User created", map[string]interface{}{
		"user_id": user.ID,
	})
	return s.Get(user.ID)
}

func (s *userService) Update(id uint, input UpdateUserInput) (*model.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		taken, err := s.userRepo.EmailTaken(email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = email
	}
	if input.Password != nil {
		hashedPassword, err := util.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashedPassword
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Update(user); err != nil {
			return err
		}
		if input.Role != nil {
			return s.roleService.WithTx(tx).SyncRoles(id, []string{*input.Role})
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrRoleNotFound) {
			logger.Error("Failed to update user", err, map[string]interface{}{
				"user_id": id,
			})
		}
		return nil, err
	}

	logger.Info("User updated", map[string]interface{}{
		"user_id": id,
	})
	return s.Get(id)
}

// Delete revokes the user's access tokens and removes the user.
func (s *userService) Delete(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.tokenRepo.WithTx(tx).DeleteByUser(id); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).Delete(id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		logger.Error("Failed to delete user", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}

	logger.Info("User deleted", map[string]interface{}{
		"user_id": id,
	})
	return nil
}
