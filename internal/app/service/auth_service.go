package service

import (
	"errors"
	"strings"
	"time"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/app/repository"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"github.com/ikkim/userhub-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// AccessTokenName labels the token rows created by login and registration.
const AccessTokenName = "auth_token"

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      *model.User
	Roles     []string
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(name, email, password string) (*AuthResult, error)
	Login(email, password string) (*AuthResult, error)
	Logout(tokenID string) error
	Authenticate(tokenString string) (*util.Claims, error)
	GetUser(id uint) (*model.User, error)
	PruneExpiredTokens() (int64, error)
}

type authService struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	tokenRepo    repository.AccessTokenRepository
	roleService  RoleService
	jwtSecret    string
	accessExpiry time.Duration
	now          func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	tokenRepo repository.AccessTokenRepository,
	roleService RoleService,
	jwtSecret string,
	accessExpiry time.Duration,
) AuthService {
	return &authService{
		db:           db,
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		roleService:  roleService,
		jwtSecret:    jwtSecret,
		accessExpiry: accessExpiry,
		now:          time.Now,
	}
}

// Register creates the user with the default role and a first access token
// in one transaction.
func (s *authService) Register(name, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
		"name":  name,
	})

	taken, err := s.userRepo.EmailTaken(email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
	}

	var issued *util.IssuedToken
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			return err
		}
		if err := s.roleService.WithTx(tx).AssignRole(user.ID, model.RoleUser); err != nil {
			return err
		}
		var err error
		issued, err = s.issueToken(s.tokenRepo.WithTx(tx), user)
		return err
	})
	if err != nil {
		logger.Error("Failed to register user", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})

	return &AuthResult{
		User:      user,
		Roles:     []string{model.RoleUser},
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// Login verifies the credentials, revokes the user's previous tokens and
// issues a new one.
func (s *authService) Login(email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, ErrInvalidCredentials
	}

	var issued *util.IssuedToken
	err = s.db.Transaction(func(tx *gorm.DB) error {
		tokens := s.tokenRepo.WithTx(tx)
		if _, err := tokens.DeleteByUser(user.ID); err != nil {
			return err
		}
		var err error
		issued, err = s.issueToken(tokens, user)
		return err
	})
	if err != nil {
		logger.Error("Failed to issue access token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})

	return &AuthResult{
		User:      user,
		Roles:     user.RoleNames(),
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

func (s *authService) Logout(tokenID string) error {
	if err := s.tokenRepo.DeleteByTokenID(tokenID); err != nil {
		logger.Error("Failed to revoke access token", err)
		return err
	}
	logger.Info("Access token revoked")
	return nil
}

// Authenticate validates the bearer token and checks that it has not been revoked.
func (s *authService) Authenticate(tokenString string) (*util.Claims, error) {
	claims, err := util.ValidateToken(tokenString, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	row, err := s.tokenRepo.FindByTokenID(claims.TokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Rejected revoked access token", map[string]interface{}{
				"user_id": claims.UserID,
			})
			return nil, ErrTokenRevoked
		}
		return nil, err
	}
	if row.UserID != claims.UserID {
		return nil, util.ErrInvalidToken
	}

	now := s.now()
	if row.ExpiresAt.Before(now) {
		return nil, util.ErrExpiredToken
	}
	if err := s.tokenRepo.Touch(row.ID, now); err != nil {
		logger.Warn("Failed to record access token use", map[string]interface{}{
			"token_row_id": row.ID,
			"error":        err.Error(),
		})
	}
	return claims, nil
}

func (s *authService) GetUser(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) PruneExpiredTokens() (int64, error) {
	deleted, err := s.tokenRepo.DeleteExpired(s.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.Info("Expired access tokens pruned", map[string]interface{}{
			"count": deleted,
		})
	}
	return deleted, nil
}

func (s *authService) issueToken(tokens repository.AccessTokenRepository, user *model.User) (*util.IssuedToken, error) {
	issued, err := util.GenerateAccessToken(user.ID, user.Email, s.jwtSecret, s.accessExpiry)
	if err != nil {
		return nil, err
	}
	if err := tokens.Create(&model.PersonalAccessToken{
		UserID:    user.ID,
		TokenID:   issued.TokenID,
		Name:      AccessTokenName,
		ExpiresAt: issued.ExpiresAt,
	}); err != nil {
		return nil, err
	}
	return issued, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
