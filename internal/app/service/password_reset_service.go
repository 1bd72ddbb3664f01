package service

import (
	"errors"
	"time"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/app/repository"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"github.com/ikkim/userhub-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrResetMailFailed   = errors.New("failed to send reset password code")
	ErrInvalidOTP        = errors.New("invalid email or code")
	ErrOTPExpired        = errors.New("reset code has expired")
	ErrInvalidResetToken = errors.New("invalid reset token")
	ErrResetTokenExpired = errors.New("reset token has expired")
)

const (
	// OTPExpiry is how long a reset code can be verified
	OTPExpiry = 2 * time.Minute
	// ResetTokenExpiry is how long a verified reset token can be used
	ResetTokenExpiry = 60 * time.Minute
	// ResetTokenLength is the byte length of the reset token
	ResetTokenLength = 32
)

// ResetGrant is handed to the client after a successful code verification.
type ResetGrant struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// PruneResult counts what PruneExpired removed.
type PruneResult struct {
	ResetTokens int64
	OTPCodes    int64
}

// PasswordResetService runs the reset flow: RequestCode mails a one-time
// code, VerifyCode exchanges it for a reset token and ResetPassword consumes
// the token.
type PasswordResetService interface {
	RequestCode(email string) error
	VerifyCode(email, code string) (*ResetGrant, error)
	ResetPassword(email, token, newPassword string) error
	PruneExpired() (*PruneResult, error)
}

type passwordResetService struct {
	db        *gorm.DB
	resetRepo repository.PasswordResetRepository
	userRepo  repository.UserRepository
	mailer    Mailer
	now       func() time.Time
}

type PasswordResetOption func(*passwordResetService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) PasswordResetOption {
	return func(s *passwordResetService) {
		s.now = now
	}
}

func NewPasswordResetService(
	db *gorm.DB,
	resetRepo repository.PasswordResetRepository,
	userRepo repository.UserRepository,
	mailer Mailer,
	opts ...PasswordResetOption,
) PasswordResetService {
	s := &passwordResetService{
		db:        db,
		resetRepo: resetRepo,
		userRepo:  userRepo,
		mailer:    mailer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestCode stores a fresh 6-digit code for the user, replacing any
// previous one, and mails it.
func (s *passwordResetService) RequestCode(email string) error {
	email = normalizeEmail(email)
	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset requested for unknown email", map[string]interface{}{
				"email": email,
			})
			return ErrUserNotFound
		}
		return err
	}

	code, err := util.GenerateOTPCode()
	if err != nil {
		logger.Error("Failed to generate reset code", err, map[string]interface{}{
			"email": email,
		})
		return err
	}
	expiresAt := s.now().Add(OTPExpiry)

	if err := s.userRepo.SetOTP(user.ID, code, expiresAt); err != nil {
		return err
	}

	if err := s.mailer.SendResetCode(ResetCodeMail{
		Name:      user.Name,
		Email:     user.Email,
		Code:      code,
		ExpiresAt: expiresAt,
	}); err != nil {
		logger.Error("Failed to send reset code", err, map[string]interface{}{
			"email": email,
		})
		return ErrResetMailFailed
	}

	logger.Info("Reset code sent", map[string]interface{}{
		"user_id":    user.ID,
		"expires_at": expiresAt,
	})
	return nil
}

// VerifyCode exchanges a valid code for a reset token. A wrong email and a
// wrong code are indistinguishable to the caller.
func (s *passwordResetService) VerifyCode(email, code string) (*ResetGrant, error) {
	email = normalizeEmail(email)
	logger.Info("Verifying reset code", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmailAndOTP(email, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Reset code verification failed", map[string]interface{}{
				"email": email,
			})
			return nil, ErrInvalidOTP
		}
		return nil, err
	}

	now := s.now()
	if user.OTPExpiresAt == nil || user.OTPExpiresAt.Before(now) {
		if err := s.userRepo.ClearOTP(user.ID); err != nil {
			return nil, err
		}
		logger.Warn("Reset code expired", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, ErrOTPExpired
	}

	token, err := util.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		logger.Error("Failed to generate reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		resets := s.resetRepo.WithTx(tx)
		if err := s.userRepo.WithTx(tx).ClearOTP(user.ID); err != nil {
			return err
		}
		if err := resets.DeleteByEmail(user.Email); err != nil {
			return err
		}
		return resets.Create(&model.PasswordResetToken{
			Email:     user.Email,
			Token:     util.HashToken(token),
			CreatedAt: now,
		})
	})
	if err != nil {
		logger.Error("Failed to issue reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	logger.Info("Reset token issued", map[string]interface{}{
		"user_id": user.ID,
	})
	return &ResetGrant{Email: user.Email, Token: token}, nil
}

// ResetPassword sets the new password and consumes the token in one
// transaction; on failure the token stays usable.
func (s *passwordResetService) ResetPassword(email, token, newPassword string) error {
	email = normalizeEmail(email)
	logger.Info("Processing password reset with token", map[string]interface{}{
		"email": email,
	})

	reset, err := s.resetRepo.FindByEmailAndToken(email, util.HashToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Invalid reset token provided", map[string]interface{}{
				"email": email,
			})
			return ErrInvalidResetToken
		}
		return err
	}

	if s.now().Sub(reset.CreatedAt) > ResetTokenExpiry {
		if err := s.resetRepo.Delete(reset.ID); err != nil {
			return err
		}
		logger.Warn("Reset token has expired", map[string]interface{}{
			"email":      email,
			"created_at": reset.CreatedAt,
		})
		return ErrResetTokenExpired
	}

	hashedPassword, err := util.HashPassword(newPassword)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	var userID uint
	err = s.db.Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		user, err := users.FindByEmail(email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		userID = user.ID
		if err := users.UpdatePassword(user.ID, hashedPassword); err != nil {
			return err
		}
		return s.resetRepo.WithTx(tx).Delete(reset.ID)
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			logger.Error("Failed to reset password", err, map[string]interface{}{
				"email": email,
			})
		}
		return err
	}

	logger.Info("Password reset successfully", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// PruneExpired removes reset tokens and codes whose window has passed.
func (s *passwordResetService) PruneExpired() (*PruneResult, error) {
	now := s.now()

	tokens, err := s.resetRepo.DeleteCreatedBefore(now.Add(-ResetTokenExpiry))
	if err != nil {
		return nil, err
	}
	codes, err := s.userRepo.ClearExpiredOTPs(now)
	if err != nil {
		return nil, err
	}

	if tokens > 0 || codes > 0 {
		logger.Info("Expired reset state pruned", map[string]interface{}{
			"reset_tokens": tokens,
			"otp_codes":    codes,
		})
	}
	return &PruneResult{ResetTokens: tokens, OTPCodes: codes}, nil
}
