package service

import (
	"strconv"
	"testing"
	"time"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerTestUser(t *testing.T, env *testEnv, email string) *model.User {
	t.Helper()
	result, err := env.auth.Register("Test User", email, "Password#123")
	require.NoError(t, err)
	return result.User
}

func TestPasswordResetService_RequestCode(t *testing.T) {
	env := setupTestEnv(t)
	user := registerTestUser(t, env, "test@example.com")

	require.NoError(t, env.reset.RequestCode("test@example.com"))

	code := env.mailer.lastCode(t)
	assert.Len(t, code, 6)
	n, err := strconv.Atoi(code)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 100000)
	assert.LessOrEqual(t, n, 999999)

	stored, err := env.userRepo.FindByID(user.ID)
	require.NoError(t, err)
	require.True(t, stored.HasPendingOTP())
	assert.Equal(t, code, *stored.OTPCode)
	assert.WithinDuration(t, env.clock.Now().Add(OTPExpiry), *stored.OTPExpiresAt, time.Second)
}

func TestPasswordResetService_RequestCode_Errors(t *testing.T) {
	env := setupTestEnv(t)
	registerTestUser(t, env, "test@example.com")

	t.Run("unknown email", func(t *testing.T) {
		assert.ErrorIs(t, env.reset.RequestCode("nobody@example.com"), ErrUserNotFound)
		assert.Empty(t, env.mailer.sent)
	})

	t.Run("mail failure", func(t *testing.T) {
		env.mailer.err = errSMTPDown
		defer func() { env.mailer.err = nil }()

		assert.ErrorIs(t, env.reset.RequestCode("test@example.com"), ErrResetMailFailed)
	})
}

func TestPasswordResetService_RequestCode_Overwrites(t *testing.T) {
	env := setupTestEnv(t)
	registerTestUser(t, env, "test@example.com")

	require.NoError(t, env.reset.RequestCode("test@example.com"))
	first := env.mailer.lastCode(t)
	require.NoError(t, env.reset.RequestCode("test@example.com"))
	second := env.mailer.lastCode(t)

	if first != second {
		_, err := env.reset.VerifyCode("test@example.com", first)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}
	_, err := env.reset.VerifyCode("test@example.com", second)
	assert.NoError(t, err)
}

func TestPasswordResetService_VerifyCode(t *testing.T) {
	env := setupTestEnv(t)
	user := registerTestUser(t, env, "test@example.com")
	require.NoError(t, env.reset.RequestCode("test@example.com"))
	code := env.mailer.lastCode(t)

	t.Run("wrong code", func(t *testing.T) {
		wrong := "100000"
		if code == wrong {
			wrong = "100001"
		}
		_, err := env.reset.VerifyCode("test@example.com", wrong)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("wrong email", func(t *testing.T) {
		_, err := env.reset.VerifyCode("other@example.com", code)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("valid code", func(t *testing.T) {
		grant, err := env.reset.VerifyCode("test@example.com", code)
		require.NoError(t, err)
		assert.Equal(t, "test@example.com", grant.Email)
		assert.Len(t, grant.Token, 64)

		stored, err := env.userRepo.FindByID(user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.OTPCode)
		assert.Nil(t, stored.OTPExpiresAt)

		row, err := env.resetRepo.FindByEmailAndToken("test@example.com", util.HashToken(grant.Token))
		require.NoError(t, err)
		assert.NotEqual(t, grant.Token, row.Token, "token is stored as a digest")
	})

	t.Run("code cannot be reused", func(t *testing.T) {
		_, err := env.reset.VerifyCode("test@example.com", code)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})
}

func TestPasswordResetService_VerifyCode_Expired(t *testing.T) {
	env := setupTestEnv(t)
	user := registerTestUser(t, env, "test@example.com")
	require.NoError(t, env.reset.RequestCode("test@example.com"))
	code := env.mailer.lastCode(t)

	env.clock.Advance(OTPExpiry + time.Second)

	_, err := env.reset.VerifyCode("test@example.com", code)
	assert.ErrorIs(t, err, ErrOTPExpired)

	stored, err := env.userRepo.FindByID(user.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPendingOTP())

	_, err = env.reset.VerifyCode("test@example.com", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestPasswordResetService_VerifyCode_ReplacesPriorToken(t *testing.T) {
	env := setupTestEnv(t)
	registerTestUser(t, env, "test@example.com")

	require.NoError(t, env.reset.RequestCode("test@example.com"))
	first, err := env.reset.VerifyCode("test@example.com", env.mailer.lastCode(t))
	require.NoError(t, err)

	require.NoError(t, env.reset.RequestCode("test@example.com"))
	second, err := env.reset.VerifyCode("test@example.com", env.mailer.lastCode(t))
	require.NoError(t, err)

	var count int64
	require.NoError(t, env.db.Model(&model.PasswordResetToken{}).Where("email = ?", "test@example.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, env.reset.ResetPassword("test@example.com", first.Token, "NewPass#123"), ErrInvalidResetToken)
	assert.NoError(t, env.reset.ResetPassword("test@example.com", second.Token, "NewPass#123"))
}

func verifiedGrant(t *testing.T, env *testEnv, email string) *ResetGrant {
	t.Helper()
	require.NoError(t, env.reset.RequestCode(email))
	grant, err := env.reset.VerifyCode(email, env.mailer.lastCode(t))
	require.NoError(t, err)
	return grant
}

func TestPasswordResetService_ResetPassword(t *testing.T) {
	env := setupTestEnv(t)
	user := registerTestUser(t, env, "test@example.com")
	grant := verifiedGrant(t, env, "test@example.com")

	t.Run("wrong token", func(t *testing.T) {
		assert.ErrorIs(t, env.reset.ResetPassword("test@example.com", "deadbeef", "NewPass#123"), ErrInvalidResetToken)
	})

	t.Run("token bound to email", func(t *testing.T) {
		assert.ErrorIs(t, env.reset.ResetPassword("other@example.com", grant.Token, "NewPass#123"), ErrInvalidResetToken)
	})

	t.Run("valid token", func(t *testing.T) {
		require.NoError(t, env.reset.ResetPassword("test@example.com", grant.Token, "NewPass#123"))

		stored, err := env.userRepo.FindByID(user.ID)
		require.NoError(t, err)
		assert.True(t, util.VerifyPassword(stored.PasswordHash, "NewPass#123"))
		assert.False(t, util.VerifyPassword(stored.PasswordHash, "Password#123"))
	})

	t.Run("token is single use", func(t *testing.T) {
		assert.ErrorIs(t, env.reset.ResetPassword("test@example.com", grant.Token, "Other#1234"), ErrInvalidResetToken)
	})
}

func TestPasswordResetService_ResetPassword_Expired(t *testing.T) {
	env := setupTestEnv(t)
	registerTestUser(t, env, "test@example.com")
	grant := verifiedGrant(t, env, "test@example.com")

	env.clock.Advance(ResetTokenExpiry + time.Minute)

	assert.ErrorIs(t, env.reset.ResetPassword("test@example.com", grant.Token, "NewPass#123"), ErrResetTokenExpired)

	var count int64
	require.NoError(t, env.db.Model(&model.PasswordResetToken{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "expired token row is deleted")
}

func TestPasswordResetService_ResetPassword_UserGone(t *testing.T) {
	env := setupTestEnv(t)
	user := registerTestUser(t, env, "test@example.com")
	grant := verifiedGrant(t, env, "test@example.com")
	require.NoError(t, env.userRepo.Delete(user.ID))

	assert.ErrorIs(t, env.reset.ResetPassword("test@example.com", grant.Token, "NewPass#123"), ErrUserNotFound)

	_, err := env.resetRepo.FindByEmailAndToken("test@example.com", util.HashToken(grant.Token))
	assert.NoError(t, err, "failed reset leaves the token in place")
}

func TestPasswordResetService_PruneExpired(t *testing.T) {
	env := setupTestEnv(t)
	registerTestUser(t, env, "a@example.com")
	registerTestUser(t, env, "b@example.com")

	verifiedGrant(t, env, "a@example.com")
	require.NoError(t, env.reset.RequestCode("b@example.com"))

	env.clock.Advance(ResetTokenExpiry + time.Minute)

	result, err := env.reset.PruneExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ResetTokens)
	assert.Equal(t, int64(1), result.OTPCodes)
}

func TestPasswordResetFlow_EndToEnd(t *testing.T) {
	env := setupTestEnv(t)
	registerTestUser(t, env, "flow@example.com")

	require.NoError(t, env.reset.RequestCode("flow@example.com"))
	grant, err := env.reset.VerifyCode("flow@example.com", env.mailer.lastCode(t))
	require.NoError(t, err)
	require.NoError(t, env.reset.ResetPassword("flow@example.com", grant.Token, "Brand#New99"))

	_, err = env.auth.Login("flow@example.com", "Password#123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	result, err := env.auth.Login("flow@example.com", "Brand#New99")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}
