package controller

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthController_Register_Success(t *testing.T) {
	s := setupControllerTest(t)

	w, body := s.do(t, http.MethodPost, "/api/register", gin.H{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": testPassword,
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User registered successfully.", body["message"])
	assert.Nil(t, body["error"])
	assert.Equal(t, []interface{}{}, body["errors"])
	assert.Equal(t, float64(http.StatusCreated), body["status"])
	assert.NotContains(t, body, "meta")

	data := dataOf(t, body)
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "test@example.com", user["email"])
	assert.Equal(t, "Test User", user["name"])
	assert.NotContains(t, user, "password")
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, []interface{}{"user"}, data["roles"])
}

func TestAuthController_Register_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  gin.H
		field string
	}{
		{name: "missing name", body: gin.H{"email": "a@example.com", "password": testPassword}, field: "name"},
		{name: "invalid email", body: gin.H{"name": "A", "email": "not-an-email", "password": testPassword}, field: "email"},
		{name: "short password", body: gin.H{"name": "A", "email": "a@example.com", "password": "Ab#1"}, field: "password"},
		{name: "password without symbol", body: gin.H{"name": "A", "email": "a@example.com", "password": "Secret1234"}, field: "password"},
		{name: "password without upper case", body: gin.H{"name": "A", "email": "a@example.com", "password": "secret#123"}, field: "password"},
		{name: "password without digit", body: gin.H{"name": "A", "email": "a@example.com", "password": "Secret#abc"}, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupControllerTest(t)

			w, body := s.do(t, http.MethodPost, "/api/register", tt.body, "")

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, "Validation Failed", body["error"])
			assert.Equal(t, tt.field, firstFieldError(t, body)["field"])
		})
	}
}

func TestAuthController_Register_DuplicateEmail(t *testing.T) {
	s := setupControllerTest(t)
	s.register(t, "First", "dup@example.com")

	w, body := s.do(t, http.MethodPost, "/api/register", gin.H{
		"name":     "Second",
		"email":    "dup@example.com",
		"password": testPassword,
	}, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "email", firstFieldError(t, body)["field"])
}

func TestAuthController_Login(t *testing.T) {
	s := setupControllerTest(t)
	s.register(t, "Test User", "login@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		w, body := s.do(t, http.MethodPost, "/api/login", gin.H{
			"email":    "login@example.com",
			"password": testPassword,
		}, "")

		require.Equal(t, http.StatusOK, w.Code)
		data := dataOf(t, body)
		assert.NotEmpty(t, data["token"])
		assert.Equal(t, []interface{}{"user"}, data["roles"])
	})

	t.Run("wrong password", func(t *testing.T) {
		w, body := s.do(t, http.MethodPost, "/api/login", gin.H{
			"email":    "login@example.com",
			"password": "Wrong#123",
		}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Authentication Failed", body["error"])
	})

	t.Run("unknown email", func(t *testing.T) {
		w, _ := s.do(t, http.MethodPost, "/api/login", gin.H{
			"email":    "nobody@example.com",
			"password": testPassword,
		}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthController_Login_RevokesPreviousToken(t *testing.T) {
	s := setupControllerTest(t)
	firstToken := s.register(t, "Test User", "revoke@example.com")

	w, body := s.do(t, http.MethodPost, "/api/login", gin.H{
		"email":    "revoke@example.com",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	secondToken := dataOf(t, body)["token"].(string)

	w, _ = s.do(t, http.MethodGet, "/api/user", nil, firstToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/user", nil, secondToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthController_UserAndLogout(t *testing.T) {
	s := setupControllerTest(t)
	token := s.register(t, "Test User", "me@example.com")

	w, body := s.do(t, http.MethodGet, "/api/user", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, body)
	assert.Equal(t, "me@example.com", data["user"].(map[string]interface{})["email"])
	assert.Equal(t, []interface{}{"user"}, data["roles"])
	assert.NotContains(t, data, "token")

	w, body = s.do(t, http.MethodPost, "/api/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["data"])

	w, _ = s.do(t, http.MethodGet, "/api/user", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_RequestPasswordReset(t *testing.T) {
	s := setupControllerTest(t)
	s.register(t, "Test User", "reset@example.com")

	t.Run("unknown email", func(t *testing.T) {
		w, body := s.do(t, http.MethodPost, "/api/reset-password-request", gin.H{"email": "nobody@example.com"}, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Reset Password Failed", body["error"])
	})

	t.Run("invalid email", func(t *testing.T) {
		w, _ := s.do(t, http.MethodPost, "/api/reset-password-request", gin.H{"email": "nope"}, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("code sent", func(t *testing.T) {
		w, _ := s.do(t, http.MethodPost, "/api/reset-password-request", gin.H{"email": "reset@example.com"}, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, s.mailer.lastCode(t), 6)
	})

	t.Run("mail failure", func(t *testing.T) {
		s.mailer.err = errMailDown
		defer func() { s.mailer.err = nil }()

		w, body := s.do(t, http.MethodPost, "/api/reset-password-request", gin.H{"email": "reset@example.com"}, "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Reset Password Failed", body["error"])
	})
}

func TestAuthController_VerifyOTP(t *testing.T) {
	s := setupControllerTest(t)
	s.register(t, "Test User", "otp@example.com")

	w, _ := s.do(t, http.MethodPost, "/api/reset-password-request", gin.H{"email": "otp@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	code := s.mailer.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	tests := []struct {
		name   string
		body   gin.H
		status int
		errKey string
	}{
		{name: "malformed code", body: gin.H{"email": "otp@example.com", "code": "12ab"}, status: http.StatusUnprocessableEntity, errKey: "Validation Failed"},
		{name: "wrong code", body: gin.H{"email": "otp@example.com", "code": wrong}, status: http.StatusUnauthorized, errKey: "Authentication Failed"},
		{name: "wrong email", body: gin.H{"email": "other@example.com", "code": code}, status: http.StatusUnauthorized, errKey: "Authentication Failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := s.do(t, http.MethodPost, "/api/verify-otp", tt.body, "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.errKey, body["error"])
		})
	}

	t.Run("valid code", func(t *testing.T) {
		w, body := s.do(t, http.MethodPost, "/api/verify-otp", gin.H{"email": "otp@example.com", "code": code}, "")
		require.Equal(t, http.StatusOK, w.Code)
		data := dataOf(t, body)
		assert.Equal(t, "otp@example.com", data["email"])
		assert.Len(t, data["token"], 64)
	})
}

func TestAuthController_VerifyOTP_Expired(t *testing.T) {
	s := setupControllerTest(t)
	s.register(t, "Test User", "late@example.com")

	w, _ := s.do(t, http.MethodPost, "/api/reset-password-request", gin.H{"email": "late@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	code := s.mailer.lastCode(t)

	s.clock.Advance(3 * time.Minute)

	w, body := s.do(t, http.MethodPost, "/api/verify-otp", gin.H{"email": "late@example.com", "code": code}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Expired", body["error"])
}

func TestAuthController_ResetPassword(t *testing.T) {
	s := setupControllerTest(t)
	s.register(t, "Test User", "flow@example.com")

	w, _ := s.do(t, http.MethodPost, "/api/reset-password-request", gin.H{"email": "flow@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	w, body := s.do(t, http.MethodPost, "/api/verify-otp", gin.H{
		"email": "flow@example.com",
		"code":  s.mailer.lastCode(t),
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := dataOf(t, body)["token"].(string)

	t.Run("confirmation mismatch", func(t *testing.T) {
		w, body := s.do(t, http.MethodPost, "/api/reset-password", gin.H{
			"email":                     "flow@example.com",
			"token":                     token,
			"new_password":              "NewSecret#456",
			"new_password_confirmation": "Different#456",
		}, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "new_password_confirmation", firstFieldError(t, body)["field"])
	})

	t.Run("weak password", func(t *testing.T) {
		w, body := s.do(t, http.MethodPost, "/api/reset-password", gin.H{
			"email":        "flow@example.com",
			"token":        token,
			"new_password": "weak",
		}, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "new_password", firstFieldError(t, body)["field"])
	})

	t.Run("wrong token", func(t *testing.T) {
		w, body := s.do(t, http.MethodPost, "/api/reset-password", gin.H{
			"email":        "flow@example.com",
			"token":        "not-the-token",
			"new_password": "NewSecret#456",
		}, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Invalid Token", body["error"])
	})

	t.Run("success", func(t *testing.T) {
		w, _ := s.do(t, http.MethodPost, "/api/reset-password", gin.H{
			"email":                     "flow@example.com",
			"token":                     token,
			"new_password":              "NewSecret#456",
			"new_password_confirmation": "NewSecret#456",
		}, "")
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = s.do(t, http.MethodPost, "/api/login", gin.H{"email": "flow@example.com", "password": "NewSecret#456"}, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("token is single use", func(t *testing.T) {
		w, _ := s.do(t, http.MethodPost, "/api/reset-password", gin.H{
			"email":        "flow@example.com",
			"token":        token,
			"new_password": "Another#789",
		}, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAuthController_ResetPassword_ExpiredToken(t *testing.T) {
	s := setupControllerTest(t)
	s.register(t, "Test User", "slow@example.com")

	w, _ := s.do(t, http.MethodPost, "/api/reset-password-request", gin.H{"email": "slow@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	w, body := s.do(t, http.MethodPost, "/api/verify-otp", gin.H{
		"email": "slow@example.com",
		"code":  s.mailer.lastCode(t),
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := dataOf(t, body)["token"].(string)

	s.clock.Advance(61 * time.Minute)

	w, body = s.do(t, http.MethodPost, "/api/reset-password", gin.H{
		"email":        "slow@example.com",
		"token":        token,
		"new_password": "NewSecret#456",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Expired", body["error"])
}
