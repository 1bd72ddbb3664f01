package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/app/repository"
	"github.com/ikkim/userhub-backend/internal/app/service"
	"github.com/ikkim/userhub-backend/internal/db"
	"github.com/ikkim/userhub-backend/internal/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret = "test-jwt-secret-for-controllers"
	testPassword  = "Secret#123"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []service.ResetCodeMail
	err  error
}

func (m *captureMailer) SendResetCode(mail service.ResetCodeMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no reset code was sent")
	return m.sent[len(m.sent)-1].Code
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	auth   service.AuthService
	users  service.UserService
	mailer *captureMailer
	clock  *fixedClock
}

// setupControllerTest wires every controller against an in-memory database
// with the same routes the API exposes.
func setupControllerTest(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	tokenRepo := repository.NewAccessTokenRepository(testDB)
	roleService := service.NewRoleService(repository.NewRoleRepository(testDB))
	require.NoError(t, roleService.EnsureDefaults())

	mailer := &captureMailer{}
	clock := &fixedClock{now: time.Now()}

	authService := service.NewAuthService(testDB, userRepo, tokenRepo, roleService, testJWTSecret, time.Hour)
	resetService := service.NewPasswordResetService(testDB, repository.NewPasswordResetRepository(testDB), userRepo, mailer, service.WithClock(clock.Now))
	userService := service.NewUserService(testDB, userRepo, tokenRepo, roleService)
	locationService := service.NewLocationService(repository.NewLocationRepository(testDB))

	authCtrl := NewAuthController(authService, resetService)
	userCtrl := NewUserController(userService)
	roleCtrl := NewRoleController(roleService)
	locationCtrl := NewLocationController(locationService)
	authMiddleware := middleware.NewAuthMiddleware(authService, roleService)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/register", authCtrl.Register)
	api.POST("/login", authCtrl.Login)
	api.POST("/reset-password-request", authCtrl.RequestPasswordReset)
	api.POST("/verify-otp", authCtrl.VerifyOTP)
	api.POST("/reset-password", authCtrl.ResetPassword)
	api.GET("/locations/provinces", locationCtrl.Provinces)
	api.GET("/locations/regencies", locationCtrl.Regencies)
	api.GET("/locations/districts", locationCtrl.Districts)
	api.GET("/locations/villages", locationCtrl.Villages)

	authed := api.Group("", authMiddleware.Authenticate())
	authed.POST("/logout", authCtrl.Logout)
	authed.GET("/user", authCtrl.User)
	authed.GET("/roles", roleCtrl.List)

	admin := authed.Group("/users", authMiddleware.RequireRole(model.RoleAdmin))
	admin.GET("", userCtrl.List)
	admin.POST("", userCtrl.Create)
	admin.GET("/:id", userCtrl.Show)
	admin.PUT("/:id", userCtrl.Update)
	admin.DELETE("/:id", userCtrl.Delete)

	return &testServer{
		router: router,
		db:     testDB,
		auth:   authService,
		users:  userService,
		mailer: mailer,
		clock:  clock,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	return w, envelope
}

// register creates a user through the API and returns its token.
func (s *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	w, body := s.do(t, http.MethodPost, "/api/register", gin.H{
		"name":     name,
		"email":    email,
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, body)
	return dataOf(t, body)["token"].(string)
}

// adminToken creates an admin through the user service and logs in.
func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.users.Create(service.CreateUserInput{
		Name:     "Super Admin",
		Email:    "admin@example.com",
		Password: testPassword,
		Roles:    []string{model.RoleAdmin},
	})
	require.NoError(t, err)

	result, err := s.auth.Login("admin@example.com", testPassword)
	require.NoError(t, err)
	return result.Token
}

func dataOf(t *testing.T, envelope map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", envelope["data"])
	return data
}

func firstFieldError(t *testing.T, envelope map[string]interface{}) map[string]interface{} {
	t.Helper()
	errs, ok := envelope["errors"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, errs)
	return errs[0].(map[string]interface{})
}

var errMailDown = errors.New("smtp: connection refused")
