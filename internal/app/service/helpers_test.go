package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/userhub-backend/internal/app/repository"
	"github.com/ikkim/userhub-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret"

// fakeMailer captures sent codes instead of delivering them.
type fakeMailer struct {
	mu   sync.Mutex
	sent []ResetCodeMail
	err  error
}

func (m *fakeMailer) SendResetCode(mail ResetCodeMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no reset code was sent")
	return m.sent[len(m.sent)-1].Code
}

var errSMTPDown = errors.New("smtp: connection refused")

// testClock is a settable clock for WithClock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	db        *gorm.DB
	userRepo  repository.UserRepository
	resetRepo repository.PasswordResetRepository
	tokenRepo repository.AccessTokenRepository
	roles     RoleService
	auth      AuthService
	reset     PasswordResetService
	users     UserService
	mailer    *fakeMailer
	clock     *testClock
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)

	env := &testEnv{
		db:        testDB,
		userRepo:  repository.NewUserRepository(testDB),
		resetRepo: repository.NewPasswordResetRepository(testDB),
		tokenRepo: repository.NewAccessTokenRepository(testDB),
		mailer:    &fakeMailer{},
		clock:     newTestClock(),
	}
	env.roles = NewRoleService(repository.NewRoleRepository(testDB))
	require.NoError(t, env.roles.EnsureDefaults())

	env.auth = NewAuthService(testDB, env.userRepo, env.tokenRepo, env.roles, testJWTSecret, time.Hour)
	env.reset = NewPasswordResetService(testDB, env.resetRepo, env.userRepo, env.mailer, WithClock(env.clock.Now))
	env.users = NewUserService(testDB, env.userRepo, env.tokenRepo, env.roles)
	return env
}
