package scheduler

import (
	"github.com/ikkim/userhub-backend/internal/app/service"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ResetPruner is the part of service.PasswordResetService the scheduler needs.
type ResetPruner interface {
	PruneExpired() (*service.PruneResult, error)
}

// TokenPruner is the part of service.AuthService the scheduler needs.
type TokenPruner interface {
	PruneExpiredTokens() (int64, error)
}

// CleanupScheduler periodically removes expired reset codes, reset tokens and
// access tokens. Expiry is always checked on use, so a missed run only
// leaves stale rows behind.
type CleanupScheduler struct {
	cron   *cron.Cron
	spec   string
	resets ResetPruner
	tokens TokenPruner
}

func NewCleanupScheduler(spec string, resets ResetPruner, tokens TokenPruner) *CleanupScheduler {
	return &CleanupScheduler{
		cron:   cron.New(),
		spec:   spec,
		resets: resets,
		tokens: tokens,
	}
}

// Start registers the cleanup job and starts the cron runner.
func (s *CleanupScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for cleanup", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Cleanup scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce runs one cleanup pass. A failing step does not stop the others.
func (s *CleanupScheduler) RunOnce() {
	logger.Debug("Starting scheduled cleanup")

	if result, err := s.resets.PruneExpired(); err != nil {
		logger.Error("Failed to prune password reset data", err)
	} else {
		logger.Info("Pruned password reset data", map[string]interface{}{
			"reset_tokens": result.ResetTokens,
			"otp_codes":    result.OTPCodes,
		})
	}

	if removed, err := s.tokens.PruneExpiredTokens(); err != nil {
		logger.Error("Failed to prune access tokens", err)
	} else {
		logger.Info("Pruned access tokens", map[string]interface{}{
			"access_tokens": removed,
		})
	}
}

// Stop waits for a running job to finish.
func (s *CleanupScheduler) Stop() {
	logger.Info("Stopping cleanup scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Cleanup scheduler stopped")
}
