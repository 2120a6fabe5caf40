// Package sweeper reconciles the refresh token store against the signing
// primitive on a fixed interval. Ordinary expiry is enforced at consume time;
// the sweep only bounds growth of records nobody ever presents again.
package sweeper

import (
	"context"
	"time"

	"github.com/mkarpenko/livetrack/internal/logger"
	"github.com/mkarpenko/livetrack/internal/repository"
)

const defaultSweepInterval = 1 * time.Hour

type refreshVerifier interface {
	VerifyRefresh(refresh string) (int64, error)
}

type Sweeper struct {
	interval time.Duration

	tokens      refreshVerifier
	refreshRepo repository.RefreshTokenRepo
	logger      logger.Logger
}

func New(interval time.Duration, tokens refreshVerifier, refreshRepo repository.RefreshTokenRepo, logger logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &Sweeper{
		interval:    interval,
		tokens:      tokens,
		refreshRepo: refreshRepo,
		logger:      logger,
	}
}

// Run sweeps on every tick until the context is cancelled.
// The returned channel is closed when the sweeper has fully stopped.
// A failed tick is logged and retried on the next one, never fatal
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	s.logger.Debug("Starting refresh token sweeper", "interval", s.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Sweeper stopped by context")
				return

			case <-ticker.C:
				if err := s.RunOnce(ctx); err != nil {
					s.logger.Error("Sweep tick failed", "error", err)
				}
			}
		}
	}()

	return idleStopped
}

// RunOnce executes a single sweep synchronously.
// Records failing signature verification or past their expiry are deleted,
// everything that still verifies stays untouched
func (s *Sweeper) RunOnce(ctx context.Context) error {
	tokens, err := s.refreshRepo.ListTokens(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	swept := 0

	for _, token := range tokens {
		valid := !token.ExpiresAt.Before(now)
		if valid {
			if _, err := s.tokens.VerifyRefresh(token.Token); err != nil {
				valid = false
			}
		}
		if valid {
			continue
		}

		if err := s.refreshRepo.DeleteToken(ctx, token.Token); err != nil {
			// Keep going: the record stays for the next tick
			s.logger.Error("Failed to delete stale refresh token", "error", err, "user_id", token.UserID)
			continue
		}
		swept++
	}

	s.logger.Debug("Sweep finished", "checked", len(tokens), "swept", swept)
	return nil
}
