package app

import (
	"context"
	"jwt-auth-api/logger"
	"time"
)

// ExpiredSweeper is the part of the ledger the sweeper needs.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically purges expired refresh token records.
type Sweeper struct {
	ledger   ExpiredSweeper
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(ledger ExpiredSweeper, interval time.Duration) *Sweeper {
	return &Sweeper{ledger: ledger, interval: interval, now: time.Now}
}

// Start runs the sweep loop until ctx is cancelled. The returned channel is
// closed once the loop has exited. A non-positive interval disables sweeping.
func (s *Sweeper) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if s.interval <= 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
	return done
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.ledger.SweepExpired(ctx, s.now())
	if err != nil {
		logger.Log.WithError(err).Warn("Expired refresh token sweep failed")
		return
	}
	if n > 0 {
		logger.Log.WithField("deleted", n).Info("Swept expired refresh tokens")
	}
}
