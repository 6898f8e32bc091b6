package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultInterval  = time.Hour
	defaultRetention = 30 * 24 * time.Hour
)

// SharePurger deletes shares that expired before cutoff.
type SharePurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// CleanupResult summarizes one cleanup run.
type CleanupResult struct {
	Cutoff        time.Time
	DeletedShares int
}

// CleanupService periodically removes shares that expired more than the
// retention window ago. Expired shares are already hidden from recipients;
// this only reclaims storage.
type CleanupService struct {
	shares    SharePurger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

type CleanupOption func(*CleanupService)

// WithCleanupInterval overrides the cleanup interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithRetention keeps expired shares for d before deleting them. Zero deletes
// as soon as a share expires.
func WithRetention(d time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if d >= 0 {
			s.retention = d
		}
	}
}

func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(s *CleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) CleanupOption {
	return func(s *CleanupService) {
		if now != nil {
			s.now = now
		}
	}
}

func New(shares SharePurger, opts ...CleanupOption) (*CleanupService, error) {
	if shares == nil {
		return nil, fmt.Errorf("share purger is required")
	}
	svc := &CleanupService{
		shares:    shares,
		interval:  defaultInterval,
		retention: defaultRetention,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs cleanup periodically until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "share cleanup started",
		"interval", s.interval.String(),
		"retention", s.retention.String(),
	)
	for {
		select {
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "share cleanup failed", "error", err)
				continue
			}
			if res.DeletedShares > 0 {
				s.logger.InfoContext(ctx, "expired shares purged",
					"deleted", res.DeletedShares,
					"cutoff", res.Cutoff,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *CleanupService) RunOnce(ctx context.Context) (CleanupResult, error) {
	res := CleanupResult{Cutoff: s.now().Add(-s.retention)}
	deleted, err := s.shares.PurgeExpired(ctx, res.Cutoff)
	if err != nil {
		return res, fmt.Errorf("delete expired shares: %w", err)
	}
	res.DeletedShares = deleted
	return res, nil
}
