package sessions

import (
	"context"
	"time"

	"codeberg.org/codepair/server/internal/logger"
)

// handles automatic expiry of stale sessions
type CleanupService struct {
	store         *Store
	checkInterval time.Duration
}

// creates a new cleanup service
func NewCleanupService(store *Store, checkInterval time.Duration) *CleanupService {
	return &CleanupService{
		store:         store,
		checkInterval: checkInterval,
	}
}

// begins the cleanup service background loop. Returns when ctx is cancelled,
// so the caller controls shutdown and no timer outlives the process.
func (s *CleanupService) Start(ctx context.Context) {
	logger.Info("starting session cleanup service",
		"check_interval", s.checkInterval,
	)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("session cleanup service stopped")
			return
		case <-ticker.C:
			if reclaimed := s.store.Cleanup(); reclaimed > 0 {
				logger.Info("cleaned up stale sessions", "count", reclaimed)
			}
		}
	}
}
