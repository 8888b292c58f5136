package booking

import (
	"context"
	"fmt"
	"time"

	"eventsure/internal/logger"
)

// Reaper periodically releases pending holds whose timer has lapsed. Without
// it, a booking that never sees a verified payment would hold its seats
// forever.
type Reaper struct {
	service  *Service
	interval time.Duration
	logger   *logger.Logger
}

func NewReaper(service *Service, interval time.Duration, log *logger.Logger) *Reaper {
	return &Reaper{service: service, interval: interval, logger: log}
}

// Start blocks until ctx is cancelled. Run it in its own goroutine.
func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("REAPER", fmt.Sprintf("Hold reaper started (interval %s)", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("REAPER", "Hold reaper stopped")
			return
		case <-ticker.C:
			released, err := r.service.ReleaseExpired()
			if err != nil {
				r.logger.Error("REAPER", fmt.Sprintf("Sweep failed: %v", err))
				continue
			}
			if released > 0 {
				r.logger.Info("REAPER", fmt.Sprintf("Sweep released %d expired hold(s)", released))
			}
		}
	}
}
