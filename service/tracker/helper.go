package tracker

import (
	"context"
	"log"
	"time"
)

// StartSweeper runs SweepOverdue on a fixed interval until the context is
// cancelled or the returned stop function is called. The sweep cadence is
// expected to be coarse (hours, not seconds); the SLA detector does not need
// to run continuously.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 2 * time.Hour
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if _, err := s.SweepOverdue(ctx, 0); err != nil {
					log.Printf("overdue sweep failed: %v", err)
				}
			}
		}
	}()
	return func() { close(done) }
}
