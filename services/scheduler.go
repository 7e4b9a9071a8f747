// services/scheduler.go
package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StartCleanupScheduler runs the expired-notification sweep every interval until Shutdown.
func (s *NotificationService) StartCleanupScheduler(interval time.Duration) (gocron.Scheduler, error) {
	if interval <= 0 {
		interval = time.Hour
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runCleanup),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}

func (s *NotificationService) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.CleanupExpired(ctx)
	if err != nil {
		s.log.Error("[Scheduler] notification cleanup failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("[Scheduler] expired notifications removed", zap.Int64("count", n))
	}
}
