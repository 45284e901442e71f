package schedulersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/student"
)

const resetTimeout = 30 * time.Second

// Scheduler runs the recurring background jobs, currently only the weekly
// attendance reset.
type Scheduler struct {
	cron   *cron.Cron
	logger core.Logger
}

func NewScheduler(conf *core.Config, logger core.Logger, studentSvc student.Service) (*Scheduler, error) {
	c := cron.New()

	_, err := c.AddFunc(conf.WeeklyResetSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
		defer cancel()

		if err := studentSvc.ResetWeeklyAttendance(ctx); err != nil {
			// leave the data as is; the next scheduled run retries
			logger.Error(fmt.Sprintf("weekly attendance reset failed: %v", err), err)
			return
		}
		logger.Info("weekly attendance reset completed")
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scheduling weekly attendance reset (%q)", conf.WeeklyResetSchedule)
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start launches the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to complete.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
