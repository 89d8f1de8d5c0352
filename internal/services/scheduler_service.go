package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SchedulerService runs the background monitor on its own schedule,
// independent of foreground request handling
type SchedulerService struct {
	cron    *cron.Cron
	monitor *MonitorService
	logger  *logrus.Logger
}

// NewSchedulerService creates a new SchedulerService
func NewSchedulerService(monitor *MonitorService, logger *logrus.Logger) *SchedulerService {
	return &SchedulerService{
		cron:    cron.New(),
		monitor: monitor,
		logger:  logger,
	}
}

// Start schedules the monitor pass and starts the scheduler
func (s *SchedulerService) Start(interval time.Duration) error {
	spec := fmt.Sprintf("@every %s", interval)

	if _, err := s.cron.AddFunc(spec, s.runMonitorJob); err != nil {
		return fmt.Errorf("failed to schedule monitor job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("interval", interval).Info("Background monitor scheduled")
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Background monitor stopped")
}

func (s *SchedulerService) runMonitorJob() {
	start := time.Now()
	s.monitor.RunChecks()
	s.logger.WithField("duration", time.Since(start)).Debug("Monitor pass finished")
}
