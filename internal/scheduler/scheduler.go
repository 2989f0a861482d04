package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard/internal/logger"
)

var errStopped = errors.New("scheduler stopped")

// Scheduler runs named periodic jobs on a gocron scheduler.
// Jobs never run at registration time; the first run happens one interval later.
type Scheduler struct {
	scheduler *gocron.Scheduler

	mu      sync.Mutex
	stopped bool
}

// New creates a new Scheduler.
func New() *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Every registers fn to run every interval. Overlapping runs of the same job are skipped.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: invalid interval %s for job %q", interval, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errStopped
	}

	_, err := s.scheduler.Every(interval).SingletonMode().WaitForSchedule().Do(func() {
		logger.WithFields(logrus.Fields{"job": name}).Debug("scheduler: running job")
		fn()
	})
	if err != nil {
		return fmt.Errorf("scheduler: register %q: %w", name, err)
	}
	return nil
}

// Start starts the underlying scheduler without blocking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errStopped
	}
	if s.scheduler.Len() == 0 {
		logger.Debug("scheduler: no jobs registered; nothing to schedule")
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
	s.scheduler.Clear()
}
