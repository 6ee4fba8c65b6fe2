package notification

import (
	"log/slog"
	"sync"
	"time"
)

// Scheduler drives periodic reminder sweeps: a slow daily sweep over the
// whole edit window plus an hourly yesterday-only pass that catches entries
// deleted or rejected during the day. Dedup in the service makes repeated
// runs harmless.
type Scheduler struct {
	service        *Service
	dailyInterval  time.Duration
	hourlyInterval time.Duration
	logger         *slog.Logger

	daily  *time.Ticker
	hourly *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler(service *Service, dailyInterval, hourlyInterval time.Duration, logger *slog.Logger) *Scheduler {
	if dailyInterval <= 0 {
		dailyInterval = 24 * time.Hour
	}
	if hourlyInterval <= 0 {
		hourlyInterval = time.Hour
	}
	return &Scheduler{
		service:        service,
		dailyInterval:  dailyInterval,
		hourlyInterval: hourlyInterval,
		logger:         logger,
		stop:           make(chan struct{}),
	}
}

// Start launches the sweep loop. The first sweep runs immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.daily != nil {
		return
	}

	s.daily = time.NewTicker(s.dailyInterval)
	s.hourly = time.NewTicker(s.hourlyInterval)
	s.wg.Add(1)

	go s.run()

	s.logger.Info("notification scheduler started",
		"daily_interval", s.dailyInterval.String(),
		"hourly_interval", s.hourlyInterval.String())
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.daily == nil {
		return
	}

	s.daily.Stop()
	s.hourly.Stop()
	close(s.stop)
	s.wg.Wait()
	s.daily = nil
	s.hourly = nil

	s.logger.Info("notification scheduler stopped")
}

// RunNow triggers an immediate sweep, for the admin endpoint.
func (s *Scheduler) RunNow() (*SweepResult, error) {
	return s.service.RunSweep()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.sweep()

	for {
		select {
		case <-s.daily.C:
			s.sweep()
		case <-s.hourly.C:
			s.catchUp()
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) sweep() {
	if _, err := s.service.RunSweep(); err != nil {
		s.logger.Error("scheduled sweep failed", "error", err)
	}
}

func (s *Scheduler) catchUp() {
	if _, err := s.service.RunCatchUpSweep(); err != nil {
		s.logger.Error("scheduled catch-up sweep failed", "error", err)
	}
}
