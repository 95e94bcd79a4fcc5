package followup

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler polls the job store for due follow-ups on a fixed interval.
type Scheduler struct {
	service  *Service
	interval time.Duration
	batch    int
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewScheduler creates a follow-up scheduler.
func NewScheduler(service *Service, interval time.Duration, batchSize int, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Scheduler{
		service:  service,
		interval: interval,
		batch:    batchSize,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start begins the polling loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("follow-up scheduler started", zap.Duration("interval", s.interval))
}

// Stop gracefully stops the polling loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("follow-up scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			sent, err := s.service.RunDue(ctx, time.Now(), s.batch)
			if err != nil {
				s.logger.Error("follow-up cycle failed", zap.Error(err))
				continue
			}
			if sent > 0 {
				s.logger.Info("follow-up cycle complete", zap.Int("sent", sent))
			}
		}
	}
}
