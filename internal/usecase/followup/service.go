// Package followup defers a re-check of unmatched lost items and acts on due
// checks. Jobs are explicit payloads with a not-before timestamp; the handler
// re-verifies current item status before acting, since status may have
// changed since scheduling.
package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reclaimhq/reclaim/internal/domain"
	"github.com/reclaimhq/reclaim/internal/metrics"
	repofollowup "github.com/reclaimhq/reclaim/internal/repository/followup"
)

// Service schedules and executes deferred follow-up checks.
type Service struct {
	jobs     JobStore
	items    ItemReader
	users    UserReader
	notifier Notifier
	delay    time.Duration
	logger   *zap.Logger
}

// New creates a follow-up service. delay is how long after scheduling a check
// becomes due (default policy: 48 hours).
func New(
	jobs JobStore,
	items ItemReader,
	users UserReader,
	notifier Notifier,
	delay time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		jobs:     jobs,
		items:    items,
		users:    users,
		notifier: notifier,
		delay:    delay,
		logger:   logger,
	}
}

// Schedule enqueues a follow-up check for the item, due after the configured
// delay. At-least-once: the job store survives restarts.
func (s *Service) Schedule(ctx context.Context, itemID string) error {
	job := repofollowup.Job{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		NotBefore: time.Now().Add(s.delay),
	}
	if err := s.jobs.Add(ctx, job); err != nil {
		return fmt.Errorf("schedule follow-up for %s: %w", itemID, err)
	}

	metrics.FollowUpsScheduledTotal.Inc()
	s.logger.Info("follow-up scheduled",
		zap.String("job_id", job.ID),
		zap.String("item_id", itemID),
		zap.Time("not_before", job.NotBefore),
	)
	return nil
}

// RunDue claims and processes all currently due jobs. Jobs are processed
// independently; a per-job failure never aborts the batch. Returns the
// number of follow-up alerts sent.
func (s *Service) RunDue(ctx context.Context, now time.Time, limit int) (int, error) {
	jobs, err := s.jobs.ClaimDue(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("claim due follow-ups: %w", err)
	}

	sent := 0
	for _, job := range jobs {
		if s.process(ctx, job) {
			sent++
		}
	}
	return sent, nil
}

// process acts on one due job. Re-check-before-act: the item is re-fetched
// and the nudge goes out only if the report is still active.
func (s *Service) process(ctx context.Context, job repofollowup.Job) bool {
	jobLog := s.logger.With(
		zap.String("job_id", job.ID),
		zap.String("item_id", job.ItemID),
	)

	rec, err := s.items.Get(ctx, job.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			jobLog.Info("item deleted, cancelling follow-up")
			return false
		}
		jobLog.Error("item lookup failed, dropping follow-up", zap.Error(err))
		return false
	}

	if rec.Status != domain.StatusActive {
		jobLog.Info("item no longer active, cancelling follow-up",
			zap.String("status", string(rec.Status)))
		return false
	}

	owner, err := s.users.Get(ctx, rec.UserID)
	if err != nil {
		jobLog.Warn("owner unresolved, cannot send follow-up", zap.Error(err))
		return false
	}

	if err := s.notifier.SendFollowUpAlert(ctx, owner, rec); err != nil {
		jobLog.Error("follow-up delivery failed", zap.Error(err))
		return false
	}

	jobLog.Info("follow-up alert sent")
	return true
}
