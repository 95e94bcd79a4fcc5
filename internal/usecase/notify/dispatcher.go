// Package notify dispatches match alerts to both parties of a qualifying pair.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/reclaimhq/reclaim/internal/domain"
	"github.com/reclaimhq/reclaim/internal/domain/match"
	"github.com/reclaimhq/reclaim/internal/metrics"
)

// Dispatcher sends exactly two alerts per qualifying pair: one to each
// owner, describing the other side as the match. Delivery failures are
// isolated per send; one failed send never blocks the paired send or the
// remaining candidates.
type Dispatcher struct {
	users    UserReader
	notifier Notifier
	logger   *zap.Logger
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(users UserReader, notifier Notifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{users: users, notifier: notifier, logger: logger}
}

// Dispatch notifies both owners of each pair and returns the pairs for which
// notification was attempted. A pair whose candidate owner cannot be resolved
// is excluded with a warning: notification requires both contact identities.
func (d *Dispatcher) Dispatch(ctx context.Context, query domain.ItemRecord, pairs []match.Pair) []match.Pair {
	if len(pairs) == 0 {
		return nil
	}

	queryOwner, err := d.users.Get(ctx, query.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			d.logger.Warn("skipping notifications: query owner unresolved",
				zap.String("item_id", query.ID),
				zap.String("user_id", query.UserID),
			)
			metrics.NotificationsTotal.WithLabelValues("unresolved_owner").Inc()
			return nil
		}
		d.logger.Error("owner lookup failed, skipping notifications",
			zap.String("item_id", query.ID), zap.Error(err))
		return nil
	}

	attempted := make([]match.Pair, 0, len(pairs))
	for _, pair := range pairs {
		candOwner, err := d.users.Get(ctx, pair.Candidate.UserID)
		if err != nil {
			d.logger.Warn("skipping notification: candidate owner unresolved",
				zap.String("candidate_id", pair.Candidate.ID),
				zap.String("user_id", pair.Candidate.UserID),
				zap.Error(err),
			)
			metrics.NotificationsTotal.WithLabelValues("unresolved_owner").Inc()
			continue
		}

		// Both sends complete before moving to the next pair.
		d.sendOne(ctx, queryOwner, query, pair.Candidate, candOwner, pair.Result)
		d.sendOne(ctx, candOwner, pair.Candidate, query, queryOwner, pair.Result)

		attempted = append(attempted, pair)
	}

	return attempted
}

func (d *Dispatcher) sendOne(
	ctx context.Context,
	to domain.UserProfile,
	about, matched domain.ItemRecord,
	matchedOwner domain.UserProfile,
	res match.Result,
) {
	if err := d.notifier.SendMatchAlert(ctx, to, about, matched, matchedOwner, res); err != nil {
		d.logger.Error("match alert delivery failed",
			zap.String("to_user_id", to.ID),
			zap.String("about_item_id", about.ID),
			zap.String("matched_item_id", matched.ID),
			zap.Error(err),
		)
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
}
