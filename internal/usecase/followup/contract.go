package followup

import (
	"context"
	"time"

	"github.com/reclaimhq/reclaim/internal/domain"
	repofollowup "github.com/reclaimhq/reclaim/internal/repository/followup"
)

// JobStore persists deferred jobs across restarts.
type JobStore interface {
	Add(ctx context.Context, job repofollowup.Job) error
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]repofollowup.Job, error)
}

// ItemReader re-fetches current item state before acting on a due job.
type ItemReader interface {
	Get(ctx context.Context, id string) (domain.ItemRecord, error)
}

// UserReader resolves the item owner for the follow-up mail.
type UserReader interface {
	Get(ctx context.Context, id string) (domain.UserProfile, error)
}

// Notifier delivers the follow-up nudge.
type Notifier interface {
	SendFollowUpAlert(ctx context.Context, to domain.UserProfile, about domain.ItemRecord) error
}
