package match

import (
	"context"

	"github.com/reclaimhq/reclaim/internal/domain"
	dommatch "github.com/reclaimhq/reclaim/internal/domain/match"
)

// Repository defines the storage contract for matching runs.
type Repository interface {
	Get(ctx context.Context, id string) (domain.ItemRecord, error)
	FindByDisposition(ctx context.Context, d domain.Disposition) ([]domain.ItemRecord, error)
	// UpdateEmbeddings must write both embedding fields atomically:
	// a record never holds one fresh and one stale vector.
	UpdateEmbeddings(ctx context.Context, id string, image, text domain.FeatureVector) error
}

// UserReader resolves report owners for display contact details.
type UserReader interface {
	Get(ctx context.Context, id string) (domain.UserProfile, error)
}

// Dispatcher hands qualifying pairs to the notification pipeline and
// reports which pairs were actually attempted.
type Dispatcher interface {
	Dispatch(ctx context.Context, query domain.ItemRecord, pairs []dommatch.Pair) []dommatch.Pair
}

// FollowUpScheduler defers a re-check of an item to a later time.
type FollowUpScheduler interface {
	Schedule(ctx context.Context, itemID string) error
}
