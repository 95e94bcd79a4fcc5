package notify

import (
	"context"

	"github.com/reclaimhq/reclaim/internal/domain"
	"github.com/reclaimhq/reclaim/internal/domain/match"
)

// UserReader resolves report owners to their contact identity.
type UserReader interface {
	Get(ctx context.Context, id string) (domain.UserProfile, error)
}

// Notifier delivers one match alert to one recipient.
type Notifier interface {
	SendMatchAlert(
		ctx context.Context,
		to domain.UserProfile,
		about domain.ItemRecord,
		matched domain.ItemRecord,
		matchedOwner domain.UserProfile,
		res match.Result,
	) error
}
