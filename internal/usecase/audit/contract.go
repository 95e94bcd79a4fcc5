package audit

import (
	"context"

	"github.com/reclaimhq/reclaim/internal/domain"
)

// Repository defines the storage contract for the consistency audit.
type Repository interface {
	// ScanRepairable returns items in non-terminal status that carry a
	// text description.
	ScanRepairable(ctx context.Context) ([]domain.ItemRecord, error)
	UpdateTextEmbedding(ctx context.Context, id string, text domain.FeatureVector) error
}
