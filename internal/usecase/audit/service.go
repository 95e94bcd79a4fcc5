// Package audit repairs text feature vectors whose dimensionality no longer
// matches the current extractor's output. Text extractors change output size
// when retrained; records embedded under a stale vocabulary stop being
// comparable until repaired.
package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reclaimhq/reclaim/internal/domain"
	"github.com/reclaimhq/reclaim/internal/metrics"
)

// Report summarizes one audit pass.
type Report struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

// Service runs the consistency audit. Idempotent: once every vector matches
// the current dimensionality, subsequent runs modify nothing.
type Service struct {
	repo    Repository
	textEmb domain.Embedder
	logger  *zap.Logger
}

// New creates an audit service.
func New(repo Repository, textEmb domain.Embedder, logger *zap.Logger) *Service {
	return &Service{repo: repo, textEmb: textEmb, logger: logger}
}

// Run scans repairable records and regenerates any stored text vector whose
// length differs from the extractor's current dimensionality. Records are
// processed independently: a per-record failure is logged and skipped, never
// fatal to the scan. Image vectors are never touched.
func (s *Service) Run(ctx context.Context) (Report, error) {
	expected := s.textEmb.Dimensions()
	s.logger.Info("starting consistency audit", zap.Int("expected_text_dim", expected))

	records, err := s.repo.ScanRepairable(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("scan repairable items: %w", err)
	}

	var report Report
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			// Interrupted scans are safe to resume: re-scanning is idempotent.
			return report, fmt.Errorf("audit interrupted: %w", err)
		}

		report.Scanned++

		// Only existing wrong-size vectors are repaired; records never
		// embedded are the ingestion pipeline's job.
		if !rec.TextEmbedding.Present() || len(rec.TextEmbedding) == expected {
			metrics.AuditItemsTotal.WithLabelValues("ok").Inc()
			continue
		}

		if s.repair(ctx, rec, expected) {
			report.Repaired++
		} else {
			report.Failed++
		}
	}

	s.logger.Info("consistency audit complete",
		zap.Int("scanned", report.Scanned),
		zap.Int("repaired", report.Repaired),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *Service) repair(ctx context.Context, rec domain.ItemRecord, expected int) bool {
	res, err := s.textEmb.Embed(ctx, rec.Description)
	if err != nil {
		s.logger.Warn("audit regeneration failed, record left unchanged",
			zap.String("item_id", rec.ID), zap.Error(err))
		metrics.AuditItemsTotal.WithLabelValues("failed").Inc()
		return false
	}

	if len(res.Embedding) != expected {
		s.logger.Warn("regenerated vector has unexpected size, record left unchanged",
			zap.String("item_id", rec.ID),
			zap.Int("got", len(res.Embedding)),
			zap.Int("want", expected),
		)
		metrics.AuditItemsTotal.WithLabelValues("failed").Inc()
		return false
	}

	if err := s.repo.UpdateTextEmbedding(ctx, rec.ID, res.Embedding); err != nil {
		s.logger.Warn("audit update failed, record left unchanged",
			zap.String("item_id", rec.ID), zap.Error(err))
		metrics.AuditItemsTotal.WithLabelValues("failed").Inc()
		return false
	}

	s.logger.Info("repaired stale text embedding",
		zap.String("item_id", rec.ID),
		zap.Int("old_dim", len(rec.TextEmbedding)),
		zap.Int("new_dim", expected),
	)
	metrics.AuditItemsTotal.WithLabelValues("repaired").Inc()
	return true
}
