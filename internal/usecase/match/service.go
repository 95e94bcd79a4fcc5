// Package match orchestrates pairwise comparison of one query record
// against its opposite-disposition candidate set and drives the two
// consumers of the scoring core: the ranked display list and the
// at-most-once notification dispatch.
package match

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reclaimhq/reclaim/internal/domain"
	"github.com/reclaimhq/reclaim/internal/domain/geo"
	dommatch "github.com/reclaimhq/reclaim/internal/domain/match"
	"github.com/reclaimhq/reclaim/internal/domain/vector"
	"github.com/reclaimhq/reclaim/internal/metrics"
)

// DisplayMatch is one row of the ranked frontend list.
type DisplayMatch struct {
	CandidateID string
	Confidence  float64
	Scores      dommatch.Scores
	Title       string
	Image       string
	UserName    string
	UserEmail   string
}

// Service is the match engine. Stateless apart from its collaborators;
// safe for concurrent runs, since scoring is a pure read-then-score
// operation with no shared mutable intermediate state.
type Service struct {
	repo      Repository
	users     UserReader
	imageEmb  domain.Embedder
	textEmb   domain.Embedder
	dispatch  Dispatcher
	scheduler FollowUpScheduler
	logger    *zap.Logger
}

// New creates a match engine.
func New(
	repo Repository,
	users UserReader,
	imageEmb, textEmb domain.Embedder,
	dispatch Dispatcher,
	scheduler FollowUpScheduler,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		imageEmb:  imageEmb,
		textEmb:   textEmb,
		dispatch:  dispatch,
		scheduler: scheduler,
		logger:    logger,
	}
}

// RankForDisplay scores the query item against every opposite-disposition
// candidate and returns pairs above the display threshold, ordered by
// descending confidence. Ties retain candidate-fetch order.
func (s *Service) RankForDisplay(ctx context.Context, itemID string) ([]DisplayMatch, error) {
	metrics.MatchRunsTotal.WithLabelValues("display").Inc()

	query, err := s.repo.Get(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get query item: %w", err)
	}

	candidates, err := s.repo.FindByDisposition(ctx, query.Disposition.Opposite())
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	var matches []DisplayMatch
	for _, cand := range candidates {
		scores, ok := s.scorePair(query, cand)
		if !ok {
			continue
		}
		if !scores.Displayable() {
			continue
		}

		name, email := s.resolveDisplayContact(ctx, cand.UserID)
		matches = append(matches, DisplayMatch{
			CandidateID: cand.ID,
			Confidence:  scores.Confidence(),
			Scores:      scores,
			Title:       cand.Title,
			Image:       cand.PrimaryImage(),
			UserName:    name,
			UserEmail:   email,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	return matches, nil
}

// ProcessNewItem runs the ingestion pipeline for one item: ensure
// embeddings exist, detect notifiable matches, dispatch alerts, and —
// for a lost item with no high-confidence match — schedule the deferred
// follow-up check.
func (s *Service) ProcessNewItem(ctx context.Context, itemID string) error {
	metrics.MatchRunsTotal.WithLabelValues("notify").Inc()
	runLog := s.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("item_id", itemID),
	)

	rec, err := s.repo.Get(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}

	rec, err = s.ensureEmbeddings(ctx, rec, runLog)
	if err != nil {
		if errors.Is(err, domain.ErrNoImage) {
			// Nothing to match against without an image; not an error.
			runLog.Warn("item has no image, skipping matching run")
			return nil
		}
		return err
	}

	candidates, err := s.repo.FindByDisposition(ctx, rec.Disposition.Opposite())
	if err != nil {
		return fmt.Errorf("fetch candidates: %w", err)
	}

	notifiable := s.findNotifiable(rec, candidates)
	attempted := s.dispatch.Dispatch(ctx, rec, notifiable)

	runLog.Info("matching run complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("notifiable", len(notifiable)),
		zap.Int("notified", len(attempted)),
	)

	if rec.Disposition == domain.Lost && len(attempted) == 0 {
		if err := s.scheduler.Schedule(ctx, rec.ID); err != nil {
			return fmt.Errorf("schedule follow-up: %w", err)
		}
		runLog.Info("scheduled follow-up check for unmatched lost item")
	}

	return nil
}

// findNotifiable returns pairs at or above the notify threshold, in
// discovery order. Shares the image-presence gate and scoring with the
// display path; note the inclusive boundary here vs. exclusive for display.
func (s *Service) findNotifiable(query domain.ItemRecord, candidates []domain.ItemRecord) []dommatch.Pair {
	var pairs []dommatch.Pair
	for _, cand := range candidates {
		scores, ok := s.scorePair(query, cand)
		if !ok {
			continue
		}
		if !scores.Notifiable() {
			continue
		}
		pairs = append(pairs, dommatch.Pair{
			Candidate: cand,
			Result:    dommatch.NewResult(cand.ID, scores),
		})
	}
	return pairs
}

// scorePair applies the image-presence gate and computes the per-modality
// scores for one pair. Returns ok=false when the pair is skipped: an image
// feature vector on both sides is a mandatory prerequisite, regardless of
// text or location availability.
func (s *Service) scorePair(query, cand domain.ItemRecord) (dommatch.Scores, bool) {
	if !query.ImageEmbedding.Present() || !cand.ImageEmbedding.Present() {
		metrics.MatchCandidatesTotal.WithLabelValues("skipped_no_image").Inc()
		return dommatch.Scores{}, false
	}

	imageScore, outcome := vector.Similarity(query.ImageEmbedding, cand.ImageEmbedding)
	s.noteOutcome(outcome, "image", query.ID, cand.ID,
		len(query.ImageEmbedding), len(cand.ImageEmbedding))

	textScore, outcome := vector.Similarity(query.TextEmbedding, cand.TextEmbedding)
	s.noteOutcome(outcome, "text", query.ID, cand.ID,
		len(query.TextEmbedding), len(cand.TextEmbedding))

	metrics.MatchCandidatesTotal.WithLabelValues("scored").Inc()

	return dommatch.Scores{
		Image:    imageScore,
		Text:     textScore,
		Location: geo.Proximity(query.Coords, cand.Coords),
	}, true
}

// noteOutcome logs the dimension-mismatch data-quality signal. Mismatched
// historical vectors are legitimate after extractor retraining; the
// consistency auditor repairs them.
func (s *Service) noteOutcome(outcome vector.Outcome, modality, queryID, candID string, dimA, dimB int) {
	if outcome != vector.DimMismatch {
		return
	}
	metrics.MatchCandidatesTotal.WithLabelValues("dim_mismatch").Inc()
	s.logger.Warn("incompatible embedding dimensions",
		zap.String("modality", modality),
		zap.String("query_id", queryID),
		zap.String("candidate_id", candID),
		zap.Int("query_dim", dimA),
		zap.Int("candidate_dim", dimB),
	)
}

// ensureEmbeddings extracts any missing feature vectors and persists both
// fields in one write. An extraction failure aborts the whole run: embeddings
// are never saved in a partially fresh state.
func (s *Service) ensureEmbeddings(
	ctx context.Context, rec domain.ItemRecord, runLog *zap.Logger,
) (domain.ItemRecord, error) {
	needImage := !rec.ImageEmbedding.Present()
	needText := !rec.TextEmbedding.Present() && rec.Description != ""
	if !needImage && !needText {
		return rec, nil
	}

	image := rec.ImageEmbedding
	text := rec.TextEmbedding

	if needImage {
		if len(rec.Images) == 0 {
			return rec, domain.ErrNoImage
		}
		res, err := s.imageEmb.Embed(ctx, rec.Images[0])
		if err != nil {
			runLog.Error("image embedding failed, aborting run", zap.Error(err))
			return rec, fmt.Errorf("%w: image: %w", domain.ErrExtractionFailed, err)
		}
		image = res.Embedding
	}

	if needText {
		res, err := s.textEmb.Embed(ctx, rec.Description)
		if err != nil {
			runLog.Error("text embedding failed, aborting run", zap.Error(err))
			return rec, fmt.Errorf("%w: text: %w", domain.ErrExtractionFailed, err)
		}
		text = res.Embedding
	}

	if err := s.repo.UpdateEmbeddings(ctx, rec.ID, image, text); err != nil {
		return rec, fmt.Errorf("persist embeddings: %w", err)
	}

	runLog.Info("embeddings saved",
		zap.Int("image_dim", len(image)),
		zap.Int("text_dim", len(text)),
	)

	rec.ImageEmbedding = image
	rec.TextEmbedding = text
	return rec, nil
}

// resolveDisplayContact looks up the owner for the display list, falling
// back to the anonymous placeholder when the owner cannot be resolved.
// Unlike notification, display tolerates an unresolved participant.
func (s *Service) resolveDisplayContact(ctx context.Context, userID string) (name, email string) {
	owner, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.AnonymousUserName, ""
	}
	if owner.Name == "" {
		return domain.AnonymousUserName, owner.Email
	}
	return owner.Name, owner.Email
}
