// Package followup persists deferred follow-up jobs in a sorted set scored
// by due time, so pending jobs survive restarts.
package followup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// store is the consumer interface for job persistence (ISP).
type store interface {
	ZAdd(ctx context.Context, key, member string, score float64) error
	ZRangeByScore(ctx context.Context, key string, max float64, limit int) ([]string, error)
	ZRem(ctx context.Context, key string, members ...string) error
}

// Job is a deferred follow-up check for one item.
type Job struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	NotBefore time.Time `json:"not_before"`
}

// Store implements the follow-up usecase's JobStore contract.
type Store struct {
	store  store
	prefix string
}

// New creates a follow-up job store.
func New(s store, keyPrefix string) *Store {
	return &Store{store: s, prefix: keyPrefix}
}

func (s *Store) key() string {
	return s.prefix + "followups"
}

// Add enqueues a job scored by its not-before timestamp.
func (s *Store) Add(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.store.ZAdd(ctx, s.key(), string(data), float64(job.NotBefore.Unix())); err != nil {
		return fmt.Errorf("enqueue follow-up %s: %w", job.ItemID, err)
	}
	return nil
}

// ClaimDue removes and returns up to limit jobs whose not-before time has
// passed. A job removed but not acted on is lost, so callers must act after
// claiming; a job acted on twice is harmless since the handler re-checks
// item status first.
func (s *Store) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	members, err := s.store.ZRangeByScore(ctx, s.key(), float64(now.Unix()), limit)
	if err != nil {
		return nil, fmt.Errorf("list due follow-ups: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	jobs := make([]Job, 0, len(members))
	for _, m := range members {
		var job Job
		if err := json.Unmarshal([]byte(m), &job); err != nil {
			// Malformed member: drop it so it cannot wedge the queue.
			_ = s.store.ZRem(ctx, s.key(), m)
			continue
		}
		jobs = append(jobs, job)
	}

	if err := s.store.ZRem(ctx, s.key(), members...); err != nil {
		return nil, fmt.Errorf("claim follow-ups: %w", err)
	}
	return jobs, nil
}
