package followup

import (
	"context"
	"sort"
	"testing"
	"time"
)

// --- Mocks ---

type memZSet struct {
	scores map[string]float64
}

func newMemZSet() *memZSet {
	return &memZSet{scores: make(map[string]float64)}
}

func (m *memZSet) ZAdd(_ context.Context, _ string, member string, score float64) error {
	m.scores[member] = score
	return nil
}

func (m *memZSet) ZRangeByScore(_ context.Context, _ string, max float64, limit int) ([]string, error) {
	var out []string
	for member, score := range m.scores {
		if score <= max {
			out = append(out, member)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.scores[out[i]] < m.scores[out[j]] })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memZSet) ZRem(_ context.Context, _ string, members ...string) error {
	for _, member := range members {
		delete(m.scores, member)
	}
	return nil
}

func TestClaimDueReturnsOnlyDueJobs(t *testing.T) {
	zset := newMemZSet()
	store := New(zset, "reclaim:")
	ctx := context.Background()
	now := time.Now()

	due := Job{ID: "j1", ItemID: "item-1", NotBefore: now.Add(-time.Minute)}
	future := Job{ID: "j2", ItemID: "item-2", NotBefore: now.Add(time.Hour)}
	if err := store.Add(ctx, due); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add(ctx, future); err != nil {
		t.Fatalf("Add: %v", err)
	}

	jobs, err := store.ClaimDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ItemID != "item-1" {
		t.Fatalf("claimed jobs = %+v, want only item-1", jobs)
	}
	if len(zset.scores) != 1 {
		t.Error("future job should remain queued")
	}
}

func TestClaimDueRemovesClaimedJobs(t *testing.T) {
	zset := newMemZSet()
	store := New(zset, "reclaim:")
	ctx := context.Background()
	now := time.Now()

	if err := store.Add(ctx, Job{ID: "j1", ItemID: "item-1", NotBefore: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	first, err := store.ClaimDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first claim = %+v, want one job", first)
	}

	second, err := store.ClaimDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second claim = %+v, want none", second)
	}
}

func TestClaimDueEmptyQueue(t *testing.T) {
	store := New(newMemZSet(), "reclaim:")

	jobs, err := store.ClaimDue(context.Background(), time.Now(), 10)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if jobs != nil {
		t.Errorf("jobs = %+v, want nil", jobs)
	}
}

func TestClaimDueDropsMalformedMembers(t *testing.T) {
	zset := newMemZSet()
	store := New(zset, "reclaim:")
	ctx := context.Background()
	now := time.Now()

	zset.scores["not json"] = float64(now.Add(-time.Minute).Unix())
	if err := store.Add(ctx, Job{ID: "j1", ItemID: "item-1", NotBefore: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	jobs, err := store.ClaimDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ItemID != "item-1" {
		t.Fatalf("claimed jobs = %+v, want only the valid job", jobs)
	}
	if _, ok := zset.scores["not json"]; ok {
		t.Error("malformed member should have been removed")
	}
}

func TestClaimDueHonorsLimit(t *testing.T) {
	zset := newMemZSet()
	store := New(zset, "reclaim:")
	ctx := context.Background()
	now := time.Now()

	for _, id := range []string{"a", "b", "c"} {
		job := Job{ID: id, ItemID: "item-" + id, NotBefore: now.Add(-time.Minute)}
		if err := store.Add(ctx, job); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	jobs, err := store.ClaimDue(ctx, now, 2)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("claimed %d jobs, want 2", len(jobs))
	}
	if len(zset.scores) != 1 {
		t.Errorf("%d jobs remain, want 1", len(zset.scores))
	}
}
