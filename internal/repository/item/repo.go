// Package item persists item records as JSON documents with a per-disposition
// membership index.
package item

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/reclaimhq/reclaim/internal/db"
	"github.com/reclaimhq/reclaim/internal/domain"
)

// store is the consumer interface for item persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo implements the item storage contracts of the match, audit, and
// follow-up usecases.
type Repo struct {
	store  store
	prefix string
}

// New creates an item repository. keyPrefix namespaces all keys (e.g. "reclaim:").
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

func (r *Repo) itemKey(id string) string {
	return r.prefix + "item:" + id
}

func (r *Repo) dispositionKey(d domain.Disposition) string {
	return r.prefix + "items:" + string(d)
}

// Put creates or updates an item record and its disposition index entry.
// Returns true if the record was created.
func (r *Repo) Put(ctx context.Context, rec domain.ItemRecord) (bool, error) {
	key := r.itemKey(rec.ID)
	data, err := json.Marshal(toJSON(rec))
	if err != nil {
		return false, fmt.Errorf("marshal item: %w", err)
	}

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", key, err)
	}
	if err := r.store.SAdd(ctx, r.dispositionKey(rec.Disposition), rec.ID); err != nil {
		return false, fmt.Errorf("index %s: %w", rec.ID, err)
	}

	return !exists, nil
}

// Delete removes an item record and its disposition index entry. Pending
// follow-up jobs for the item cancel themselves when they come due.
func (r *Repo) Delete(ctx context.Context, id string) error {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, r.itemKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, r.dispositionKey(rec.Disposition), id); err != nil {
		return fmt.Errorf("unindex %s: %w", id, err)
	}
	return nil
}

// Get returns an item record by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.ItemRecord, error) {
	key := r.itemKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ItemRecord{}, domain.ErrItemNotFound
		}
		return domain.ItemRecord{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(raw)
}

// FindByDisposition returns all item records with the given disposition, in
// index order. Records whose document has gone missing are skipped; the index
// entry is cleaned up lazily.
func (r *Repo) FindByDisposition(ctx context.Context, d domain.Disposition) ([]domain.ItemRecord, error) {
	ids, err := r.store.SMembers(ctx, r.dispositionKey(d))
	if err != nil {
		return nil, fmt.Errorf("list %s items: %w", d, err)
	}

	records := make([]domain.ItemRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrItemNotFound) {
				_ = r.store.SRem(ctx, r.dispositionKey(d), id)
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// UpdateEmbeddings writes both embedding fields in a single document write,
// so a record never holds one fresh and one stale vector.
func (r *Repo) UpdateEmbeddings(ctx context.Context, id string, image, text domain.FeatureVector) error {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.ImageEmbedding = image
	rec.TextEmbedding = text

	data, err := json.Marshal(toJSON(rec))
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	if err := r.store.JSONSet(ctx, r.itemKey(id), "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", id, err)
	}
	return nil
}

// UpdateTextEmbedding rewrites only the text vector. Used by the consistency
// auditor; idempotent by construction.
func (r *Repo) UpdateTextEmbedding(ctx context.Context, id string, text domain.FeatureVector) error {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.TextEmbedding = text

	data, err := json.Marshal(toJSON(rec))
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	if err := r.store.JSONSet(ctx, r.itemKey(id), "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", id, err)
	}
	return nil
}

// ScanRepairable returns items in non-terminal status that carry a text
// description, across both dispositions. Input set for the consistency audit.
func (r *Repo) ScanRepairable(ctx context.Context) ([]domain.ItemRecord, error) {
	var out []domain.ItemRecord
	for _, d := range []domain.Disposition{domain.Lost, domain.Found} {
		records, err := r.FindByDisposition(ctx, d)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if rec.Status.Terminal() || rec.Description == "" {
				continue
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// parseJSONGetResult unwraps the JSONPath array envelope of JSON.GET $.
func parseJSONGetResult(raw []byte) (domain.ItemRecord, error) {
	var docs []jsonItem
	if err := json.Unmarshal(raw, &docs); err != nil {
		return domain.ItemRecord{}, fmt.Errorf("unmarshal item: %w", err)
	}
	if len(docs) == 0 {
		return domain.ItemRecord{}, domain.ErrItemNotFound
	}
	return toDomain(docs[0]), nil
}
