// Package user persists user contact profiles.
package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/reclaimhq/reclaim/internal/db"
	"github.com/reclaimhq/reclaim/internal/domain"
)

// store is the consumer interface for user persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

type jsonUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Repo implements the UserReader contract of the match and notify usecases.
type Repo struct {
	store  store
	prefix string
}

// New creates a user repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

func (r *Repo) userKey(id string) string {
	return r.prefix + "user:" + id
}

// Put creates or updates a user profile.
func (r *Repo) Put(ctx context.Context, u domain.UserProfile) error {
	data, err := json.Marshal(jsonUser{ID: u.ID, Name: u.Name, Email: u.Email})
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := r.store.JSONSet(ctx, r.userKey(u.ID), "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", u.ID, err)
	}
	return nil
}

// Get returns a user profile by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.UserProfile, error) {
	raw, err := r.store.JSONGet(ctx, r.userKey(id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.UserProfile{}, domain.ErrUserNotFound
		}
		return domain.UserProfile{}, fmt.Errorf("json.get user %s: %w", id, err)
	}

	var docs []jsonUser
	if err := json.Unmarshal(raw, &docs); err != nil {
		return domain.UserProfile{}, fmt.Errorf("unmarshal user: %w", err)
	}
	if len(docs) == 0 {
		return domain.UserProfile{}, domain.ErrUserNotFound
	}
	doc := docs[0]
	return domain.UserProfile{ID: doc.ID, Name: doc.Name, Email: doc.Email}, nil
}
