package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/veridian-id/livegate/internal/db"
	"github.com/veridian-id/livegate/internal/domain"
)

// store is the consumer interface for journal operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists attempt records as JSON values with a retention TTL.
type Repo struct {
	store     store
	keyPrefix string
	retention time.Duration
}

// New creates an attempt journal repository.
// retention is how long each record is kept before expiring.
func New(s store, keyPrefix string, retention time.Duration) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: keyPrefix,
		retention: retention,
	}
}

// Append stores an attempt record under its ID.
func (r *Repo) Append(ctx context.Context, rec domain.AttemptRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}

	key := r.attemptKey(rec.ID)
	if err := r.store.SetWithTTL(ctx, key, data, r.retention); err != nil {
		return fmt.Errorf("journal SET %s: %w", key, err)
	}
	return nil
}

// Get returns a single attempt record by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.AttemptRecord, error) {
	key := r.attemptKey(id)
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.AttemptRecord{}, domain.ErrAttemptNotFound
		}
		return domain.AttemptRecord{}, fmt.Errorf("journal GET %s: %w", key, err)
	}

	var rec domain.AttemptRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("unmarshal attempt %s: %w", id, err)
	}
	return rec, nil
}

// List returns the most recent attempt records, newest first.
func (r *Repo) List(ctx context.Context, limit int) ([]domain.AttemptRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	keys, err := r.store.Scan(ctx, r.attemptKey("*"))
	if err != nil {
		return nil, fmt.Errorf("journal SCAN: %w", err)
	}

	recs := make([]domain.AttemptRecord, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			// Key may have expired between SCAN and GET.
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("journal GET %s: %w", key, err)
		}

		var rec domain.AttemptRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal attempt %s: %w", key, err)
		}
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (r *Repo) attemptKey(id string) string {
	return r.keyPrefix + "attempt:" + id
}
