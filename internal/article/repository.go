package article

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/ejfox/pinboard-news/internal/store"
)

const (
	detailKeyPrefix = "articles:"
	listKey         = "articles:list"

	// maxIndexSize caps the id index; ids trimmed past the cap leave their
	// detail records orphaned rather than deleted.
	maxIndexSize = 100
)

// storedArticle is the on-store shape: tags as the original
// whitespace-separated string, created_at stamped at save time.
type storedArticle struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Summary     string    `json:"summary"`
	Tags        string    `json:"tags"`
	Time        time.Time `json:"time"`
	ProcessedAt time.Time `json:"processed_at"`
	CreatedAt   time.Time `json:"created_at"`
	Error       string    `json:"error,omitempty"`
}

// Repository persists articles in the key-value store: one detail record per
// article plus a most-recent-first id index capped at maxIndexSize. The
// index read-modify-write is serialized by a process-local mutex; see
// DESIGN.md for the concurrency trade-off.
type Repository struct {
	store store.Store
	mu    sync.Mutex
	now   func() time.Time
}

func NewRepository(s store.Store) *Repository {
	return &Repository{store: s, now: time.Now}
}

// Save writes the detail record, then prepends the id to the index if it is
// not already present, truncating to maxIndexSize. Saving an existing id
// overwrites the detail record and leaves the index untouched. Failures in
// either write propagate.
func (r *Repository) Save(ctx context.Context, a Article) error {
	rec := toStored(a)
	rec.CreatedAt = r.now().UTC()

	if err := r.store.Set(ctx, detailKeyPrefix+a.ID, rec, 0); err != nil {
		return fmt.Errorf("failed to save article %s: %w", a.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	if err := r.store.Get(ctx, listKey, &ids); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to read article index: %w", err)
	}
	for _, id := range ids {
		if id == a.ID {
			return nil
		}
	}
	ids = append([]string{a.ID}, ids...)
	if len(ids) > maxIndexSize {
		ids = ids[:maxIndexSize]
	}
	if err := r.store.Set(ctx, listKey, ids, 0); err != nil {
		return fmt.Errorf("failed to update article index: %w", err)
	}
	return nil
}

// All returns up to limit articles sorted descending by their bookmark time.
// The index orders ids by processing time, so a re-sort is required. Ids
// whose detail record is missing are skipped; a store failure degrades to an
// empty result.
func (r *Repository) All(ctx context.Context, limit int) []Article {
	var ids []string
	if err := r.store.Get(ctx, listKey, &ids); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Failed to read article index: %v", err)
		}
		return nil
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	articles := make([]Article, 0, len(ids))
	for _, id := range ids {
		var rec storedArticle
		if err := r.store.Get(ctx, detailKeyPrefix+id, &rec); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Printf("Failed to read article %s: %v", id, err)
			}
			continue
		}
		articles = append(articles, fromStored(rec))
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Time.After(articles[j].Time)
	})
	return articles
}

// Recent returns articles processed within the last given hours. The window
// is judged on processing time, not the bookmark time used for ordering.
func (r *Repository) Recent(ctx context.Context, hours int) []Article {
	cutoff := r.now().Add(-time.Duration(hours) * time.Hour)
	var recent []Article
	for _, a := range r.All(ctx, maxIndexSize) {
		if !a.ProcessedAt.Before(cutoff) {
			recent = append(recent, a)
		}
	}
	return recent
}

func toStored(a Article) storedArticle {
	return storedArticle{
		ID:          a.ID,
		URL:         a.URL,
		Title:       a.Title,
		Description: a.Description,
		Summary:     a.Summary,
		Tags:        JoinTags(a.Tags),
		Time:        a.Time,
		ProcessedAt: a.ProcessedAt,
		Error:       a.Error,
	}
}

func fromStored(rec storedArticle) Article {
	tags := SplitTags(rec.Tags)
	if tags == nil {
		tags = []string{}
	}
	return Article{
		ID:          rec.ID,
		URL:         rec.URL,
		Title:       rec.Title,
		Description: rec.Description,
		Summary:     rec.Summary,
		Tags:        tags,
		Time:        rec.Time,
		ProcessedAt: rec.ProcessedAt,
		Error:       rec.Error,
	}
}
