package pinboard

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ejfox/pinboard-news/internal/store"
)

const (
	cacheKey      = "pinboard:news:bookmarks"
	cacheFreshFor = 10 * time.Minute
)

// envelope wraps the cached bookmark list with its fetch time so freshness
// is judged at read time and aged copies stay available for fallback.
type envelope struct {
	Payload   []Bookmark `json:"payload"`
	Timestamp time.Time  `json:"timestamp"`
}

// CachedSource serves bookmarks through a 10-minute cache. When the live
// fetch fails and a cached copy exists, the copy is served regardless of its
// age.
type CachedSource struct {
	client *Client
	store  store.Store
	now    func() time.Time
}

func NewCachedSource(client *Client, s store.Store) *CachedSource {
	return &CachedSource{client: client, store: s, now: time.Now}
}

func (cs *CachedSource) Bookmarks(ctx context.Context) ([]Bookmark, error) {
	var env envelope
	cacheErr := cs.store.Get(ctx, cacheKey, &env)
	if cacheErr == nil && cs.now().Sub(env.Timestamp) < cacheFreshFor {
		log.Printf("Returning cached Pinboard bookmarks (%d items)", len(env.Payload))
		return env.Payload, nil
	}
	if cacheErr != nil && !errors.Is(cacheErr, store.ErrNotFound) {
		log.Printf("Bookmark cache read failed: %v", cacheErr)
	}

	log.Println("Cache miss - fetching fresh data from Pinboard API")
	bookmarks, err := cs.client.Fetch(ctx)
	if err != nil {
		if cacheErr == nil {
			log.Printf("Returning stale cached bookmarks after fetch error: %v", err)
			return env.Payload, nil
		}
		return nil, err
	}

	env = envelope{Payload: bookmarks, Timestamp: cs.now()}
	if err := cs.store.Set(ctx, cacheKey, env, 0); err != nil {
		log.Printf("Failed to cache Pinboard response: %v", err)
	}
	return bookmarks, nil
}
