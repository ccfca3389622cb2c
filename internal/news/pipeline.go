package news

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ejfox/pinboard-news/internal/article"
	"github.com/ejfox/pinboard-news/internal/openrouter"
	"github.com/ejfox/pinboard-news/internal/pinboard"
	"github.com/ejfox/pinboard-news/internal/store"
)

const (
	cacheKey      = "processed:news:articles"
	cacheFreshFor = 30 * time.Minute

	// batchLimit bounds LLM calls per invocation. This is a cost guard, not
	// pagination: repeated runs reprocess the same leading bookmarks.
	batchLimit = 3

	summaryTokens = 150
)

// Source provides the raw bookmarks to enrich.
type Source interface {
	Fetch(ctx context.Context) ([]pinboard.Bookmark, error)
}

// Summarizer generates a completion for a prompt.
type Summarizer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (openrouter.Completion, error)
}

// Scheduler admits outbound LLM calls under the shared rate budget.
type Scheduler interface {
	Schedule(ctx context.Context, fn func() error) error
}

// Saver persists successfully enriched articles.
type Saver interface {
	Save(ctx context.Context, a article.Article) error
}

// Result is the outcome of one pipeline run.
type Result struct {
	Processed int               `json:"processed"`
	Valid     int               `json:"valid"`
	Failed    int               `json:"failed"`
	News      []article.Article `json:"news"`
	FromCache bool              `json:"fromCache"`
}

type envelope struct {
	News      []article.Article `json:"news"`
	Timestamp time.Time         `json:"timestamp"`
}

// Pipeline fetches curated bookmarks, summarizes them through rate-limited
// LLM calls, persists successful enrichments, and caches the full batch so
// repeated requests inside the freshness window cost nothing upstream.
type Pipeline struct {
	source     Source
	summarizer Summarizer
	scheduler  Scheduler
	repo       Saver
	store      store.Store
	now        func() time.Time
}

func NewPipeline(source Source, summarizer Summarizer, scheduler Scheduler, repo Saver, s store.Store) *Pipeline {
	return &Pipeline{
		source:     source,
		summarizer: summarizer,
		scheduler:  scheduler,
		repo:       repo,
		store:      s,
		now:        time.Now,
	}
}

// Process runs the full enrichment batch. Per-item failures degrade that
// item; only a missing or unusable bookmark source fails the run.
func (p *Pipeline) Process(ctx context.Context) (*Result, error) {
	if cached, ok := p.cached(ctx); ok {
		return cached, nil
	}

	bookmarks, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookmarks: %w", err)
	}
	if len(bookmarks) == 0 {
		return nil, errors.New("no curated bookmarks found")
	}

	batch := bookmarks
	if len(batch) > batchLimit {
		batch = batch[:batchLimit]
	}
	log.Printf("Starting to process %d of %d bookmarks with rate limiting", len(batch), len(bookmarks))

	news := make([]article.Article, 0, len(batch))
	valid := 0
	for i, bm := range batch {
		log.Printf("Processing bookmark %d/%d: %s", i+1, len(batch), bm.Description)
		a := p.enrich(ctx, bm)
		if a.Error == "" {
			valid++
			// Persistence failures do not fail the item; it still ships in
			// the response and the cache.
			if err := p.repo.Save(ctx, a); err != nil {
				log.Printf("Failed to save article %s: %v", a.ID, err)
			}
		}
		news = append(news, a)
	}

	env := envelope{News: news, Timestamp: p.now()}
	if err := p.store.Set(ctx, cacheKey, env, 0); err != nil {
		log.Printf("Failed to cache processed news: %v", err)
	}

	log.Printf("Processing complete: %d successful, %d failed", valid, len(news)-valid)
	return &Result{
		Processed: len(news),
		Valid:     valid,
		Failed:    len(news) - valid,
		News:      news,
		FromCache: false,
	}, nil
}

func (p *Pipeline) enrich(ctx context.Context, bm pinboard.Bookmark) article.Article {
	a := article.Article{
		ID:          bm.Hash,
		URL:         bm.Href,
		Title:       bm.Description,
		Description: bm.Extended,
		Tags:        article.SplitTags(bm.Tags),
		Time:        bm.Time,
		ProcessedAt: p.now().UTC(),
	}

	prompt := summaryPrompt(bm)
	var comp openrouter.Completion
	err := p.scheduler.Schedule(ctx, func() error {
		var callErr error
		comp, callErr = p.summarizer.Complete(ctx, prompt, summaryTokens)
		return callErr
	})
	if err != nil {
		kind := openrouter.Classify(err)
		log.Printf("Failed to process %q: %s", bm.Description, kind)
		a.Error = kind
		if bm.Extended != "" {
			a.Summary = bm.Extended
		} else {
			a.Summary = fmt.Sprintf("[%s] Original bookmark description unavailable", kind)
		}
		return a
	}

	a.Summary = comp.Content
	return a
}

// cached returns the last batch when it is younger than the freshness
// window. Any cache read problem counts as a miss.
func (p *Pipeline) cached(ctx context.Context) (*Result, bool) {
	var env envelope
	if err := p.store.Get(ctx, cacheKey, &env); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("News cache read failed: %v", err)
		}
		return nil, false
	}
	if p.now().Sub(env.Timestamp) >= cacheFreshFor {
		return nil, false
	}

	valid := 0
	for _, a := range env.News {
		if a.Error == "" {
			valid++
		}
	}
	log.Printf("Returning cached processed news (%d items)", len(env.News))
	return &Result{
		Processed: len(env.News),
		Valid:     valid,
		Failed:    len(env.News) - valid,
		News:      env.News,
		FromCache: true,
	}, true
}

func summaryPrompt(bm pinboard.Bookmark) string {
	prompt := fmt.Sprintf("Summarize this in 2 sentences:\n\n%q\n", bm.Description)
	if bm.Extended != "" {
		prompt += fmt.Sprintf("\nContext: %s\n", bm.Extended)
	}
	prompt += "\nWrite a factual summary focusing on what this is about:"
	return prompt
}
