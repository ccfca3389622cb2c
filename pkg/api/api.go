package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ejfox/pinboard-news/config"
	"github.com/ejfox/pinboard-news/internal/article"
	"github.com/ejfox/pinboard-news/internal/news"
	"github.com/ejfox/pinboard-news/internal/openrouter"
	"github.com/ejfox/pinboard-news/internal/pinboard"
)

const defaultArticleLimit = 50

// ArticleReader serves persisted articles.
type ArticleReader interface {
	All(ctx context.Context, limit int) []article.Article
	Recent(ctx context.Context, hours int) []article.Article
}

// Processor runs the enrichment pipeline.
type Processor interface {
	Process(ctx context.Context) (*news.Result, error)
}

// BookmarkSource serves the cached raw bookmark list.
type BookmarkSource interface {
	Bookmarks(ctx context.Context) ([]pinboard.Bookmark, error)
}

// Summarizer generates one-off summaries without persistence.
type Summarizer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (openrouter.Completion, error)
}

type NewsAPI struct {
	repo      ArticleReader
	pipeline  Processor
	bookmarks BookmarkSource
	llm       Summarizer
	cfg       *config.Config
}

func New(repo ArticleReader, pipeline Processor, bookmarks BookmarkSource, llm Summarizer, cfg *config.Config) *NewsAPI {
	return &NewsAPI{
		repo:      repo,
		pipeline:  pipeline,
		bookmarks: bookmarks,
		llm:       llm,
		cfg:       cfg,
	}
}

func (api *NewsAPI) RegisterRoutes(app *fiber.App) {
	app.Get("/api/articles", api.articlesHandler)
	app.Post("/api/news/process", api.processHandler)
	app.Post("/api/openrouter/summarize", api.summarizeHandler)
	app.Get("/api/pinboard/bookmarks", api.bookmarksHandler)
	app.Get("/api/rss", api.rssHandler)
}

// articlesHandler lists persisted articles. A positive hours query switches
// to recency filtering and overrides limit.
func (api *NewsAPI) articlesHandler(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultArticleLimit)))
	if err != nil || limit < 1 {
		limit = defaultArticleLimit
	}

	var articles []article.Article
	if hours, err := strconv.Atoi(c.Query("hours")); err == nil && hours > 0 {
		articles = api.repo.Recent(c.Context(), hours)
	} else {
		articles = api.repo.All(c.Context(), limit)
	}
	if articles == nil {
		articles = []article.Article{}
	}
	return c.JSON(articles)
}

func (api *NewsAPI) processHandler(c *fiber.Ctx) error {
	if api.cfg.Pinboard.APIToken == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Pinboard API token not configured",
		})
	}
	if api.cfg.OpenRouter.APIKey == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "OpenRouter API key not configured",
		})
	}

	result, err := api.pipeline.Process(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process news items: " + err.Error(),
		})
	}
	return c.JSON(result)
}

type summarizeRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (api *NewsAPI) summarizeHandler(c *fiber.Ctx) error {
	if api.cfg.OpenRouter.APIKey == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "OpenRouter API key not configured",
		})
	}

	var req summarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "URL is required",
		})
	}

	comp, err := api.llm.Complete(c.Context(), oneOffPrompt(req), 200)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate summary: " + err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"summary":     comp.Content,
		"tokens_used": comp.TokensUsed,
	})
}

func (api *NewsAPI) bookmarksHandler(c *fiber.Ctx) error {
	if api.cfg.Pinboard.APIToken == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Pinboard API token not configured",
		})
	}

	bookmarks, err := api.bookmarks.Bookmarks(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch Pinboard bookmarks: " + err.Error(),
		})
	}
	if bookmarks == nil {
		bookmarks = []pinboard.Bookmark{}
	}
	return c.JSON(bookmarks)
}

func oneOffPrompt(req summarizeRequest) string {
	title := req.Title
	if title == "" {
		title = "N/A"
	}
	description := req.Description
	if description == "" {
		description = "N/A"
	}
	return fmt.Sprintf(`Please provide a concise news summary (2-3 sentences) of this article:

Title: %s
URL: %s
Description: %s

Focus on the key facts and why this matters. Keep it under 100 words.`, title, req.URL, description)
}
