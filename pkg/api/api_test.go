package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ejfox/pinboard-news/config"
	"github.com/ejfox/pinboard-news/internal/article"
	"github.com/ejfox/pinboard-news/internal/news"
	"github.com/ejfox/pinboard-news/internal/openrouter"
	"github.com/ejfox/pinboard-news/internal/pinboard"
)

type fakeRepo struct {
	articles    []article.Article
	lastLimit   int
	recentHours int
}

func (f *fakeRepo) All(ctx context.Context, limit int) []article.Article {
	f.lastLimit = limit
	return f.articles
}

func (f *fakeRepo) Recent(ctx context.Context, hours int) []article.Article {
	f.recentHours = hours
	return f.articles
}

type fakeProcessor struct {
	result *news.Result
	err    error
}

func (f *fakeProcessor) Process(ctx context.Context) (*news.Result, error) { return f.result, f.err }

type fakeBookmarks struct {
	bookmarks []pinboard.Bookmark
	err       error
}

func (f *fakeBookmarks) Bookmarks(ctx context.Context) ([]pinboard.Bookmark, error) {
	return f.bookmarks, f.err
}

type fakeLLM struct {
	comp openrouter.Completion
	err  error
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string, maxTokens int) (openrouter.Completion, error) {
	return f.comp, f.err
}

type testAPI struct {
	repo      *fakeRepo
	pipeline  *fakeProcessor
	bookmarks *fakeBookmarks
	llm       *fakeLLM
	cfg       *config.Config
	app       *fiber.App
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ta := &testAPI{
		repo:      &fakeRepo{},
		pipeline:  &fakeProcessor{result: &news.Result{}},
		bookmarks: &fakeBookmarks{},
		llm:       &fakeLLM{comp: openrouter.Completion{Content: "ok", TokensUsed: 7}},
		cfg:       config.GetDefaultConfig(),
	}
	ta.cfg.Pinboard.APIToken = "user:token"
	ta.cfg.OpenRouter.APIKey = "sk-test"

	ta.app = fiber.New()
	New(ta.repo, ta.pipeline, ta.bookmarks, ta.llm, ta.cfg).RegisterRoutes(ta.app)
	return ta
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body []byte) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, target, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestArticlesHandler(t *testing.T) {
	ta := newTestAPI(t)
	ta.repo.articles = []article.Article{{
		ID:      "abc",
		URL:     "https://example.com/a",
		Title:   "Story",
		Summary: "Summary",
		Tags:    []string{"!news", "tech"},
		Time:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}}

	resp := doRequest(t, ta.app, http.MethodGet, "/api/articles", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got []map[string]any
	decodeJSON(t, resp, &got)
	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
	tags, ok := got[0]["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Errorf("tags not serialized as a list: %v", got[0]["tags"])
	}
	if ta.repo.lastLimit != 50 {
		t.Errorf("default limit = %d, want 50", ta.repo.lastLimit)
	}
}

func TestArticlesHandlerHoursOverridesLimit(t *testing.T) {
	ta := newTestAPI(t)
	resp := doRequest(t, ta.app, http.MethodGet, "/api/articles?limit=5&hours=24", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
	if ta.repo.recentHours != 24 {
		t.Errorf("recent hours = %d, want 24", ta.repo.recentHours)
	}
	if ta.repo.lastLimit != 0 {
		t.Errorf("All should not be called when hours is set")
	}
}

func TestArticlesHandlerEmptyIsArray(t *testing.T) {
	ta := newTestAPI(t)
	resp := doRequest(t, ta.app, http.MethodGet, "/api/articles", nil)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(bytes.TrimSpace(body)) != "[]" {
		t.Errorf("empty result should be a JSON array, got %s", body)
	}
}

func TestProcessHandler(t *testing.T) {
	ta := newTestAPI(t)
	ta.pipeline.result = &news.Result{Processed: 3, Valid: 2, Failed: 1, FromCache: true}

	resp := doRequest(t, ta.app, http.MethodPost, "/api/news/process", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got news.Result
	decodeJSON(t, resp, &got)
	if got.Processed != 3 || got.Valid != 2 || got.Failed != 1 || !got.FromCache {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestProcessHandlerPipelineError(t *testing.T) {
	ta := newTestAPI(t)
	ta.pipeline.err = errors.New("no curated bookmarks found")

	resp := doRequest(t, ta.app, http.MethodPost, "/api/news/process", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var got map[string]string
	decodeJSON(t, resp, &got)
	if got["error"] == "" || !bytes.Contains([]byte(got["error"]), []byte("no curated bookmarks found")) {
		t.Errorf("error message should embed the cause, got %q", got["error"])
	}
}

func TestProcessHandlerMissingConfig(t *testing.T) {
	for _, tt := range []struct {
		name  string
		mutate func(cfg *config.Config)
	}{
		{"pinboard token", func(cfg *config.Config) { cfg.Pinboard.APIToken = "" }},
		{"openrouter key", func(cfg *config.Config) { cfg.OpenRouter.APIKey = "" }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestAPI(t)
			tt.mutate(ta.cfg)
			resp := doRequest(t, ta.app, http.MethodPost, "/api/news/process", nil)
			resp.Body.Close()
			if resp.StatusCode != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", resp.StatusCode)
			}
		})
	}
}

func TestSummarizeHandler(t *testing.T) {
	ta := newTestAPI(t)
	body, _ := json.Marshal(map[string]string{"url": "https://example.com", "title": "T"})

	resp := doRequest(t, ta.app, http.MethodPost, "/api/openrouter/summarize", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got map[string]any
	decodeJSON(t, resp, &got)
	if got["summary"] != "ok" {
		t.Errorf("summary = %v", got["summary"])
	}
	if got["tokens_used"].(float64) != 7 {
		t.Errorf("tokens_used = %v", got["tokens_used"])
	}
}

func TestSummarizeHandlerMissingURL(t *testing.T) {
	ta := newTestAPI(t)
	body, _ := json.Marshal(map[string]string{"title": "no url"})

	resp := doRequest(t, ta.app, http.MethodPost, "/api/openrouter/summarize", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSummarizeHandlerUpstreamError(t *testing.T) {
	ta := newTestAPI(t)
	ta.llm.err = &openrouter.APIError{StatusCode: 500, Body: "boom"}
	body, _ := json.Marshal(map[string]string{"url": "https://example.com"})

	resp := doRequest(t, ta.app, http.MethodPost, "/api/openrouter/summarize", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestBookmarksHandler(t *testing.T) {
	ta := newTestAPI(t)
	ta.bookmarks.bookmarks = []pinboard.Bookmark{{Hash: "abc", Description: "Story"}}

	resp := doRequest(t, ta.app, http.MethodGet, "/api/pinboard/bookmarks", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got []pinboard.Bookmark
	decodeJSON(t, resp, &got)
	if len(got) != 1 || got[0].Hash != "abc" {
		t.Errorf("unexpected bookmarks: %v", got)
	}
}

func TestBookmarksHandlerErrors(t *testing.T) {
	ta := newTestAPI(t)
	ta.cfg.Pinboard.APIToken = ""
	resp := doRequest(t, ta.app, http.MethodGet, "/api/pinboard/bookmarks", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("unconfigured token: status = %d, want 500", resp.StatusCode)
	}

	ta = newTestAPI(t)
	ta.bookmarks.err = errors.New("pinboard down")
	resp = doRequest(t, ta.app, http.MethodGet, "/api/pinboard/bookmarks", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("fetch failure: status = %d, want 500", resp.StatusCode)
	}
}
