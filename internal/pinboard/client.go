package pinboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ejfox/pinboard-news/config"
)

// Bookmark is a single post from the Pinboard v1 API. Description carries
// the bookmark title; Extended the free-form notes. Hash is stable and
// unique per bookmark.
type Bookmark struct {
	Hash        string    `json:"hash"`
	Href        string    `json:"href"`
	Description string    `json:"description"`
	Extended    string    `json:"extended"`
	Tags        string    `json:"tags"`
	Time        time.Time `json:"time"`
}

// Client fetches bookmarks carrying the curation tag.
type Client struct {
	token   string
	tag     string
	baseURL string
	client  *http.Client
}

func NewClient(cfg *config.PinboardConfig) *Client {
	return &Client{
		token:   cfg.APIToken,
		tag:     cfg.Tag,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch returns all bookmarks tagged with the configured curation tag.
func (c *Client) Fetch(ctx context.Context) ([]Bookmark, error) {
	u, err := url.Parse(c.baseURL + "/posts/all")
	if err != nil {
		return nil, fmt.Errorf("invalid pinboard URL: %w", err)
	}
	q := u.Query()
	q.Set("auth_token", c.token)
	q.Set("format", "json")
	q.Set("tag", c.tag)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinboard request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pinboard API %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pinboard response: %w", err)
	}
	return parseBookmarks(body)
}

// parseBookmarks handles both shapes Pinboard is known to return: a JSON
// array, or that same array wrapped in a JSON string.
func parseBookmarks(data []byte) ([]Bookmark, error) {
	var bookmarks []Bookmark
	if err := json.Unmarshal(data, &bookmarks); err == nil {
		return bookmarks, nil
	}
	var wrapped string
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks response")
	}
	if err := json.Unmarshal([]byte(wrapped), &bookmarks); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks response")
	}
	return bookmarks, nil
}
