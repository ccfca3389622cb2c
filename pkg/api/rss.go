package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/feeds"

	"github.com/ejfox/pinboard-news/internal/article"
)

const rssArticleLimit = 50

// rssHandler renders the persisted articles as RSS 2.0. The curation tag is
// stripped from every item's categories.
func (api *NewsAPI) rssHandler(c *fiber.Ctx) error {
	site := api.cfg.Site
	now := time.Now()

	feed := &feeds.Feed{
		Title:       site.Title,
		Link:        &feeds.Link{Href: site.URL},
		Description: site.Description,
		Author:      &feeds.Author{Name: site.AuthorName, Email: site.AuthorEmail},
		Created:     now,
		Copyright:   fmt.Sprintf("All rights reserved %d", now.Year()),
	}

	articles := api.repo.All(c.Context(), rssArticleLimit)
	tagLists := make([][]string, len(articles))
	for i, a := range articles {
		tags := article.StripTag(a.Tags, api.cfg.Pinboard.Tag)
		tagLists[i] = tags
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       a.Title,
			Id:          a.URL,
			Link:        &feeds.Link{Href: a.URL},
			Description: a.Summary,
			Content:     itemContent(a, tags),
			Created:     a.Time,
		})
	}

	rss := (&feeds.Rss{Feed: feed}).RssFeed()
	rss.Generator = "pinboard-news (Pinboard + OpenRouter)"
	for i, tags := range tagLists {
		rss.Items[i].Category = strings.Join(tags, ",")
	}

	body, err := feeds.ToXML(rss)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate RSS feed",
		})
	}
	c.Set(fiber.HeaderContentType, "application/rss+xml")
	return c.SendString(body)
}

func itemContent(a article.Article, tags []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h2>%s</h2>\n", a.Title)
	fmt.Fprintf(&sb, "<p><strong>AI Summary:</strong> %s</p>\n", a.Summary)
	if a.Description != "" {
		fmt.Fprintf(&sb, "<p><strong>Original description:</strong> %s</p>\n", a.Description)
	}
	fmt.Fprintf(&sb, "<p><strong>Tags:</strong> %s</p>\n", strings.Join(tags, ", "))
	fmt.Fprintf(&sb, "<p><a href=%q>Read the full article</a></p>", a.URL)
	return sb.String()
}
