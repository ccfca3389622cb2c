package article

import (
	"strings"
	"time"
)

// Article is an enriched bookmark: the source fields plus an AI-generated
// summary. Error, when set, classifies why summarization failed; such
// articles carry the original description (or a placeholder) as their
// summary and are never persisted.
type Article struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Summary     string    `json:"summary"`
	Tags        []string  `json:"tags"`
	Time        time.Time `json:"time"`
	ProcessedAt time.Time `json:"processed_at"`
	Error       string    `json:"error,omitempty"`
}

// SplitTags converts the whitespace-separated tag form used by Pinboard and
// the stored records into a tag list.
func SplitTags(s string) []string {
	return strings.Fields(s)
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, " ")
}

// StripTag returns tags without any occurrence of tag or empty entries.
func StripTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == tag || strings.TrimSpace(t) == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}
