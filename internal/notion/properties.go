package notion

import (
	"strings"
	"time"

	"github.com/paperwheel/arxiv-feed-bot/internal/feed"
	"github.com/paperwheel/arxiv-feed-bot/internal/filter"
	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

const (
	// Sink field-length limit for rich text values. Truncation is blunt,
	// not word-boundary-safe.
	maxRichTextLen = 1900

	maxSelectOptions = 20
)

// BuildProperties maps a record onto sink-native property values. Only
// fields the reconciled schema supports are written; everything else is
// silently dropped.
func BuildProperties(rec pipeline.Record, schema Schema, keywords []string) map[string]any {
	parsed := feed.ParseDescription(rec.Description)
	matched := rec.MatchedKeywords
	if len(matched) == 0 {
		matched = filter.MatchKeywords(rec.Title+" "+rec.Description, keywords)
	}

	title := rec.Title
	if title == "" {
		title = "Untitled"
	}
	props := map[string]any{
		schema.TitleProperty(): titleProp(title),
	}

	if schema.Has("URL", PropertyURL) && rec.Link != "" {
		props["URL"] = urlProp(rec.Link)
	}
	if schema.Has("Authors", PropertyMultiSelect) && len(parsed.Authors) > 0 {
		props["Authors"] = multiSelectProp(parsed.Authors)
	}
	if schema.Has("Date", PropertyDate) && !rec.Published.IsZero() {
		props["Date"] = dateProp(rec.Published)
	}
	if schema.Has("Keywords", PropertyMultiSelect) && len(matched) > 0 {
		props["Keywords"] = multiSelectProp(matched)
	}
	if schema.Has("Abstract", PropertyRichText) && parsed.Abstract != "" {
		props["Abstract"] = richTextProp(parsed.Abstract)
	}
	if id := ArxivID(rec.Link); schema.Has("ArXiv ID", PropertyRichText) && id != "" {
		props["ArXiv ID"] = richTextProp(id)
	}

	// Dynamically discovered properties mirror raw feed item field names.
	if schema.Has("link", PropertyURL) && rec.Link != "" {
		props["link"] = urlProp(rec.Link)
	}
	if schema.Has("pubDate", PropertyDate) && !rec.Published.IsZero() {
		props["pubDate"] = dateProp(rec.Published)
	}
	if schema.Has("description", PropertyRichText) && rec.Description != "" {
		props["description"] = richTextProp(rec.Description)
	}
	if guid := rec.Identity(); schema.Has("guid", PropertyRichText) && guid != "" {
		props["guid"] = richTextProp(guid)
	}
	if schema.Has("category", PropertyMultiSelect) && len(parsed.Categories) > 0 {
		props["category"] = multiSelectProp(parsed.Categories)
	}

	return props
}

// ArxivID extracts the arXiv identifier from an abstract link, e.g.
// "https://arxiv.org/abs/2401.12345v1" yields "2401.12345v1".
func ArxivID(link string) string {
	if link == "" || !strings.Contains(link, "arxiv.org") {
		return ""
	}
	trimmed := strings.TrimRight(link, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return ""
	}
	return trimmed[idx+1:]
}

// descriptionChildren wraps the description into a paragraph body block for
// page creation.
func descriptionChildren(description string) []any {
	if description == "" {
		return nil
	}
	return []any{
		map[string]any{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": []any{textValue(truncate(description, maxRichTextLen))},
			},
		},
	}
}

func titleProp(content string) map[string]any {
	return map[string]any{
		"title": []any{
			map[string]any{"text": map[string]any{"content": content}},
		},
	}
}

func urlProp(link string) map[string]any {
	return map[string]any{"url": link}
}

func dateProp(t time.Time) map[string]any {
	return map[string]any{"date": map[string]any{"start": t.Format("2006-01-02")}}
}

func multiSelectProp(names []string) map[string]any {
	if len(names) > maxSelectOptions {
		names = names[:maxSelectOptions]
	}
	options := make([]any, 0, len(names))
	for _, name := range names {
		options = append(options, map[string]any{"name": name})
	}
	return map[string]any{"multi_select": options}
}

func richTextProp(content string) map[string]any {
	return map[string]any{"rich_text": []any{textValue(truncate(content, maxRichTextLen))}}
}

func textValue(content string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]any{"content": content},
	}
}
