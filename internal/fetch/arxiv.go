package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

const defaultArxivURL = "https://export.arxiv.org/api/query"

// ArxivFetcher retrieves recent submissions from the arXiv Atom API.
type ArxivFetcher struct {
	baseURL string
	client  *http.Client
	parser  *gofeed.Parser
	logger  *zap.Logger
}

// NewArxivFetcher creates a fetcher against the public arXiv API.
func NewArxivFetcher(logger *zap.Logger) *ArxivFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArxivFetcher{
		baseURL: defaultArxivURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		parser:  gofeed.NewParser(),
		logger:  logger,
	}
}

// WithBaseURL points the fetcher at a different endpoint. Mainly for tests.
func (f *ArxivFetcher) WithBaseURL(base string) *ArxivFetcher {
	f.baseURL = base
	return f
}

// Fetch queries the API for the newest submissions in the configured
// categories, newest first, capped at params.MaxResults.
func (f *ArxivFetcher) Fetch(ctx context.Context, params pipeline.FetchParams) ([]pipeline.Record, error) {
	categories := params.Categories
	if len(categories) == 0 {
		categories = []string{"cs.AI"}
	}
	terms := make([]string, 0, len(categories))
	for _, cat := range categories {
		terms = append(terms, "cat:"+cat)
	}

	q := url.Values{}
	q.Set("search_query", strings.Join(terms, " OR "))
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(params.MaxResults))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build arxiv request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv request: unexpected status %d", resp.StatusCode)
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse arxiv response: %w", err)
	}

	records := make([]pipeline.Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		records = append(records, f.toRecord(item))
	}
	f.logger.Debug("arxiv query returned entries", zap.Int("count", len(records)))
	return records, nil
}

func (f *ArxivFetcher) toRecord(item *gofeed.Item) pipeline.Record {
	rec := pipeline.Record{
		GUID:       item.GUID,
		Title:      collapseWhitespace(item.Title),
		Link:       item.Link,
		Categories: item.Categories,
	}
	if rec.GUID == "" {
		rec.GUID = item.Link
	}
	if item.PublishedParsed != nil {
		rec.Published = item.PublishedParsed.UTC()
	}

	authors := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			authors = append(authors, a.Name)
		}
	}
	rec.Description = buildDescription(authors, item.Categories, item.Description)
	return rec
}

// buildDescription assembles the labeled description block consumed
// downstream: an Authors line, a Categories line, then the abstract.
func buildDescription(authors, categories []string, abstract string) string {
	var b strings.Builder
	if len(authors) > 0 {
		b.WriteString("Authors: ")
		b.WriteString(strings.Join(authors, ", "))
		b.WriteString("\n")
	}
	if len(categories) > 0 {
		b.WriteString("Categories: ")
		b.WriteString(strings.Join(categories, ", "))
		b.WriteString("\n")
	}
	b.WriteString(collapseWhitespace(abstract))
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
