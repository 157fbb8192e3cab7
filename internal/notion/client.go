package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"

	// Diagnostic bodies are truncated to keep error lists bounded.
	maxErrorBody = 300

	queryPageSize = 100
)

// APIError captures a non-200 response from the sink API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api status %d: %s", e.Status, e.Body)
}

// Database describes the remote database: its identity, display title, and
// current property schema.
type Database struct {
	ID         string
	Title      string
	Properties Schema
}

// Page is one remote entity, reduced to what backfill matching needs.
type Page struct {
	ID    string
	Title string
}

// Client is a minimal versioned REST client for the Notion API, scoped to a
// single database.
type Client struct {
	baseURL    string
	token      string
	databaseID string
	http       *http.Client
	logger     *zap.Logger
}

// NewClient creates a client authorized by the integration token.
func NewClient(token, databaseID string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		databaseID: databaseID,
		http:       &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL points the client at a different endpoint. Mainly for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type propertyWire struct {
	Type  string     `json:"type"`
	Title []richText `json:"title,omitempty"`
}

type databaseWire struct {
	ID         string                  `json:"id"`
	Title      []richText              `json:"title"`
	Properties map[string]propertyWire `json:"properties"`
}

// GetDatabase fetches the database metadata and current property schema.
func (c *Client) GetDatabase(ctx context.Context) (Database, error) {
	raw, err := c.do(ctx, http.MethodGet, "/databases/"+c.databaseID, nil)
	if err != nil {
		return Database{}, err
	}

	var wire databaseWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Database{}, fmt.Errorf("decode database response: %w", err)
	}

	db := Database{ID: wire.ID, Properties: make(Schema, len(wire.Properties))}
	db.Title = joinPlainText(wire.Title)
	for name, prop := range wire.Properties {
		db.Properties[name] = PropertyType(prop.Type)
	}
	return db, nil
}

// UpdateDatabase adds or alters the given properties in a single batched
// mutation.
func (c *Client) UpdateDatabase(ctx context.Context, patch map[string]PropertyType) error {
	properties := make(map[string]any, len(patch))
	for name, t := range patch {
		properties[name] = map[string]any{string(t): map[string]any{}}
	}
	body := map[string]any{"properties": properties}
	_, err := c.do(ctx, http.MethodPatch, "/databases/"+c.databaseID, body)
	return err
}

type pageWire struct {
	ID         string                  `json:"id"`
	Properties map[string]propertyWire `json:"properties"`
}

type queryWire struct {
	Results    []pageWire `json:"results"`
	NextCursor string     `json:"next_cursor"`
	HasMore    bool       `json:"has_more"`
}

// QueryPages lists every entity in the database, fully draining the
// cursor-based pagination before returning.
func (c *Client) QueryPages(ctx context.Context) ([]Page, error) {
	var pages []Page
	cursor := ""
	for {
		payload := map[string]any{"page_size": queryPageSize}
		if cursor != "" {
			payload["start_cursor"] = cursor
		}
		raw, err := c.do(ctx, http.MethodPost, "/databases/"+c.databaseID+"/query", payload)
		if err != nil {
			return nil, err
		}
		var wire queryWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, fmt.Errorf("decode query response: %w", err)
		}
		for _, p := range wire.Results {
			pages = append(pages, Page{ID: p.ID, Title: pageTitle(p)})
		}
		if !wire.HasMore || wire.NextCursor == "" {
			break
		}
		cursor = wire.NextCursor
	}
	return pages, nil
}

// CreatePage creates a new entity in the database with the given property
// payload and optional body blocks.
func (c *Client) CreatePage(ctx context.Context, properties map[string]any, children []any) error {
	body := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": properties,
	}
	if len(children) > 0 {
		body["children"] = children
	}
	_, err := c.do(ctx, http.MethodPost, "/pages", body)
	return err
}

// UpdatePage overwrites properties on an existing entity.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]any) error {
	body := map[string]any{"properties": properties}
	_, err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, body)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("notion api error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &APIError{Status: resp.StatusCode, Body: truncate(string(data), maxErrorBody)}
	}
	return data, nil
}

func pageTitle(p pageWire) string {
	for _, prop := range p.Properties {
		if prop.Type == string(PropertyTitle) {
			return joinPlainText(prop.Title)
		}
	}
	return ""
}

func joinPlainText(parts []richText) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part.PlainText)
	}
	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
