package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
)

// WriterConfig captures the parameters for the feed writer.
type WriterConfig struct {
	OutputDir   string
	Title       string
	Description string
	Keywords    []string
}

// Writer serializes filtered records into an RSS 2.0 document. Every
// invocation produces a new, uniquely named file so historical documents are
// never overwritten.
type Writer struct {
	cfg    WriterConfig
	clock  pipeline.Clock
	logger *zap.Logger
}

// NewWriter constructs a Writer.
func NewWriter(cfg WriterConfig, clock pipeline.Clock, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = "arXiv Feed Bot - Personalized Papers"
	}
	if cfg.Description == "" {
		cfg.Description = "Automatically filtered arXiv papers based on your research interests"
	}
	return &Writer{cfg: cfg, clock: clock, logger: logger}
}

// Write serializes records and returns the path of the generated document.
func (w *Writer) Write(records []pipeline.Record) (string, error) {
	now := w.clock.Now()
	path := filepath.Join(w.cfg.OutputDir, w.filename(now))

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n<rss version=\"2.0\">\n  <channel>\n")
	writeElement(&buf, "title", w.cfg.Title, 4)
	writeElement(&buf, "link", "https://arxiv.org/", 4)
	writeElement(&buf, "description", w.cfg.Description, 4)
	writeElement(&buf, "lastBuildDate", now.Format(time.RFC1123Z), 4)

	for _, rec := range records {
		writeItem(&buf, rec)
	}

	buf.WriteString("  </channel>\n</rss>\n")

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("write feed file: %w", err)
	}
	w.logger.Debug("wrote feed document",
		zap.String("path", path),
		zap.Int("items", len(records)),
	)
	return path, nil
}

// filename encodes run date, run time, and up to 3 keyword abbreviations,
// or ALL when no keywords are configured.
func (w *Writer) filename(now time.Time) string {
	abbrs := make([]string, 0, 3)
	for _, kw := range w.cfg.Keywords {
		if len(abbrs) == 3 {
			break
		}
		if abbr := keywordAbbr(kw); abbr != "" {
			abbrs = append(abbrs, abbr)
		}
	}
	suffix := "ALL"
	if len(abbrs) > 0 {
		suffix = strings.Join(abbrs, "_")
	}
	return fmt.Sprintf("%s_%s_%s.xml", now.Format("20060102"), now.Format("150405"), suffix)
}

func keywordAbbr(keyword string) string {
	var b strings.Builder
	for _, word := range strings.Fields(keyword) {
		// First rune, not first byte: keywords may start multi-byte.
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteString(strings.ToUpper(string(r)))
	}
	return b.String()
}

func writeItem(buf *bytes.Buffer, rec pipeline.Record) {
	buf.WriteString("    <item>\n")
	writeElement(buf, "title", rec.Title, 6)
	writeElement(buf, "link", rec.Link, 6)
	writeElement(buf, "description", rec.Description, 6)
	if !rec.Published.IsZero() {
		writeElement(buf, "pubDate", rec.Published.Format(time.RFC1123Z), 6)
	}
	for _, cat := range rec.Categories {
		writeElement(buf, "category", cat, 6)
	}
	if guid := rec.Identity(); guid != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", isURL(guid)))
		_ = xml.EscapeText(buf, []byte(guid))
		buf.WriteString("</guid>\n")
	}
	buf.WriteString("    </item>\n")
}

func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}
	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	_ = xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
