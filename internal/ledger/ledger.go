// Package ledger tracks record identities already delivered to a sink.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

type fileFormat struct {
	PublishedGUIDs []string `json:"published_guids"`
}

// FileLedger is a persisted set of delivered identities backed by a single
// JSON document. Each sink maintains its own ledger file; entries are only
// added, never removed, by normal operation.
type FileLedger struct {
	path    string
	entries map[string]struct{}
	logger  *zap.Logger
}

// NewFileLedger constructs a ledger backed by the file at path.
func NewFileLedger(path string, logger *zap.Logger) *FileLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileLedger{
		path:    path,
		entries: make(map[string]struct{}),
		logger:  logger,
	}
}

// Load reads the on-disk ledger. A missing file yields an empty ledger; an
// unreadable one is treated the same way so a corrupt ledger never blocks
// publishing, at the cost of possible re-delivery.
func (l *FileLedger) Load() error {
	l.entries = make(map[string]struct{})

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read ledger file: %w", err)
	}

	var stored fileFormat
	if err := json.Unmarshal(data, &stored); err != nil {
		l.logger.Warn("ledger file unreadable, starting empty",
			zap.String("path", l.path),
			zap.Error(err),
		)
		return nil
	}
	for _, id := range stored.PublishedGUIDs {
		l.entries[id] = struct{}{}
	}
	return nil
}

// Contains reports whether identity has already been delivered.
func (l *FileLedger) Contains(identity string) bool {
	_, ok := l.entries[identity]
	return ok
}

// Mark records identity as delivered in memory. Persist makes it durable.
func (l *FileLedger) Mark(identity string) {
	if identity == "" {
		return
	}
	l.entries[identity] = struct{}{}
}

// Len returns the number of delivered identities.
func (l *FileLedger) Len() int {
	return len(l.entries)
}

// Persist atomically replaces the on-disk ledger with the in-memory set via
// a temp file and rename. On failure the prior file remains authoritative.
func (l *FileLedger) Persist() error {
	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.MarshalIndent(fileFormat{PublishedGUIDs: ids}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}
