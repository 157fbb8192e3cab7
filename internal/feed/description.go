// Package feed writes and reads the syndication documents produced per run.
package feed

import "strings"

// ParsedDescription holds the structured sub-fields embedded in a record's
// free-text description block.
type ParsedDescription struct {
	Authors    []string
	Categories []string
	Abstract   string
}

// ParseDescription splits a description block into its labeled sub-fields.
// Lines with a leading "Authors:" label populate the author list, lines with
// a leading "Categories:" label populate the category list, and everything
// else is space-joined into the abstract.
func ParseDescription(description string) ParsedDescription {
	var parsed ParsedDescription
	var abstractLines []string

	for _, raw := range strings.Split(description, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lowered := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lowered, "authors:"):
			parsed.Authors = splitCommaList(line[len("authors:"):])
		case strings.HasPrefix(lowered, "categories:"):
			parsed.Categories = splitCommaList(line[len("categories:"):])
		default:
			abstractLines = append(abstractLines, line)
		}
	}

	parsed.Abstract = strings.Join(abstractLines, " ")
	return parsed
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
