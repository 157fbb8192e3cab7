// Package notion delivers records to a Notion database sink, reconciling
// its property schema at runtime before writing.
package notion

import "strings"

// PropertyType is the closed set of sink property types the pipeline maps
// record fields onto.
type PropertyType string

// Property types supported by the sink schema.
const (
	PropertyTitle       PropertyType = "title"
	PropertyURL         PropertyType = "url"
	PropertyDate        PropertyType = "date"
	PropertyMultiSelect PropertyType = "multi_select"
	PropertyRichText    PropertyType = "rich_text"
)

// Schema is the sink's current property set: name to type. A name missing
// from the map does not exist on the remote database.
type Schema map[string]PropertyType

// Has reports whether the property exists with the expected type. Writes
// are gated on this so unsupported fields are silently dropped.
func (s Schema) Has(name string, t PropertyType) bool {
	return s[name] == t
}

// TitleProperty returns the name of the title-typed property. Every sink
// database carries exactly one; "Name" is the conventional default when the
// schema could not be fetched.
func (s Schema) TitleProperty() string {
	for name, t := range s {
		if t == PropertyTitle {
			return name
		}
	}
	return "Name"
}

// RequiredProperties is the fixed well-known property set every reconciled
// database carries.
func RequiredProperties() map[string]PropertyType {
	return map[string]PropertyType{
		"URL":      PropertyURL,
		"Authors":  PropertyMultiSelect,
		"Date":     PropertyDate,
		"Keywords": PropertyMultiSelect,
		"Abstract": PropertyRichText,
		"ArXiv ID": PropertyRichText,
	}
}

// InferType maps a feed item field name onto a sink property type. A
// title-like name is never re-created since a title property always exists.
func InferType(fieldName string) PropertyType {
	switch strings.ToLower(fieldName) {
	case "link":
		return PropertyURL
	case "pubdate", "updated":
		return PropertyDate
	case "category", "keywords", "tags":
		return PropertyMultiSelect
	case "title":
		return PropertyTitle
	default:
		return PropertyRichText
	}
}
