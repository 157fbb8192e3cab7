package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// FirstItemFields returns the child element names of the first item in the
// feed document at path, in document order without duplicates. The sink
// schema reconciler uses them to discover dynamic properties.
func FirstItemFields(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	defer f.Close()

	decoder := xml.NewDecoder(f)
	inItem := false
	depth := 0
	seen := make(map[string]struct{})
	var fields []string

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan feed file: %w", err)
		}
		switch elem := tok.(type) {
		case xml.StartElement:
			name := elem.Name.Local
			if !inItem {
				if name == "item" {
					inItem = true
					depth = 0
				}
				continue
			}
			if depth == 0 {
				if _, dup := seen[name]; !dup {
					seen[name] = struct{}{}
					fields = append(fields, name)
				}
			}
			depth++
		case xml.EndElement:
			if !inItem {
				continue
			}
			if elem.Name.Local == "item" && depth == 0 {
				return fields, nil
			}
			if depth > 0 {
				depth--
			}
		}
	}
	return fields, nil
}
