// Package frontmatter extracts the delimited metadata block from a skill
// document and parses it into a flat header plus a markdown body. The header
// format is deliberately simpler than YAML: flat `key: value` pairs with
// optional `[a, b]` inline lists, parsed line by line. Lines that do not look
// like a key/value pair are skipped; missing keys are the validator's concern.
package frontmatter

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Delimiter is the marker line that opens and closes the metadata block.
const Delimiter = "---"

var (
	// ErrNoFrontmatter is returned when the document does not start with a
	// metadata block.
	ErrNoFrontmatter = errors.New("no metadata block found")
	// ErrUnclosedFrontmatter is returned when the opening delimiter is never
	// matched by a closing one.
	ErrUnclosedFrontmatter = errors.New("metadata block not closed")
)

var keyValueRe = regexp.MustCompile(`^([A-Za-z0-9_-]+)\s*:\s*(.*)$`)

// Document is a parsed skill document: a header of scalar or list values and
// the raw markdown body that follows the metadata block.
type Document struct {
	Header map[string]any
	Body   string
}

// Parse splits raw document text into header and body. The metadata block
// must open at the very start of the text; anything else is a parse error.
func Parse(content string) (*Document, error) {
	lines := strings.Split(content, "\n")
	if strings.TrimRight(lines[0], "\r") != Delimiter {
		return nil, ErrNoFrontmatter
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == Delimiter {
			closing = i
			break
		}
	}
	if closing == -1 {
		return nil, ErrUnclosedFrontmatter
	}

	header := make(map[string]any)
	for _, line := range lines[1:closing] {
		m := keyValueRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		header[m[1]] = parseValue(m[2])
	}

	body := strings.TrimSpace(strings.Join(lines[closing+1:], "\n"))

	return &Document{Header: header, Body: body}, nil
}

// parseValue interprets a raw header value: `[a, b]` becomes a list of
// trimmed strings, anything else is a scalar with surrounding quotes removed.
func parseValue(raw string) any {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		inner := strings.TrimSpace(raw[1 : len(raw)-1])
		if inner == "" {
			return []string{}
		}
		parts := strings.Split(inner, ",")
		items := make([]string, 0, len(parts))
		for _, part := range parts {
			if item := unquote(strings.TrimSpace(part)); item != "" {
				items = append(items, item)
			}
		}
		return items
	}

	return unquote(raw)
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Has reports whether the header contains a non-empty value for key.
func (d *Document) Has(key string) bool {
	value, ok := d.Header[key]
	if !ok {
		return false
	}
	switch v := value.(type) {
	case string:
		return v != ""
	case []string:
		return len(v) > 0
	}
	return true
}

// String returns the scalar value for key, or the empty string if the key is
// absent or holds a list.
func (d *Document) String(key string) string {
	if v, ok := d.Header[key].(string); ok {
		return v
	}
	return ""
}

// List returns the list value for key. A scalar value is returned as a
// single-element list so callers can treat `tags: a` and `tags: [a]` alike.
func (d *Document) List(key string) []string {
	switch v := d.Header[key].(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}
