// Package frontmatter splits and decodes the YAML header of Markdown documents.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the per-document metadata docsite understands.
// Unknown keys are kept in Extra so fingerprints stay stable across rewrites.
type Frontmatter struct {
	Title       string
	Description string
	Extra       map[string]any
}

// Style captures the newline shape of a document for stable rewriting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input.
func Split(content []byte) (raw []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	delim := []byte("---" + nl)
	if !bytes.HasPrefix(content, delim) {
		return nil, content, false, style, nil
	}

	start := len(delim)
	if bytes.HasPrefix(content[start:], delim) {
		return []byte{}, content[start+len(delim):], true, style, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line without a trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			end := len(content) - len("---")
			return content[start:end], []byte{}, true, style, nil
		}
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, style, nil
}

// Join reassembles a document from raw frontmatter and body.
func Join(raw []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	delim := []byte("---" + nl)

	out := make([]byte, 0, 2*len(delim)+len(raw)+len(body))
	out = append(out, delim...)
	out = append(out, raw...)
	out = append(out, delim...)
	out = append(out, body...)
	return out
}

// ParseYAML parses raw YAML frontmatter (without delimiters) into a map.
func ParseYAML(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Parse splits content and decodes its frontmatter. Documents without a
// header yield a zero Frontmatter and the full content as body.
func Parse(content []byte) (Frontmatter, []byte, error) {
	raw, body, had, _, err := Split(content)
	if err != nil {
		return Frontmatter{}, nil, err
	}
	if !had {
		return Frontmatter{}, body, nil
	}

	fields, err := ParseYAML(raw)
	if err != nil {
		return Frontmatter{}, nil, fmt.Errorf("invalid yaml frontmatter: %w", err)
	}

	fm, err := FromFields(fields)
	if err != nil {
		return Frontmatter{}, nil, err
	}
	return fm, body, nil
}

// FromFields decodes the known keys of a parsed field map.
func FromFields(fields map[string]any) (Frontmatter, error) {
	var fm Frontmatter
	for key, value := range fields {
		switch key {
		case "title":
			s, err := stringField(key, value)
			if err != nil {
				return Frontmatter{}, err
			}
			fm.Title = s
		case "description":
			s, err := stringField(key, value)
			if err != nil {
				return Frontmatter{}, err
			}
			fm.Description = s
		default:
			if fm.Extra == nil {
				fm.Extra = map[string]any{}
			}
			fm.Extra[key] = value
		}
	}
	return fm, nil
}

// Fields is the inverse of FromFields. Empty known keys are omitted.
func (fm Frontmatter) Fields() map[string]any {
	fields := make(map[string]any, len(fm.Extra)+2)
	for k, v := range fm.Extra {
		fields[k] = v
	}
	if fm.Title != "" {
		fields["title"] = fm.Title
	}
	if fm.Description != "" {
		fields["description"] = fm.Description
	}
	return fields
}

func stringField(key string, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("frontmatter field %q must be a string, got %T", key, value)
	}
}

func detectStyle(content []byte) Style {
	newline := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		newline = "\r\n"
	}
	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
