// Package frontmatter splits YAML frontmatter from Markdown manuscripts.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates an opening --- without a closing one.
var ErrMissingClosingDelimiter = errors.New("frontmatter: missing closing delimiter")

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is
// false and body is the full input.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	open := []byte("---\n")
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Empty frontmatter block.
		return []byte{}, rest[len(open):], true, nil
	}
	if bytes.Equal(rest, []byte("---")) {
		// Empty frontmatter block closing at end-of-input.
		return []byte{}, nil, true, nil
	}

	closeSeq := []byte("\n---\n")
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+1], rest[idx+len(closeSeq):], true, nil
	}
	// A closing delimiter on the final line needs no trailing newline.
	if bytes.HasSuffix(rest, []byte("\n---")) {
		return rest[:len(rest)-len("---")], nil, true, nil
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// Parse unmarshals raw YAML frontmatter (without --- delimiters) into out.
func Parse(fm []byte, out any) error {
	if len(fm) == 0 {
		return nil
	}
	return yaml.Unmarshal(fm, out)
}
