// Package envfile parses KEY=VALUE environment files into ordered entries,
// including backtick-delimited multi-line values, and renders entries back
// into file form.
package envfile

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Entry is a single parsed assignment. Value is the raw string exactly as it
// round-trips into a KEY=value line (KEY=`value` when Multiline is set).
type Entry struct {
	Key       string
	Value     string
	Multiline bool
}

var (
	// The value runs to the next unescaped backtick; backslash-escaped
	// backticks stay part of the value verbatim.
	multilineRe = regexp.MustCompile("(?ms)^\\s*([A-Za-z_][A-Za-z0-9_]*)\\s*=\\s*`((?:\\\\.|[^`\\\\])*)`")
	lineRe      = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.*)$`)
)

// Parse scans raw file content and returns its entries in order: multi-line
// entries first (in file order), then single-line entries in file order.
// Malformed lines, blanks, and comments are skipped. Duplicate keys are NOT
// merged: every match produces its own entry, so callers choose first-match
// or last-match semantics explicitly.
func Parse(content string) []Entry {
	var entries []Entry

	// First pass: pull out backtick-delimited multi-line assignments and
	// cut their exact spans so the line scanner does not see them again.
	// Cutting by offset matters: the matched text can also occur earlier
	// in the file (inside another value or a comment), and that earlier
	// occurrence must stay intact.
	matches := multilineRe.FindAllStringSubmatchIndex(content, -1)
	for _, m := range matches {
		entries = append(entries, Entry{
			Key:       content[m[2]:m[3]],
			Value:     content[m[4]:m[5]],
			Multiline: true,
		})
	}
	working := content
	for i := len(matches) - 1; i >= 0; i-- {
		working = working[:matches[i][0]] + working[matches[i][1]:]
	}

	for _, line := range strings.Split(working, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entries = append(entries, Entry{Key: m[1], Value: unquote(strings.TrimSpace(m[2]))})
	}

	return entries
}

// ParseFile reads and parses path. A missing file yields no entries and no
// error, mirroring how absent env files are treated everywhere else.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// Render writes entries back into env-file form, one assignment per line,
// multi-line values wrapped in backticks.
func Render(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		if e.Multiline {
			fmt.Fprintf(&b, "%s=`%s`\n", e.Key, e.Value)
		} else {
			fmt.Fprintf(&b, "%s=%s\n", e.Key, e.Value)
		}
	}
	return b.String()
}

// unquote strips one layer of surrounding quotes, only when the value starts
// and ends with the same single or double quote character.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
