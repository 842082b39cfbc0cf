package frontmatter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/quill/pkg/core"
)

// Fence delimits the header.
const Fence = "---"

var specialChars = regexp.MustCompile("[:#\\-?&*!\\[\\]{},>|'%@`\\s]")

// Write renders metadata as header lines, without the surrounding fences.
// Keys are written in metadata order; lines are joined with "\n".
func Write(meta *core.Metadata) string {
	var lines []string
	meta.Range(func(key string, value any) bool {
		lines = append(lines, writeEntry(key, value)...)
		return true
	})
	return strings.Join(lines, "\n")
}

func writeEntry(key string, value any) []string {
	switch v := value.(type) {
	case []string:
		lines := []string{key + ":"}
		for _, item := range v {
			lines = append(lines, "  - "+Quote(item))
		}
		return lines
	case []any:
		lines := []string{key + ":"}
		for _, item := range v {
			lines = append(lines, "  - "+Quote(fmt.Sprint(item)))
		}
		return lines
	case bool:
		if v {
			return []string{key + ": true"}
		}
		return []string{key + ": false"}
	case nil:
		return []string{key + ":"}
	case string:
		if v == "" {
			return []string{key + ": "}
		}
		return []string{key + ": " + Quote(v)}
	default:
		return []string{key + ": " + Quote(fmt.Sprint(v))}
	}
}

// NeedsQuote reports whether s contains a character the parser would
// misread: YAML indicators or whitespace.
func NeedsQuote(s string) bool {
	return specialChars.MatchString(s)
}

// Quote wraps s in double quotes when NeedsQuote says so, escaping
// embedded double quotes with a backslash. Strings spelling a boolean or
// containing a double quote are quoted too so they read back unchanged,
// and the empty string becomes "" so a list item keeps its place.
func Quote(s string) string {
	if !NeedsQuote(s) && !ambiguous(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func ambiguous(s string) bool {
	return s == "" || strings.EqualFold(s, "true") || strings.EqualFold(s, "false") || strings.Contains(s, `"`)
}
