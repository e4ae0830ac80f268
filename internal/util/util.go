// Package util provides string helpers for host command arguments.
package util

import (
	"fmt"
	"strings"
	"unicode"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArgs trims and unescapes every argument in place.
func CleanArgs(args []string) []string {
	for i, v := range args {
		args[i] = FixEscapeQuotes(TrimQuotes(v))
	}
	return args
}

// SplitArgs splits a command line on whitespace. Double-quoted text ("" is an
// escaped quote) and bracketed [..] or {..} groups stay in one field, quotes
// included.
func SplitArgs(line string) ([]string, error) {
	var (
		fields  []string
		b       strings.Builder
		depth   int
		quoted  bool
		pending bool
	)
	flush := func() {
		if pending {
			fields = append(fields, b.String())
			b.Reset()
			pending = false
		}
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quoted:
			b.WriteRune(r)
			if r == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					b.WriteRune('"')
					i++
					continue
				}
				quoted = false
			}
		case r == '"':
			quoted = true
			pending = true
			b.WriteRune(r)
		case r == '[' || r == '{':
			depth++
			pending = true
			b.WriteRune(r)
		case r == ']' || r == '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced %q at column %d", r, i+1)
			}
			b.WriteRune(r)
		case unicode.IsSpace(r) && depth == 0:
			flush()
		default:
			pending = true
			b.WriteRune(r)
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote")
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets")
	}
	flush()
	return fields, nil
}
