package dbconn

import (
	"fmt"
	"strings"
)

// BlockedError reports a statement rejected by the read-only guard.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return "statement blocked: " + e.Reason
}

// writeKeywords are rejected wherever they appear outside strings and
// comments. Broad on purpose: this layer only ever needs SELECT.
var writeKeywords = []string{
	"insert", "update", "delete", "drop", "alter", "create", "truncate",
	"replace", "merge", "grant", "revoke", "attach", "detach", "pragma",
	"vacuum", "reindex", "call", "exec", "execute", "set", "copy", "do",
	"lock", "rename", "load",
}

// validateStatement admits a single SELECT (or WITH ... SELECT) statement
// and nothing else.
func validateStatement(stmt string) error {
	cleaned := strings.TrimSpace(stripStringsAndComments(stmt))
	cleaned = strings.TrimSuffix(cleaned, ";")
	if cleaned == "" {
		return &BlockedError{Reason: "empty statement"}
	}
	if strings.Contains(cleaned, ";") {
		return &BlockedError{Reason: "multiple statements are not allowed"}
	}

	lower := strings.ToLower(cleaned)
	first := firstWord(lower)
	if first != "select" && first != "with" {
		return &BlockedError{Reason: fmt.Sprintf("only SELECT statements are allowed, got %q", first)}
	}

	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, f := range fields {
		for _, kw := range writeKeywords {
			if f == kw {
				return &BlockedError{Reason: fmt.Sprintf("keyword %q is not allowed", strings.ToUpper(kw))}
			}
		}
	}
	return nil
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// stripStringsAndComments blanks out string literals, quoted identifiers and
// SQL comments so keyword detection cannot be fooled by literal content.
func stripStringsAndComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	const (
		code = iota
		singleQuote
		doubleQuote
		backQuote
		lineComment
		blockComment
	)
	state := code

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch state {
		case code:
			switch {
			case r == '\'':
				state = singleQuote
				b.WriteByte(' ')
			case r == '"':
				state = doubleQuote
				b.WriteByte(' ')
			case r == '`':
				state = backQuote
				b.WriteByte(' ')
			case r == '-' && next == '-':
				state = lineComment
				i++
			case r == '/' && next == '*':
				state = blockComment
				i++
			default:
				b.WriteRune(r)
			}
		case singleQuote:
			if r == '\'' {
				if next == '\'' {
					i++
				} else {
					state = code
				}
			}
		case doubleQuote:
			if r == '"' {
				state = code
			}
		case backQuote:
			if r == '`' {
				state = code
			}
		case lineComment:
			if r == '\n' {
				state = code
				b.WriteByte('\n')
			}
		case blockComment:
			if r == '*' && next == '/' {
				state = code
				i++
			}
		}
	}
	return b.String()
}
