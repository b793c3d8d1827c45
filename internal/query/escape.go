package query

import "strings"

const metaChars = `\"*?^`

// Escape backslash-escapes every character that is meaningful inside a CQL term.
func Escape(s string) string {
	if !strings.ContainsAny(s, metaChars) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if strings.ContainsRune(metaChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Quote escapes s and wraps it in double quotes, ready to embed in a remote CQL query.
func Quote(s string) string {
	return `"` + Escape(s) + `"`
}

// Unescape drops CQL backslash escapes, returning the literal value.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// LikePattern converts a CQL term into a SQL LIKE pattern using backslash as the escape character.
// Unescaped '*' and '?' become '%' and '_'. A term without wildcards or '^' anchors matches as a
// substring; otherwise it is anchored at both ends unless a wildcard says otherwise.
func LikePattern(term string) string {
	var b strings.Builder
	b.Grow(len(term) + 2)
	anchored := false
	escaped := false
	for _, r := range term {
		switch {
		case escaped:
			escaped = false
			writeLikeLiteral(&b, r)
		case r == '\\':
			escaped = true
		case r == '*':
			anchored = true
			b.WriteByte('%')
		case r == '?':
			anchored = true
			b.WriteByte('_')
		case r == '^':
			anchored = true
		default:
			writeLikeLiteral(&b, r)
		}
	}
	if anchored {
		return b.String()
	}
	return "%" + b.String() + "%"
}

func writeLikeLiteral(b *strings.Builder, r rune) {
	if r == '%' || r == '_' || r == '\\' {
		b.WriteByte('\\')
	}
	b.WriteRune(r)
}
