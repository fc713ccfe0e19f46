// Package sqltext prepares raw SQL text for inclusion in workload
// configuration files.
package sqltext

import "strings"

// Normalize strips `--` line comments and collapses all runs of whitespace
// to a single space. Block comments (`/* ... */`) are kept since they can
// carry version or dialect specific hints that must survive into execution.
//
// The comment strip is textual: a `--` inside a string literal is removed
// as well. Use NormalizeStrict when queries embed literal dashes.
func Normalize(query string) string {
	lines := strings.Split(query, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "--"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(strings.Fields(strings.Join(lines, " ")), " ")
}

// NormalizeStrict behaves like Normalize but tracks string literals, so a
// `--` inside single, double or backtick quotes is preserved. Doubled
// quote characters inside a literal close and immediately reopen it, which
// yields the same result as treating them as escapes.
func NormalizeStrict(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '\'' || c == '"' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			for i < len(query) && query[i] != '\n' {
				i++
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SplitStatements splits a SQL script on `;`, normalizes each statement
// and drops the empty ones.
func SplitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if s := Normalize(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
