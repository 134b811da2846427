package session

import "strings"

// parsedStatement is a statement with its :name parameters located.
type parsedStatement struct {
	text        string
	segments    []string // len(segments) == len(occurrences)+1
	occurrences []string
	names       []string
}

// parseNamed scans text for :name parameters. Quoted strings and identifiers are
// skipped, and "::" casts are left alone.
func parseNamed(text string) parsedStatement {
	p := parsedStatement{text: text}
	seen := map[string]bool{}

	var current strings.Builder
	for i := 0; i < len(text); i++ {
		ch := text[i]

		if ch == '\'' || ch == '"' {
			end := closingQuote(text, i)
			current.WriteString(text[i:end])
			i = end - 1
			continue
		}

		if ch == ':' {
			if i+1 < len(text) && text[i+1] == ':' {
				current.WriteString("::")
				i++
				continue
			}
			j := i + 1
			for j < len(text) && isNameChar(text[j]) {
				j++
			}
			if j > i+1 {
				name := text[i+1 : j]
				p.segments = append(p.segments, current.String())
				current.Reset()
				p.occurrences = append(p.occurrences, name)
				if !seen[name] {
					seen[name] = true
					p.names = append(p.names, name)
				}
				i = j - 1
				continue
			}
		}

		current.WriteByte(ch)
	}
	p.segments = append(p.segments, current.String())

	return p
}

// closingQuote returns the index just past the quoted run starting at start.
// Doubled quotes are treated as escapes.
func closingQuote(text string, start int) int {
	quote := text[start]
	for i := start + 1; i < len(text); i++ {
		if text[i] != quote {
			continue
		}
		if i+1 < len(text) && text[i+1] == quote {
			i++
			continue
		}
		return i + 1
	}
	return len(text)
}

func isNameChar(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}

// render rewrites the statement with positional placeholders and returns the
// matching argument list. Unbound parameters are sent as NULL.
func (p parsedStatement) render(placeholder func(int) string, values map[string]string) (string, []any) {
	if len(p.occurrences) == 0 {
		return p.text, nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(p.occurrences))
	for i, name := range p.occurrences {
		sb.WriteString(p.segments[i])
		sb.WriteString(placeholder(i + 1))
		if v, ok := values[name]; ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	sb.WriteString(p.segments[len(p.segments)-1])

	return sb.String(), args
}

// Positional rewrites the :name parameters of text into positional placeholders.
func Positional(text string, placeholder func(int) string) string {
	sql, _ := parseNamed(text).render(placeholder, nil)
	return sql
}
