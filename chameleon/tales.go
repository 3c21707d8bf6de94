package chameleon

import (
	"regexp"
	"strings"
)

// splitClauses splits a define or attributes value on ";". A doubled
// ";;" stands for a literal semicolon. In Python clauses semicolons
// inside quotes or brackets do not split; other engines (string:, ...)
// split on every single ";".
func splitClauses(value string) []string {
	var clauses []string
	var cur strings.Builder
	var quote byte
	depth := 0
	python := pythonClause(value)
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case !python && c != ';':
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case (c == ')' || c == ']' || c == '}') && depth > 0:
			depth--
		case c == ';' && depth == 0:
			if i+1 < len(value) && value[i+1] == ';' {
				cur.WriteByte(';')
				i++
				continue
			}
			clauses = append(clauses, cur.String())
			cur.Reset()
			python = pythonClause(value[i+1:])
			continue
		}
		cur.WriteByte(c)
	}
	return append(clauses, cur.String())
}

// pythonClause reports whether the clause at the start of s holds a
// Python expression.
func pythonClause(s string) bool {
	_, ok := pythonSource(assignment(s))
	return ok
}

// cutWord splits the first whitespace separated word off s.
func cutWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool { return r < 0x80 && isSpace(byte(r)) })
	if end < 0 {
		return s, ""
	}
	return s[:end], strings.TrimSpace(s[end:])
}

// assignment returns the expression of a define, repeat or attributes
// clause: "[local|global] target expression", where the target is a
// name or a parenthesised tuple of names.
func assignment(clause string) string {
	clause = strings.TrimSpace(clause)
	if word, rest := cutWord(clause); word == "local" || word == "global" {
		clause = rest
	}
	if strings.HasPrefix(clause, "(") {
		end := strings.IndexByte(clause, ')')
		if end < 0 {
			return ""
		}
		return strings.TrimSpace(clause[end+1:])
	}
	_, expr := cutWord(clause)
	return expr
}

// content strips the structure or text keyword of a content, replace
// or on-error value.
func content(value string) string {
	if word, rest := cutWord(value); word == "structure" || word == "text" {
		return rest
	}
	return strings.TrimSpace(value)
}

// controlExpressions returns the expressions held by a TAL attribute.
func controlExpressions(name, value string) []string {
	var exprs []string
	switch name {
	case "define", "attributes":
		for _, clause := range splitClauses(value) {
			if expr := assignment(clause); expr != "" {
				exprs = append(exprs, expr)
			}
		}
	case "repeat":
		if expr := assignment(value); expr != "" {
			exprs = append(exprs, expr)
		}
	case "content", "replace", "on-error":
		exprs = append(exprs, content(value))
	case "condition", "omit-tag", "switch", "case":
		if expr := strings.TrimSpace(value); expr != "" {
			exprs = append(exprs, expr)
		}
	}
	return exprs
}

// alternatives splits an expression on the "|" fallback operator.
func alternatives(expr string) []string {
	var alts []string
	var quote byte
	depth, start := 0, 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == '|' && depth == 0:
			alts = append(alts, strings.TrimSpace(expr[start:i]))
			start = i + 1
		}
	}
	return append(alts, strings.TrimSpace(expr[start:]))
}

var enginePrefix = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9_.\-]*):`)

// pythonSource returns the Python code of a single expression, or
// false when the expression belongs to another engine (string:,
// load:, ...).
func pythonSource(expr string) (string, bool) {
	m := enginePrefix.FindStringSubmatch(expr)
	if m == nil {
		return expr, true
	}
	rest := expr[len(m[0]):]
	switch m[1] {
	case "python":
		return rest, true
	case "not", "structure":
		return pythonSource(rest)
	case "lambda":
		return expr, true
	}
	return "", false
}
