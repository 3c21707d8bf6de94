package chameleon

import (
	"errors"
	"iter"
)

var ErrUnterminatedExpression = errors.New("unterminated ${...} expression")

// Expressions returns the ${...} fragments of s, left to right. Braces
// inside quoted strings do not count towards nesting. "$${" is an
// escaped, literal "${".
//
// If a fragment is never closed the sequence ends with
// ErrUnterminatedExpression.
func Expressions(s string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for i := 0; i < len(s); i++ {
			if s[i] != '$' {
				continue
			}
			if i+1 < len(s) && s[i+1] == '$' {
				i++
				continue
			}
			if i+1 >= len(s) || s[i+1] != '{' {
				continue
			}
			start := i + 2
			end := closeBrace(s, start)
			if end < 0 {
				yield("", ErrUnterminatedExpression)
				return
			}
			if !yield(s[start:end], nil) {
				return
			}
			i = end
		}
	}
}

// closeBrace returns the index of the brace closing an expression
// starting at start, or -1.
func closeBrace(s string, start int) int {
	depth := 1
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
