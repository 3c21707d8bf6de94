package python

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/runenames"

	"github.com/snapcore/go-lingva"
)

var (
	ErrUnterminatedString = errors.New("unterminated string literal")
	ErrUnbalanced         = errors.New("unbalanced brackets")
	ErrUnexpectedEOF      = errors.New("unexpected end of file in multi-line statement")
	ErrInvalidCharacter   = errors.New("invalid character")
	ErrInvalidUTF8        = errors.New("invalid UTF-8 sequence")
	ErrSyntax             = errors.New("invalid syntax")
	ErrUnknownName        = errors.New("unknown Unicode character name")
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokNumber
	tokString
	tokOp
	tokComment
	// tokNewline ends a logical line
	tokNewline
	// tokNL is a line break that does not end a logical line
	tokNL
)

type token struct {
	kind tokenKind
	// text is the identifier, operator, comment text or the decoded
	// value of a string literal.
	text string
	line int
	// fstring marks formatted string literals, which have no constant
	// value.
	fstring bool
}

type bracket struct {
	open byte
	line int
}

type tokenizer struct {
	filename string
	src      []byte
	pos      int
	line     int

	brackets []bracket
	// logical is set once the current logical line holds a token.
	logical bool
	// badLine is the line of the first invalid UTF-8 sequence.
	badLine int
}

func newTokenizer(filename string, src []byte) *tokenizer {
	return &tokenizer{
		filename: filename,
		src:      src,
		line:     1,
		badLine:  lingva.InvalidUTF8(src),
	}
}

func (t *tokenizer) errorf(line int, err error, format string, args ...interface{}) error {
	if format != "" {
		err = fmt.Errorf("%w: "+format, append([]interface{}{err}, args...)...)
	}
	return &lingva.ParseError{File: t.filename, Line: line, Err: err}
}

func (t *tokenizer) peekByte(offset int) byte {
	if t.pos+offset < len(t.src) {
		return t.src[t.pos+offset]
	}
	return 0
}

func (t *tokenizer) next() (token, error) {
	for {
		if t.badLine > 0 && t.line >= t.badLine {
			return token{}, t.errorf(t.badLine, ErrInvalidUTF8, "")
		}
		if t.pos >= len(t.src) {
			if n := len(t.brackets); n > 0 {
				return token{}, t.errorf(t.brackets[n-1].line, ErrUnexpectedEOF, "")
			}
			if t.logical {
				t.logical = false
				return token{kind: tokNewline, line: t.line}, nil
			}
			return token{kind: tokEOF, line: t.line}, nil
		}

		c := t.src[t.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\f' || c == '\r':
			t.pos++
		case c == '\n':
			t.pos++
			line := t.line
			t.line++
			if len(t.brackets) == 0 && t.logical {
				t.logical = false
				return token{kind: tokNewline, line: line}, nil
			}
			return token{kind: tokNL, line: line}, nil
		case c == '\\':
			// explicit line joining
			if t.peekByte(1) == '\n' {
				t.pos += 2
				t.line++
			} else if t.peekByte(1) == '\r' && t.peekByte(2) == '\n' {
				t.pos += 3
				t.line++
			} else {
				return token{}, t.errorf(t.line, ErrInvalidCharacter, "unexpected character after line continuation")
			}
		case c == '#':
			end := t.pos
			for end < len(t.src) && t.src[end] != '\n' {
				end++
			}
			text := strings.TrimSpace(string(t.src[t.pos+1 : end]))
			t.pos = end
			return token{kind: tokComment, text: text, line: t.line}, nil
		default:
			tok, err := t.readToken()
			if err != nil {
				return token{}, err
			}
			t.logical = true
			return tok, nil
		}
	}
}

func (t *tokenizer) readToken() (token, error) {
	c := t.src[t.pos]
	switch {
	case c == '"' || c == '\'':
		return t.readString("")
	case isDigit(c) || (c == '.' && isDigit(t.peekByte(1))):
		return t.readNumber(), nil
	case c == '_' || c >= utf8.RuneSelf || unicode.IsLetter(rune(c)):
		return t.readName()
	}
	return t.readOperator()
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isNameRune(r rune, first bool) bool {
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	if first {
		return false
	}
	return unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc)
}

func isStringPrefix(name string) bool {
	switch strings.ToLower(name) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func (t *tokenizer) readName() (token, error) {
	start := t.pos
	first := true
	for t.pos < len(t.src) {
		r, size := utf8.DecodeRune(t.src[t.pos:])
		if !isNameRune(r, first) {
			break
		}
		first = false
		t.pos += size
	}
	if t.pos == start {
		return token{}, t.errorf(t.line, ErrInvalidCharacter, "%q", string(t.src[start:start+1]))
	}
	name := string(t.src[start:t.pos])
	if q := t.peekByte(0); (q == '"' || q == '\'') && isStringPrefix(name) {
		return t.readString(strings.ToLower(name))
	}
	return token{kind: tokName, text: name, line: t.line}, nil
}

func (t *tokenizer) readNumber() token {
	start := t.pos
	hex := t.peekByte(0) == '0' && (t.peekByte(1) == 'x' || t.peekByte(1) == 'X')
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		switch {
		case isDigit(c) || c == '_' || c == '.' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z'):
			t.pos++
		case (c == '+' || c == '-') && !hex && (t.src[t.pos-1] == 'e' || t.src[t.pos-1] == 'E'):
			t.pos++
		default:
			return token{kind: tokNumber, text: string(t.src[start:t.pos]), line: t.line}
		}
	}
	return token{kind: tokNumber, text: string(t.src[start:t.pos]), line: t.line}
}

var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"==", "!=", "<=", ">=", "**", "//", "<<", ">>", "->", ":=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
}

var closing = map[byte]byte{')': '(', ']': '[', '}': '{'}

func (t *tokenizer) readOperator() (token, error) {
	rest := t.src[t.pos:]
	for _, op := range operators {
		if len(rest) >= len(op) && string(rest[:len(op)]) == op {
			t.pos += len(op)
			return token{kind: tokOp, text: op, line: t.line}, nil
		}
	}

	c := rest[0]
	switch c {
	case '(', '[', '{':
		t.brackets = append(t.brackets, bracket{open: c, line: t.line})
	case ')', ']', '}':
		n := len(t.brackets)
		if n == 0 {
			return token{}, t.errorf(t.line, ErrUnbalanced, "unmatched %q", c)
		}
		if t.brackets[n-1].open != closing[c] {
			return token{}, t.errorf(t.line, ErrUnbalanced, "%q does not match %q", c, t.brackets[n-1].open)
		}
		t.brackets = t.brackets[:n-1]
	case '+', '-', '*', '/', '%', '&', '|', '^', '~', '<', '>', '=', '.', ',', ':', ';', '@', '!':
	default:
		r, _ := utf8.DecodeRune(rest)
		return token{}, t.errorf(t.line, ErrInvalidCharacter, "%q", r)
	}
	t.pos++
	return token{kind: tokOp, text: string(c), line: t.line}, nil
}

// readString reads a string literal starting at the opening quote.
func (t *tokenizer) readString(prefix string) (token, error) {
	raw := strings.ContainsRune(prefix, 'r')
	bytesLiteral := strings.ContainsAny(prefix, "bB")
	tok := token{
		kind:    tokString,
		line:    t.line,
		fstring: strings.ContainsRune(prefix, 'f'),
	}

	quote := t.src[t.pos]
	triple := t.peekByte(1) == quote && t.peekByte(2) == quote
	if triple {
		t.pos += 3
	} else {
		t.pos++
	}

	var buf strings.Builder
	for {
		if t.pos >= len(t.src) {
			return token{}, t.errorf(tok.line, ErrUnterminatedString, "")
		}
		c := t.src[t.pos]
		switch {
		case c == quote:
			if !triple {
				t.pos++
				tok.text = buf.String()
				return tok, nil
			}
			if t.peekByte(1) == quote && t.peekByte(2) == quote {
				t.pos += 3
				tok.text = buf.String()
				return tok, nil
			}
			buf.WriteByte(c)
			t.pos++
		case c == '\n':
			if !triple {
				return token{}, t.errorf(tok.line, ErrUnterminatedString, "")
			}
			buf.WriteByte(c)
			t.pos++
			t.line++
		case c == '\\':
			if t.pos+1 >= len(t.src) {
				return token{}, t.errorf(tok.line, ErrUnterminatedString, "")
			}
			if raw {
				// the backslash stays, but still protects the next
				// character
				next := t.src[t.pos+1]
				buf.WriteByte(c)
				buf.WriteByte(next)
				if next == '\n' {
					t.line++
				}
				t.pos += 2
				continue
			}
			if err := t.readEscape(&buf, bytesLiteral); err != nil {
				return token{}, err
			}
		default:
			buf.WriteByte(c)
			t.pos++
		}
	}
}

var simpleEscapes = map[byte]string{
	'\\': "\\", '\'': "'", '"': "\"",
	'a': "\a", 'b': "\b", 'f': "\f", 'n': "\n", 'r': "\r", 't': "\t", 'v': "\v",
}

// readEscape decodes the escape sequence at the current position.
// Named escapes do not exist in bytes literals.
func (t *tokenizer) readEscape(buf *strings.Builder, bytesLiteral bool) error {
	c := t.src[t.pos+1]
	if s, ok := simpleEscapes[c]; ok {
		buf.WriteString(s)
		t.pos += 2
		return nil
	}

	hexRune := func(digits int) bool {
		end := t.pos + 2 + digits
		if end > len(t.src) {
			return false
		}
		v, err := strconv.ParseUint(string(t.src[t.pos+2:end]), 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return false
		}
		buf.WriteRune(rune(v))
		t.pos = end
		return true
	}

	switch {
	case c == '\n':
		t.pos += 2
		t.line++
		return nil
	case c >= '0' && c <= '7':
		end := t.pos + 1
		for end < len(t.src) && end < t.pos+4 && t.src[end] >= '0' && t.src[end] <= '7' {
			end++
		}
		v, _ := strconv.ParseUint(string(t.src[t.pos+1:end]), 8, 32)
		buf.WriteRune(rune(v))
		t.pos = end
		return nil
	case c == 'x' && hexRune(2):
		return nil
	case c == 'u' && !bytesLiteral && hexRune(4):
		return nil
	case c == 'U' && !bytesLiteral && hexRune(8):
		return nil
	case c == 'N' && !bytesLiteral:
		return t.readNamedEscape(buf)
	}
	// unknown escapes are kept verbatim
	buf.WriteByte('\\')
	t.pos++
	return nil
}

// readNamedEscape decodes a \N{NAME} escape.
func (t *tokenizer) readNamedEscape(buf *strings.Builder) error {
	rest := t.src[t.pos+2:]
	end := strings.IndexAny(string(rest), "}\n")
	if len(rest) == 0 || rest[0] != '{' || end < 0 || rest[end] != '}' {
		return t.errorf(t.line, ErrSyntax, "malformed \\N character escape")
	}
	name := string(rest[1:end])
	r, ok := lookupRune(name)
	if !ok {
		return t.errorf(t.line, ErrUnknownName, "%q", name)
	}
	buf.WriteRune(r)
	t.pos += 2 + end + 1
	return nil
}

var (
	runeIndexOnce sync.Once
	runeIndex     map[string]rune
)

// lookupRune finds a character by its Unicode name, ignoring case.
func lookupRune(name string) (rune, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if hex, ok := strings.CutPrefix(name, "CJK UNIFIED IDEOGRAPH-"); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		return rune(v), err == nil && utf8.ValidRune(rune(v))
	}
	runeIndexOnce.Do(func() {
		runeIndex = make(map[string]rune)
		for r := rune(0); r <= unicode.MaxRune; r++ {
			if r >= 0xd800 && r <= 0xdfff {
				continue
			}
			// ranges are reported as "<CJK Ideograph>" and the like
			if n := runenames.Name(r); n != "" && n[0] != '<' {
				runeIndex[n] = r
			}
		}
	})
	r, ok := runeIndex[name]
	return r, ok
}
