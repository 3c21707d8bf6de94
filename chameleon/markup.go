package chameleon

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/snapcore/go-lingva"
)

var (
	ErrInvalidUTF8      = errors.New("invalid UTF-8 sequence")
	ErrUnexpectedEndTag = errors.New("unexpected end tag")
	ErrUnclosedElement  = errors.New("element is never closed")
)

// voidElements never have content and need no end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// rawTextElements keep their content as text. Other elements that HTML
// treats as raw text or RCDATA (title, textarea, noscript, ...) hold
// template markup like any element.
var rawTextElements = map[string]bool{"script": true, "style": true}

type attribute struct {
	// name is the qualified name as written.
	name string
	// value is the raw value, without quotes and with character
	// references left alone.
	value string
	line  int
}

// node is an element, or a text node when name is empty.
type node struct {
	name     string
	attrs    []attribute
	children []*node
	text     string
	line     int
}

func (n *node) isText() bool {
	return n.name == ""
}

func (n *node) attr(name string) (attribute, bool) {
	for _, a := range n.attrs {
		if a.name == name {
			return a, true
		}
	}
	return attribute{}, false
}

// parse reads a template into a list of top level nodes. Markup is
// tokenized leniently (HTML entities, undeclared prefixes, stray "<"
// are accepted), but elements must be properly nested and closed.
func parse(filename string, data []byte) ([]*node, error) {
	if line := lingva.InvalidUTF8(data); line > 0 {
		return nil, &lingva.ParseError{File: filename, Line: line, Err: ErrInvalidUTF8}
	}

	root := &node{}
	stack := []*node{root}
	line := 1
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		tt := z.Next()
		raw := z.Raw()
		top := stack[len(stack)-1]
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, &lingva.ParseError{File: filename, Line: line, Err: err}
			}
			if n := len(stack); n > 1 {
				open := stack[n-1]
				return nil, &lingva.ParseError{
					File: filename,
					Line: open.line,
					Err:  fmt.Errorf("%w: <%s>", ErrUnclosedElement, open.name),
				}
			}
			return root.children, nil
		case html.TextToken:
			top.children = append(top.children, &node{text: string(raw), line: line})
		case html.StartTagToken, html.SelfClosingTagToken:
			n := parseTag(raw, line)
			top.children = append(top.children, n)
			name := strings.ToLower(n.name)
			if tt == html.StartTagToken && !rawTextElements[name] {
				z.NextIsNotRawText()
			}
			if tt == html.StartTagToken && !voidElements[name] {
				stack = append(stack, n)
			}
		case html.EndTagToken:
			name := endTagName(raw)
			i := len(stack) - 1
			for i > 0 && !strings.EqualFold(stack[i].name, name) {
				i--
			}
			switch {
			case i > 0:
				// elements left open inside are closed implicitly
				stack = stack[:i]
			case voidElements[strings.ToLower(name)]:
			default:
				return nil, &lingva.ParseError{
					File: filename,
					Line: line,
					Err:  fmt.Errorf("%w: </%s>", ErrUnexpectedEndTag, name),
				}
			}
		}
		line += bytes.Count(raw, []byte("\n"))
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func endTagName(raw []byte) string {
	s := strings.TrimPrefix(string(raw), "</")
	end := 0
	for end < len(s) && !isSpace(s[end]) && s[end] != '>' {
		end++
	}
	return s[:end]
}

// parseTag reads the name and attributes of a start tag, keeping the
// line each attribute starts on.
func parseTag(raw []byte, line int) *node {
	s := string(raw)
	n := &node{line: line}

	i := 1
	for i < len(s) && !isSpace(s[i]) && s[i] != '/' && s[i] != '>' {
		i++
	}
	n.name = s[1:i]

	for i < len(s) {
		c := s[i]
		if isSpace(c) || c == '/' || c == '>' {
			if c == '\n' {
				line++
			}
			i++
			continue
		}

		start := i
		for i < len(s) && !isSpace(s[i]) && s[i] != '=' && s[i] != '>' && s[i] != '/' {
			i++
		}
		a := attribute{name: s[start:i], line: line}

		j := i
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j < len(s) && s[j] == '=' {
			line += strings.Count(s[i:j], "\n")
			i = j + 1
			for i < len(s) && isSpace(s[i]) {
				if s[i] == '\n' {
					line++
				}
				i++
			}
			var value string
			if i < len(s) && (s[i] == '"' || s[i] == '\'') {
				quote := s[i]
				end := strings.IndexByte(s[i+1:], quote)
				if end < 0 {
					end = len(s) - i - 1
				}
				value = s[i+1 : i+1+end]
				i += end + 2
			} else {
				vstart := i
				for i < len(s) && !isSpace(s[i]) && s[i] != '>' {
					i++
				}
				value = s[vstart:i]
			}
			a.value = value
			line += strings.Count(value, "\n")
		}
		n.attrs = append(n.attrs, a)
	}
	return n
}
