package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/snapcore/go-lingva"
)

var (
	ErrSyntax       = errors.New("syntax error")
	ErrBadString    = errors.New("malformed string")
	ErrDuplicateKey = errors.New("duplicate message")
)

// ParseFile reads a PO or POT file.
func ParseFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := parse(f)
	if perr, ok := err.(*lingva.ParseError); ok {
		perr.File = path
	}
	return c, err
}

// Parse reads a catalog in PO format. Obsolete "#~" entries are
// skipped. The header entry, if any, is moved into the catalog header.
func Parse(r io.Reader) (*Catalog, error) {
	return parse(r)
}

// field is the keyword a continuation string belongs to.
type field int

const (
	fieldNone field = iota
	fieldCtxt
	fieldID
	fieldPlural
	fieldStr
	fieldStrPlural
)

type poParser struct {
	c     *Catalog
	entry *Entry
	field field
	form  int
	// hasID is set once the current entry has its msgid keyword.
	hasID  bool
	hasStr bool
	line   int
	first  bool
}

func parse(r io.Reader) (*Catalog, error) {
	p := &poParser{c: New(Header{}), entry: &Entry{}, first: true}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		p.line++
		if err := p.feed(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, &lingva.ParseError{Line: p.line, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := p.flush(); err != nil {
		return nil, &lingva.ParseError{Line: p.line, Err: err}
	}
	return p.c, nil
}

func (p *poParser) feed(line string) error {
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, "#~"), strings.HasPrefix(line, "#|"):
		return nil
	case strings.HasPrefix(line, "#"):
		if err := p.startComment(); err != nil {
			return err
		}
		p.comment(line)
		return nil
	case strings.HasPrefix(line, `"`):
		s, err := unquote(line)
		if err != nil {
			return err
		}
		return p.continuation(s)
	}

	kw, rest, _ := strings.Cut(line, " ")
	if !strings.HasPrefix(kw, "msg") {
		return fmt.Errorf("%w: unexpected %q", ErrSyntax, kw)
	}
	s, err := unquote(strings.TrimSpace(rest))
	if err != nil {
		return err
	}
	switch {
	case kw == "msgctxt":
		if err := p.startComment(); err != nil {
			return err
		}
		p.entry.MsgCtxt, p.field = s, fieldCtxt
	case kw == "msgid":
		if p.hasID {
			if err := p.flush(); err != nil {
				return err
			}
		}
		p.entry.MsgID, p.field, p.hasID = s, fieldID, true
	case kw == "msgid_plural" && p.hasID:
		p.entry.MsgIDPlural, p.field = s, fieldPlural
	case kw == "msgstr" && p.hasID:
		p.entry.MsgStr, p.field, p.hasStr = s, fieldStr, true
	case strings.HasPrefix(kw, "msgstr[") && strings.HasSuffix(kw, "]") && p.hasID:
		n, err := strconv.Atoi(kw[len("msgstr[") : len(kw)-1])
		if err != nil || n != len(p.entry.MsgStrPlural) {
			return fmt.Errorf("%w: unexpected %s", ErrSyntax, kw)
		}
		p.entry.MsgStrPlural = append(p.entry.MsgStrPlural, s)
		p.field, p.form, p.hasStr = fieldStrPlural, n, true
	default:
		return fmt.Errorf("%w: unexpected %q", ErrSyntax, kw)
	}
	return nil
}

// startComment finishes the current entry when a comment or context
// follows its translation.
func (p *poParser) startComment() error {
	if p.hasStr {
		return p.flush()
	}
	return nil
}

func (p *poParser) comment(line string) {
	e := p.entry
	text := strings.TrimPrefix(line[1:], " ")
	switch {
	case strings.HasPrefix(line, "#."):
		e.Comments = appendLine(e.Comments, strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "#:"):
		for _, ref := range strings.Fields(line[2:]) {
			e.Occurrences = append(e.Occurrences, parseReference(ref))
		}
	case strings.HasPrefix(line, "#,"):
		for _, flag := range strings.Split(line[2:], ",") {
			if flag = strings.TrimSpace(flag); flag != "" && !e.HasFlag(flag) {
				e.Flags = append(e.Flags, flag)
			}
		}
	default:
		e.TranslatorComments = appendLine(e.TranslatorComments, text)
	}
}

// appendLine extends the single comment block of a parsed entry.
func appendLine(block []string, line string) []string {
	if len(block) == 0 {
		return []string{line}
	}
	block[0] += "\n" + line
	return block
}

func parseReference(ref string) Occurrence {
	if i := strings.LastIndexByte(ref, ':'); i > 0 {
		if _, err := strconv.Atoi(ref[i+1:]); err == nil {
			return Occurrence{File: ref[:i], Line: ref[i+1:]}
		}
	}
	return Occurrence{File: ref}
}

func (p *poParser) continuation(s string) error {
	e := p.entry
	switch p.field {
	case fieldCtxt:
		e.MsgCtxt += s
	case fieldID:
		e.MsgID += s
	case fieldPlural:
		e.MsgIDPlural += s
	case fieldStr:
		e.MsgStr += s
	case fieldStrPlural:
		e.MsgStrPlural[p.form] += s
	default:
		return fmt.Errorf("%w: string without keyword", ErrSyntax)
	}
	return nil
}

// flush stores the current entry and starts a new one.
func (p *poParser) flush() error {
	e := p.entry
	defer func() {
		p.entry, p.field, p.hasID, p.hasStr = &Entry{}, fieldNone, false, false
	}()
	if !p.hasID {
		if p.first && len(e.TranslatorComments) > 0 {
			p.c.Header.Comment = e.TranslatorComment()
		}
		return nil
	}
	if p.first && e.MsgID == "" && e.MsgCtxt == "" {
		p.first = false
		p.c.Header.Comment = e.TranslatorComment()
		p.c.Header.Metadata = parseMetadata(e.MsgStr)
		return nil
	}
	p.first = false
	if _, added := p.c.append(e); !added {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, e.MsgID)
	}
	return nil
}

func parseMetadata(s string) []Field {
	var fields []Field
	for _, line := range strings.Split(s, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields = append(fields, Field{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return fields
}

// unquote decodes a single PO string literal.
func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("%w: %s", ErrBadString, s)
	}
	s = s[1 : len(s)-1]
	if !strings.ContainsAny(s, `\"`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			return "", fmt.Errorf("%w: unescaped quote", ErrBadString)
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i == len(s) {
			return "", fmt.Errorf("%w: trailing backslash", ErrBadString)
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '\\', '"':
			b.WriteByte(s[i])
		default:
			return "", fmt.Errorf("%w: unknown escape \\%c", ErrBadString, s[i])
		}
	}
	return b.String(), nil
}
