// Package python extracts messages from Python source code.
//
// The source is tokenized, not parsed: calls to known translation
// functions are located in the token stream and their arguments are
// evaluated when they are string constants.
package python

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/snapcore/go-lingva"
)

const bytesWarning = "Python extractor called with bytes input. Please update your plugin to submit text instead."

type Extractor struct{}

func (Extractor) Extract(in lingva.Input, opts *lingva.Options) lingva.Messages {
	return func(yield func(lingva.Message, error) bool) {
		table, err := opts.KeywordTable()
		if err != nil {
			yield(lingva.Message{}, err)
			return
		}
		src, err := lingva.OpenSource(in)
		if err != nil {
			yield(lingva.Message{}, &lingva.ParseError{File: in.Filename, Err: err})
			return
		}
		defer src.Close()

		data := src.Text()
		if src.Legacy {
			log.Warn().Str("file", in.Filename).Msg(bytesWarning)
			data = lingva.DecodeLegacy(data)
		}

		s := &scanner{
			tok:   newTokenizer(in.Filename, data),
			table: table,
		}
		if opts != nil {
			s.tag = opts.CommentTag
		}
		s.emit = func(p *pending) bool {
			if opts.SkipDomain(p.call.Domain) {
				return true
			}
			loc := lingva.Location{File: in.Filename, Line: in.FirstLine + p.line}
			return yield(p.call.Message(p.comment, loc), nil)
		}
		if err := s.run(); err != nil {
			yield(lingva.Message{}, err)
		}
	}
}

// ScanExpression finds the translation calls in a single Python
// expression, as embedded in templates.
func ScanExpression(expr string, table lingva.KeywordTable) ([]lingva.Call, error) {
	var calls []lingva.Call
	s := &scanner{
		// The parentheses allow the expression to span lines. The
		// newline protects the closing one from trailing comments.
		tok:   newTokenizer("<expression>", []byte("("+expr+"\n)")),
		table: table,
		emit: func(p *pending) bool {
			calls = append(calls, p.call)
			return true
		},
	}
	if err := s.run(); err != nil {
		var perr *lingva.ParseError
		if errors.As(err, &perr) {
			return nil, perr.Err
		}
		return nil, err
	}
	return calls, nil
}

type comment struct {
	text string
	line int
}

// pending is a message waiting for the end of its logical line, where
// a trailing comment may still show up.
type pending struct {
	call    lingva.Call
	line    int
	endLine int
	comment string
}

type scanner struct {
	tok   *tokenizer
	table lingva.KeywordTable
	tag   lingva.CommentTag
	emit  func(*pending) bool

	peeked *token
	// history holds the last significant tokens, most recent last.
	history [3]token
	// lastLine is the line of the last significant token.
	lastLine int

	block    []comment
	trailing map[int]string
	pending  []*pending
}

func (s *scanner) next() (token, error) {
	var t token
	if s.peeked != nil {
		t, s.peeked = *s.peeked, nil
	} else {
		var err error
		if t, err = s.tok.next(); err != nil {
			return token{}, err
		}
	}
	if t.kind != tokComment && t.kind != tokNL && t.kind != tokNewline {
		s.lastLine = t.line
	}
	return t, nil
}

func (s *scanner) peek() (token, error) {
	if s.peeked == nil {
		t, err := s.tok.next()
		if err != nil {
			return token{}, err
		}
		s.peeked = &t
	}
	return *s.peeked, nil
}

func (s *scanner) remember(t token) {
	copy(s.history[:], s.history[1:])
	s.history[2] = t
}

// qualifier describes what the current name was selected from; see
// lingva.Keyword.Match.
func (s *scanner) qualifier() string {
	dot, owner, before := s.history[2], s.history[1], s.history[0]
	if dot.kind != tokOp || dot.text != "." {
		return ""
	}
	if owner.kind == tokName && !(before.kind == tokOp && before.text == ".") {
		return owner.text
	}
	return "."
}

func (s *scanner) run() error {
	for {
		t, err := s.next()
		if err != nil {
			return err
		}
		switch t.kind {
		case tokEOF:
			s.flush()
			return nil
		case tokNewline:
			if !s.flush() {
				return nil
			}
			continue
		case tokNL:
			continue
		case tokComment:
			s.addComment(t, s.lastLine != t.line)
			continue
		case tokName:
			ok, err := s.tryCall(t)
			if err != nil {
				return err
			}
			if ok {
				s.remember(token{kind: tokOp, text: ")"})
				continue
			}
		}
		s.remember(t)
	}
}

func (s *scanner) addComment(c token, standalone bool) {
	if !standalone {
		if s.trailing == nil {
			s.trailing = make(map[int]string)
		}
		s.trailing[c.line] = c.text
		return
	}
	if n := len(s.block); n > 0 && s.block[n-1].line == c.line-1 {
		s.block = append(s.block, comment{c.text, c.line})
	} else {
		s.block = []comment{{c.text, c.line}}
	}
}

// precedingComment returns the accepted comment lines directly above
// line.
func (s *scanner) precedingComment(line int) string {
	n := len(s.block)
	if !s.tag.Enabled() || n == 0 || s.block[n-1].line != line-1 {
		return ""
	}
	var parts []string
	for i := n - 1; i >= 0; i-- {
		text, ok := s.tag.Accept(s.block[i].text)
		if !ok {
			break
		}
		parts = append([]string{text}, parts...)
	}
	return strings.Join(parts, " ")
}

func (s *scanner) flush() bool {
	pending, trailing := s.pending, s.trailing
	s.pending, s.trailing = nil, nil
	for _, p := range pending {
		if text, ok := trailing[p.endLine]; ok {
			if text, ok = s.tag.Accept(text); ok && text != "" {
				if p.comment != "" {
					p.comment += " "
				}
				p.comment += text
			}
		}
		if !s.emit(p) {
			return false
		}
	}
	return true
}

// tryCall checks whether name starts a keyword call, and consumes the
// call if it does.
func (s *scanner) tryCall(name token) (bool, error) {
	next, err := s.peek()
	if err != nil {
		return false, err
	}
	if next.kind != tokOp || next.text != "(" {
		return false, nil
	}
	k := s.table.Lookup(s.qualifier(), name.text)
	if k == nil {
		return false, nil
	}
	s.next()

	args, endLine, err := s.arguments()
	if err != nil {
		return false, err
	}
	call, err := k.Extract(args)
	if err != nil {
		// not a message; its arguments have been skipped as well
		return true, nil
	}
	s.pending = append(s.pending, &pending{
		call:    call,
		line:    name.line,
		endLine: endLine,
		comment: s.precedingComment(name.line),
	})
	return true, nil
}

// operatorWords may follow a string literal.
var operatorWords = map[string]bool{
	"if": true, "else": true, "in": true, "not": true, "is": true,
	"and": true, "or": true, "for": true, "async": true,
}

// arguments reads call arguments up to the closing parenthesis and
// returns them with the line of that parenthesis.
func (s *scanner) arguments() ([]lingva.Arg, int, error) {
	var args []lingva.Arg
	var cur []token
	var prev token
	depth := 0
	for {
		t, err := s.next()
		if err != nil {
			return nil, 0, err
		}
		switch t.kind {
		case tokNL, tokComment:
			continue
		case tokEOF, tokNewline:
			return nil, 0, s.tok.errorf(t.line, ErrUnexpectedEOF, "")
		}
		if prev.kind == tokString && (t.kind == tokNumber || (t.kind == tokName && !operatorWords[t.text])) {
			return nil, 0, s.tok.errorf(t.line, ErrSyntax, "unexpected %q after string", t.text)
		}
		prev = t

		if t.kind == tokOp {
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth == 0 {
					if len(cur) > 0 {
						args = append(args, makeArg(cur))
					}
					return args, t.line, nil
				}
				depth--
			case ",":
				if depth == 0 {
					if len(cur) > 0 {
						args = append(args, makeArg(cur))
					}
					cur = nil
					continue
				}
			}
		}
		cur = append(cur, t)
	}
}

func makeArg(toks []token) lingva.Arg {
	var arg lingva.Arg
	if len(toks) > 2 && toks[0].kind == tokName && toks[1].kind == tokOp && toks[1].text == "=" {
		arg.Name = toks[0].text
		toks = toks[2:]
	}
	value, err := stringConstant(toks)
	if err == nil {
		arg.Value = value
		arg.Literal = true
	}
	return arg
}

// stringConstant evaluates a token sequence representing a string
// constant.
//
// Adjacent literals, concatenation with + and parentheses are
// supported.
func stringConstant(toks []token) (string, error) {
	p := constParser{toks: toks}
	s, err := p.expr()
	if err != nil {
		return "", err
	}
	if p.pos != len(toks) {
		return "", lingva.ErrNotString
	}
	return s, nil
}

type constParser struct {
	toks []token
	pos  int
}

func (p *constParser) isOp(op string) bool {
	return p.pos < len(p.toks) && p.toks[p.pos].kind == tokOp && p.toks[p.pos].text == op
}

func (p *constParser) expr() (string, error) {
	left, err := p.term()
	if err != nil {
		return "", err
	}
	for p.isOp("+") {
		p.pos++
		right, err := p.term()
		if err != nil {
			return "", err
		}
		left += right
	}
	return left, nil
}

func (p *constParser) term() (string, error) {
	if p.isOp("(") {
		p.pos++
		s, err := p.expr()
		if err != nil {
			return "", err
		}
		if !p.isOp(")") {
			return "", lingva.ErrNotString
		}
		p.pos++
		return s, nil
	}

	var buf strings.Builder
	start := p.pos
	for p.pos < len(p.toks) && p.toks[p.pos].kind == tokString {
		if p.toks[p.pos].fstring {
			return "", lingva.ErrNotString
		}
		buf.WriteString(p.toks[p.pos].text)
		p.pos++
	}
	if p.pos == start {
		return "", lingva.ErrNotString
	}
	return buf.String(), nil
}
