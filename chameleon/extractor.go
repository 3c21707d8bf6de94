// Package chameleon extracts messages from Chameleon/Zope page
// templates: XML or HTML markup using the i18n and TAL attribute
// languages, with ${...} Python expressions embedded in text and
// attribute values.
package chameleon

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"golang.org/x/net/html"

	"github.com/snapcore/go-lingva"
	"github.com/snapcore/go-lingva/python"
)

const (
	I18nNS  = "http://xml.zope.org/namespaces/i18n"
	TalNS   = "http://xml.zope.org/namespaces/tal"
	MetalNS = "http://xml.zope.org/namespaces/metal"
)

var ErrUnboundPrefix = errors.New("namespace prefix is not bound")

// dynamicElement replaces unnamed sub-elements in message text.
const dynamicElement = "<dynamic element>"

var defaultNamespaces = map[string]string{
	"i18n":  I18nNS,
	"tal":   TalNS,
	"metal": MetalNS,
}

// i18nVocabulary are the attributes understood in the i18n namespace.
var i18nVocabulary = map[string]bool{
	"translate": true, "attributes": true, "domain": true, "context": true,
	"comment": true, "name": true, "source": true, "target": true,
	"data": true, "ignore": true, "ignore-attributes": true,
}

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

		nodes, err := parse(in.Filename, src.Text())
		if err != nil {
			yield(lingva.Message{}, err)
			return
		}

		w := &walker{
			filename:  in.Filename,
			firstLine: in.FirstLine,
			opts:      opts,
			table:     table,
			yield:     yield,
		}
		if opts != nil {
			w.filter = opts.Domain
		}
		err = w.walk(nodes, state{ns: defaultNamespaces}, nil, 0)
		if err != nil && err != errStopped {
			yield(lingva.Message{}, err)
		}
	}
}

// state is inherited down the element tree. It is copied, never
// modified, when an element overrides part of it.
type state struct {
	ns      map[string]string
	domain  string
	comment string
	context string
}

// element is a node with its attributes sorted by namespace.
type element struct {
	*node
	i18n  map[string]attribute
	tal   []attribute
	plain []attribute
	// comment is set when the element carries i18n:comment itself.
	comment bool
}

// sentence is a translated element seen by its direct children.
type sentence struct {
	text string
}

var errStopped = errors.New("stopped")

type walker struct {
	filename  string
	firstLine int
	opts      *lingva.Options
	table     lingva.KeywordTable
	filter    string
	yield     func(lingva.Message, error) bool
}

func (w *walker) errorf(line int, err error, format string, args ...interface{}) error {
	return &lingva.ParseError{
		File: w.filename,
		Line: line,
		Err:  fmt.Errorf("%w: "+format, append([]interface{}{err}, args...)...),
	}
}

func splitName(name string) (prefix, local string) {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return "", name
}

// resolve sorts the attributes of n by namespace and derives the state
// applying to n and its content.
func (w *walker) resolve(n *node, st state) (*element, state, error) {
	e := &element{node: n, i18n: make(map[string]attribute)}

	cloned := false
	for _, a := range n.attrs {
		prefix, local := splitName(a.name)
		switch {
		case a.name == "xmlns":
			local = ""
		case prefix != "xmlns":
			continue
		}
		if !cloned {
			st.ns = maps.Clone(st.ns)
			cloned = true
		}
		st.ns[local] = a.value
	}

	prefix, _ := splitName(n.name)
	elementNS := st.ns[prefix]

	for _, a := range n.attrs {
		prefix, local := splitName(a.name)
		if a.name == "xmlns" || prefix == "xmlns" {
			continue
		}
		var uri string
		if prefix == "" {
			if elementNS == TalNS || elementNS == I18nNS {
				uri = elementNS
			}
		} else {
			var bound bool
			uri, bound = st.ns[prefix]
			if bound && uri == "" && i18nVocabulary[local] {
				return nil, st, w.errorf(a.line, ErrUnboundPrefix, "%q in %s", prefix, a.name)
			}
		}
		switch uri {
		case I18nNS:
			e.i18n[local] = a
		case TalNS:
			e.tal = append(e.tal, attribute{name: local, value: a.value, line: a.line})
		case MetalNS:
		default:
			e.plain = append(e.plain, a)
		}
	}

	if a, ok := e.i18n["domain"]; ok {
		st.domain = strings.TrimSpace(a.value)
	}
	if a, ok := e.i18n["context"]; ok {
		st.context = strings.TrimSpace(a.value)
	}
	if a, ok := e.i18n["comment"]; ok {
		st.comment = normalize(a.value)
		e.comment = true
	}
	return e, st, nil
}

// normalize collapses whitespace runs to single spaces and trims the
// result.
func normalize(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r < 0x80 && isSpace(byte(r))
	}), " ")
}

// isExpression reports whether text is a single ${...} expression.
func isExpression(text string) bool {
	return strings.HasPrefix(text, "${") && closeBrace(text, 2) == len(text)-1
}

func (w *walker) active(st state) bool {
	return w.filter == "" || st.domain == w.filter
}

func (w *walker) emit(msg lingva.Message) error {
	msg.Location = lingva.Location{File: w.filename, Line: w.firstLine + msg.Location.Line}
	if !w.yield(msg, nil) {
		return errStopped
	}
	return nil
}

// message builds a message owned by e. notes are added after the
// default text note.
func (w *walker) message(e *element, st state, id, text string, line int, notes ...string) lingva.Message {
	var comments []string
	if e.comment {
		comments = append(comments, st.comment)
	}
	if text != "" && text != id {
		comments = append(comments, "Default: "+text)
	}
	comments = append(comments, notes...)
	if !e.comment && st.comment != "" {
		comments = append(comments, st.comment)
	}
	msg := lingva.Message{
		Context:  st.context,
		ID:       id,
		Comment:  strings.Join(comments, "\n"),
		Location: lingva.Location{Line: line},
	}
	lingva.CheckFormat(&msg)
	return msg
}

func (w *walker) walk(nodes []*node, st state, parent *sentence, line int) error {
	for _, n := range nodes {
		var err error
		if n.isText() {
			at := line
			if at == 0 {
				at = n.line
			}
			err = w.expressions(st, n.text, at)
		} else {
			err = w.element(n, st, parent)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) element(n *node, parentState state, parent *sentence) error {
	e, st, err := w.resolve(n, parentState)
	if err != nil {
		return err
	}

	if err := w.attributes(e, st); err != nil {
		return err
	}
	for _, a := range e.tal {
		for _, expr := range controlExpressions(a.name, a.value) {
			if err := w.python(st, html.UnescapeString(expr), n.line); err != nil {
				return err
			}
		}
	}
	for _, a := range e.plain {
		if err := w.expressions(st, a.value, n.line); err != nil {
			return err
		}
	}

	translate, translated := e.i18n["translate"]
	var text string
	var named []string
	var self *sentence
	if translated {
		if text, named, err = w.composite(n, st); err != nil {
			return err
		}
		self = &sentence{text: text}
	}

	if err := w.walk(n.children, st, self, n.line); err != nil {
		return err
	}

	if !translated || !w.active(st) {
		return nil
	}
	id := strings.TrimSpace(translate.value)
	if id == "" {
		if text == "" || isExpression(text) {
			return nil
		}
		id = text
	}
	var notes []string
	if parent != nil {
		notes = append(notes, `Used in sentence: "`+parent.text+`"`)
	}
	notes = append(notes, named...)
	return w.emit(w.message(e, st, id, text, translate.line, notes...))
}

// attributes handles i18n:attributes="attr [msgid][; attr [msgid]]".
func (w *walker) attributes(e *element, st state) error {
	spec, ok := e.i18n["attributes"]
	if !ok || !w.active(st) {
		return nil
	}
	for _, clause := range splitClauses(spec.value) {
		name, id := cutWord(clause)
		if name == "" {
			continue
		}
		id, _ = cutWord(id)
		a, found := e.attr(name)
		text := normalize(a.value)
		if !found {
			a.line = spec.line
		}
		if id == "" {
			if text == "" || isExpression(text) {
				continue
			}
			id = text
		}
		if err := w.emit(w.message(e, st, id, text, a.line)); err != nil {
			return err
		}
	}
	return nil
}

// composite returns the message text of a translated element, and the
// notes describing its named, translated sub-elements.
func (w *walker) composite(n *node, st state) (string, []string, error) {
	var b strings.Builder
	var named []string
	for _, child := range n.children {
		if child.isText() {
			b.WriteString(child.text)
			continue
		}
		ce, cst, err := w.resolve(child, st)
		if err != nil {
			return "", nil, err
		}
		name := strings.TrimSpace(ce.i18n["name"].value)
		if name == "" {
			b.WriteString(dynamicElement)
			continue
		}
		placeholder := "${" + name + "}"
		b.WriteString(placeholder)
		if _, ok := ce.i18n["translate"]; ok {
			text, _, err := w.composite(child, cst)
			if err != nil {
				return "", nil, err
			}
			named = append(named, "Canonical text for "+placeholder+` is: "`+text+`"`)
		}
	}
	return normalize(b.String()), named, nil
}

// expressions scans the ${...} fragments of a text or attribute value.
func (w *walker) expressions(st state, value string, line int) error {
	for expr, err := range Expressions(html.UnescapeString(value)) {
		if err != nil {
			return w.errorf(line, err, "%q", value)
		}
		if err := w.python(st, expr, line); err != nil {
			return err
		}
	}
	return nil
}

// python extracts the translation calls of an expression.
func (w *walker) python(st state, expr string, line int) error {
	for _, alt := range alternatives(expr) {
		code, ok := pythonSource(alt)
		if !ok || strings.TrimSpace(code) == "" {
			continue
		}
		calls, err := python.ScanExpression(code, w.table)
		if err != nil {
			return w.errorf(line, err, "%q", code)
		}
		if !w.active(st) {
			continue
		}
		for _, call := range calls {
			if w.opts.SkipDomain(call.Domain) {
				continue
			}
			msg := call.Message(st.comment, lingva.Location{Line: line})
			if msg.Context == "" {
				msg.Context = st.context
			}
			if err := w.emit(msg); err != nil {
				return err
			}
		}
	}
	return nil
}
