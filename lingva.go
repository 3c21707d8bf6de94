// Package lingva extracts translatable messages from source files.
//
// Each supported source dialect is handled by an Extractor. Extractors
// produce a lazy sequence of Messages which callers aggregate into a
// message catalog (see the catalog sub-package).
package lingva

import (
	"io"
	"iter"
	"slices"
	"strings"
)

// Message is a single translatable unit found in a source file.
type Message struct {
	Context string
	ID      string
	Plural  string

	// Flags are short tags such as "c-format" or "fuzzy". The list is
	// ordered and holds no duplicates.
	Flags []string

	// Comment holds notes supplied by the extractor ("Default: ...")
	// and source comments, newline separated.
	Comment           string
	TranslatorComment string

	Location Location
}

type Location struct {
	File string
	Line int
}

// Messages is the result of an extraction. A non-nil error is always
// the last element of the sequence and invalidates the whole file.
type Messages = iter.Seq2[Message, error]

// Extractor extracts messages from one kind of source file.
type Extractor interface {
	Extract(in Input, opts *Options) Messages
}

// Input describes the source handed to an extractor.
type Input struct {
	// Filename is used for locations, and to read the source when
	// neither Source nor Data is set.
	Filename string

	// Source provides already decoded (UTF-8) text.
	Source io.Reader

	// Data provides raw bytes. This is only kept for older callers;
	// extractors expecting text log a warning and decode it.
	Data []byte

	// FirstLine is added to every line number reported.
	FirstLine int
}

// CommentTag selects which source comments are attached to messages.
type CommentTag struct {
	All bool
	Tag string
}

var (
	NoComments  = CommentTag{}
	AllComments = CommentTag{All: true}
)

// TaggedComments only accepts comments starting with tag.
func TaggedComments(tag string) CommentTag {
	return CommentTag{Tag: tag}
}

// Enabled reports whether any comment can be accepted.
func (t CommentTag) Enabled() bool {
	return t.All || t.Tag != ""
}

// Accept checks a single comment line and returns it with the tag
// removed.
func (t CommentTag) Accept(line string) (string, bool) {
	switch {
	case t.All:
		return line, true
	case t.Tag == "":
		return "", false
	case strings.HasPrefix(line, t.Tag):
		return strings.TrimSpace(line[len(t.Tag):]), true
	}
	return "", false
}

type Options struct {
	// Keywords are extra keyword specifications in the
	// [PKG.]NAME[:ARG,...] syntax, applied on top of the defaults.
	Keywords []string

	// Domain, when set, drops messages belonging to another domain.
	Domain string

	CommentTag CommentTag
}

// KeywordTable returns the default keywords extended by opts.Keywords.
func (opts *Options) KeywordTable() (KeywordTable, error) {
	if opts == nil {
		return DefaultKeywords(), nil
	}
	return NewKeywordTable(opts.Keywords)
}

// SkipDomain reports whether a message of the given domain should be
// dropped.
func (opts *Options) SkipDomain(domain string) bool {
	return opts != nil && opts.Domain != "" && domain != "" && domain != opts.Domain
}

// AddFlag appends flag unless it is already present.
func (m *Message) AddFlag(flag string) {
	if !slices.Contains(m.Flags, flag) {
		m.Flags = append(m.Flags, flag)
	}
}
