// Package catalog holds message catalogs in memory and reads and writes
// them in the gettext PO format.
package catalog

import (
	"slices"
	"strconv"
	"strings"

	"github.com/snapcore/go-lingva"
)

// Occurrence is a "#:" reference. Line is kept as text and is empty
// when line numbers are stripped.
type Occurrence struct {
	File string
	Line string
}

func (o Occurrence) String() string {
	if o.Line == "" {
		return o.File
	}
	return o.File + ":" + o.Line
}

// Entry is a single catalog message. An empty MsgCtxt or MsgIDPlural
// means the field is absent.
type Entry struct {
	MsgCtxt     string
	MsgID       string
	MsgIDPlural string
	MsgStr      string
	// MsgStrPlural holds the msgstr[N] forms of plural entries.
	MsgStrPlural []string

	// Comments are extracted comments ("#."), one per distinct source.
	Comments []string
	// TranslatorComments are "# " comments.
	TranslatorComments []string
	Occurrences        []Occurrence
	Flags              []string
}

// Comment returns the extracted comments as a single text.
func (e *Entry) Comment() string {
	return strings.Join(e.Comments, "\n")
}

func (e *Entry) TranslatorComment() string {
	return strings.Join(e.TranslatorComments, "\n")
}

func (e *Entry) HasFlag(flag string) bool {
	return slices.Contains(e.Flags, flag)
}

// Field is a header metadata field.
type Field struct {
	Name  string
	Value string
}

// Header describes the header entry of a catalog.
type Header struct {
	// Comment is the free-form text above the header entry, written as
	// "# " lines.
	Comment  string
	Metadata []Field
}

type key struct {
	ctxt, id string
}

// Catalog is an ordered set of entries, unique on (context, msgid).
type Catalog struct {
	Header  Header
	Entries []*Entry

	index map[key]*Entry
}

func New(header Header) *Catalog {
	return &Catalog{
		Header: header,
		index:  make(map[key]*Entry),
	}
}

func (c *Catalog) Len() int {
	return len(c.Entries)
}

// Lookup returns the entry for msgid in the given context, or nil.
func (c *Catalog) Lookup(ctxt, msgid string) *Entry {
	if c.index == nil {
		c.reindex()
	}
	return c.index[key{ctxt, msgid}]
}

func (c *Catalog) reindex() {
	c.index = make(map[key]*Entry, len(c.Entries))
	for _, e := range c.Entries {
		c.index[key{e.MsgCtxt, e.MsgID}] = e
	}
}

// Metadata returns the value of a header field.
func (c *Catalog) Metadata(name string) (string, bool) {
	for _, f := range c.Header.Metadata {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// append adds e as a new entry, or returns the existing entry with the
// same key.
func (c *Catalog) append(e *Entry) (*Entry, bool) {
	if old := c.Lookup(e.MsgCtxt, e.MsgID); old != nil {
		return old, false
	}
	c.Entries = append(c.Entries, e)
	c.index[key{e.MsgCtxt, e.MsgID}] = e
	return e, true
}

// Add merges an extracted message into the catalog. A message for a
// known (context, msgid) adds its location, its comments when they are
// new, and its flags to the existing entry.
func (c *Catalog) Add(msg lingva.Message) *Entry {
	e, _ := c.append(&Entry{
		MsgCtxt:     msg.Context,
		MsgID:       msg.ID,
		MsgIDPlural: msg.Plural,
	})
	if e.MsgIDPlural == "" {
		e.MsgIDPlural = msg.Plural
	}
	if msg.Location.File != "" {
		occ := Occurrence{File: msg.Location.File}
		if msg.Location.Line > 0 {
			occ.Line = strconv.Itoa(msg.Location.Line)
		}
		if !slices.Contains(e.Occurrences, occ) {
			e.Occurrences = append(e.Occurrences, occ)
		}
	}
	if msg.Comment != "" && !slices.Contains(e.Comments, msg.Comment) {
		e.Comments = append(e.Comments, msg.Comment)
	}
	if msg.TranslatorComment != "" && !slices.Contains(e.TranslatorComments, msg.TranslatorComment) {
		e.TranslatorComments = append(e.TranslatorComments, msg.TranslatorComment)
	}
	for _, flag := range msg.Flags {
		if !e.HasFlag(flag) {
			e.Flags = append(e.Flags, flag)
		}
	}
	return e
}
