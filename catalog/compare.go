package catalog

import (
	"slices"
	"strings"
)

// Identical reports whether two catalogs hold the same messages in the
// same order. Header metadata and translations are ignored, and comments
// compare equal when they only differ in whitespace.
func Identical(a, b *Catalog) bool {
	if len(a.Entries) != len(b.Entries) {
		return false
	}
	for i, ea := range a.Entries {
		if !sameEntry(ea, b.Entries[i]) {
			return false
		}
	}
	return true
}

func sameEntry(a, b *Entry) bool {
	return a.MsgCtxt == b.MsgCtxt &&
		a.MsgID == b.MsgID &&
		a.MsgIDPlural == b.MsgIDPlural &&
		collapse(a.Comment()) == collapse(b.Comment()) &&
		collapse(a.TranslatorComment()) == collapse(b.TranslatorComment()) &&
		slices.Equal(a.Occurrences, b.Occurrences)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripLineNumbers returns a copy of e whose occurrences only name
// files. Repeated files are listed once. e is not modified.
func StripLineNumbers(e *Entry) *Entry {
	stripped := *e
	stripped.Occurrences = nil
	for _, occ := range e.Occurrences {
		occ.Line = ""
		if !slices.Contains(stripped.Occurrences, occ) {
			stripped.Occurrences = append(stripped.Occurrences, occ)
		}
	}
	return &stripped
}

// StripLineNumbers returns a copy of c with StripLineNumbers applied to
// every entry.
func (c *Catalog) StripLineNumbers() *Catalog {
	out := New(c.Header)
	for _, e := range c.Entries {
		out.append(StripLineNumbers(e))
	}
	return out
}
