package catalog

import (
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/template"
)

// wrapWidth is the maximum width of "#:" reference lines.
const wrapWidth = 79

type WriteOptions struct {
	// NoLocation omits "#:" references.
	NoLocation bool
	// NoLineNumbers writes references as file names only.
	NoLineNumbers bool
	// SortByMsgID orders entries by msgid, then context.
	SortByMsgID bool
	// SortByFile orders entries by their first reference.
	SortByFile bool
}

const poTemplateData = `{{ range .Header -}}
#{{ if . }} {{ . }}{{ end }}
{{ end -}}
#, fuzzy
msgid ""
msgstr ""
{{ range .Metadata -}}
{{ . }}
{{ end -}}
{{ range .Entries -}}
{{ "\n" -}}
{{ range .TranslatorComments -}}
#{{ if . }} {{ . }}{{ end }}
{{ end -}}
{{ range .Comments -}}
#. {{ . }}
{{ end -}}
{{ range .Positions -}}
#: {{ . }}
{{ end -}}
{{ if .Flags -}}
#, {{ .Flags }}
{{ end -}}
{{ if .MsgCtxt -}}
msgctxt {{ .MsgCtxt }}
{{ end -}}
msgid {{ .MsgID }}
{{ if .MsgIDPlural -}}
msgid_plural {{ .MsgIDPlural }}
{{ range $i, $s := .MsgStrPlural -}}
msgstr[{{ $i }}] {{ $s }}
{{ end -}}
{{ else -}}
msgstr {{ .MsgStr }}
{{ end -}}
{{ end -}}
`

var poTemplate = template.Must(template.New("po").Parse(poTemplateData))

type entryData struct {
	MsgCtxt      string
	MsgID        string
	MsgIDPlural  string
	MsgStr       string
	MsgStrPlural []string

	TranslatorComments []string
	Comments           []string
	Positions          []string
	Flags              string
}

// quote renders s as one or more PO string literals. Multi-line strings
// start with an empty literal and break after each newline.
func quote(s string) string {
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 1 {
		return escape(lines[0])
	}
	quoted := []string{`""`}
	for _, line := range lines {
		quoted = append(quoted, escape(line))
	}
	return strings.Join(quoted, "\n")
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escape(s string) string {
	return `"` + escaper.Replace(s) + `"`
}

// commentLines splits multi-line comments so that every line gets its
// own comment marker.
func commentLines(comments []string) []string {
	var lines []string
	for _, c := range comments {
		lines = append(lines, strings.Split(c, "\n")...)
	}
	return lines
}

// positions lays out references on lines no wider than wrapWidth.
func positions(occs []Occurrence) []string {
	var lines []string
	var seen []string
	line := ""
	for _, occ := range occs {
		pos := occ.String()
		if slices.Contains(seen, pos) {
			continue
		}
		seen = append(seen, pos)
		if line != "" && len("#: ")+len(line)+1+len(pos) > wrapWidth {
			lines = append(lines, line)
			line = ""
		}
		if line != "" {
			line += " "
		}
		line += pos
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func lineNumber(occ Occurrence) int {
	n, _ := strconv.Atoi(occ.Line)
	return n
}

func compareOccurrences(a, b []Occurrence) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmp.Compare(a[i].File, b[i].File); c != 0 {
			return c
		}
		if c := cmp.Compare(lineNumber(a[i]), lineNumber(b[i])); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func sortedEntries(c *Catalog, opts *WriteOptions) []*Entry {
	entries := slices.Clone(c.Entries)
	switch {
	case opts.SortByFile:
		slices.SortStableFunc(entries, func(a, b *Entry) int {
			return compareOccurrences(a.Occurrences, b.Occurrences)
		})
	case opts.SortByMsgID:
		slices.SortStableFunc(entries, func(a, b *Entry) int {
			return cmp.Or(cmp.Compare(a.MsgID, b.MsgID), cmp.Compare(a.MsgCtxt, b.MsgCtxt))
		})
	}
	return entries
}

// AsWritten returns c the way Write lays it out with opts: sorted, and
// with references dropped or reduced to file names.
func (c *Catalog) AsWritten(opts *WriteOptions) *Catalog {
	if opts == nil {
		opts = &WriteOptions{}
	}
	out := New(c.Header)
	for _, e := range sortedEntries(c, opts) {
		switch {
		case opts.NoLocation:
			unplaced := *e
			unplaced.Occurrences = nil
			e = &unplaced
		case opts.NoLineNumbers:
			e = StripLineNumbers(e)
		}
		out.append(e)
	}
	return out
}

// Write renders c as a PO file.
func Write(w io.Writer, c *Catalog, opts *WriteOptions) error {
	if opts == nil {
		opts = &WriteOptions{}
	}

	var header []string
	if c.Header.Comment != "" {
		header = strings.Split(c.Header.Comment, "\n")
	}
	metadata := make([]string, 0, len(c.Header.Metadata))
	for _, f := range c.Header.Metadata {
		metadata = append(metadata, escape(f.Name+": "+f.Value+"\n"))
	}

	c = c.AsWritten(opts)
	data := make([]*entryData, 0, len(c.Entries))
	for _, e := range c.Entries {
		d := &entryData{
			MsgID:              quote(e.MsgID),
			MsgStr:             quote(e.MsgStr),
			TranslatorComments: commentLines(e.TranslatorComments),
			Comments:           commentLines(e.Comments),
			Flags:              strings.Join(e.Flags, ", "),
		}
		if e.MsgCtxt != "" {
			d.MsgCtxt = quote(e.MsgCtxt)
		}
		if e.MsgIDPlural != "" {
			d.MsgIDPlural = quote(e.MsgIDPlural)
			forms := e.MsgStrPlural
			if len(forms) == 0 {
				forms = []string{"", ""}
			}
			for _, s := range forms {
				d.MsgStrPlural = append(d.MsgStrPlural, quote(s))
			}
		}
		d.Positions = positions(e.Occurrences)
		data = append(data, d)
	}

	return poTemplate.Execute(w, struct {
		Header   []string
		Metadata []string
		Entries  []*entryData
	}{
		Header:   header,
		Metadata: metadata,
		Entries:  data,
	})
}
