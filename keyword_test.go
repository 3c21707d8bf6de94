package lingva

import (
	. "gopkg.in/check.v1"
)

func (lingvaSuite) TestParseKeyword(c *C) {
	for _, test := range []struct {
		spec string
		kw   Keyword
	}{
		{"gettext", Keyword{"gettext", "", 0, -1, -1, -1, 0}},
		{"ngettext:1,2", Keyword{"ngettext", "", 0, 1, -1, -1, 0}},
		{"pgettext:1c,2", Keyword{"pgettext", "", 1, -1, 0, -1, 0}},
		{"pgettext:2,1c", Keyword{"pgettext", "", 1, -1, 0, -1, 0}},
		{"npgettext:1c,2,3", Keyword{"npgettext", "", 1, 2, 0, -1, 0}},
		{"npgettext:2,1c,3", Keyword{"npgettext", "", 1, 2, 0, -1, 0}},
		{"dgettext:1d,2", Keyword{"dgettext", "", 1, -1, -1, 0, 0}},
		{"dnpgettext:1d,2c,3,4", Keyword{"dnpgettext", "", 2, 3, 1, 0, 0}},
		{"tr:1,2t", Keyword{"tr", "", 0, -1, -1, -1, 2}},
		{"i18n.G", Keyword{"G", "i18n", 0, -1, -1, -1, 0}},
		{"i18n.NG:1,2", Keyword{"NG", "i18n", 0, 1, -1, -1, 0}},
	} {
		comment := Commentf("keyword spec: %s", test.spec)
		kw, err := ParseKeyword(test.spec)
		if !c.Check(err, IsNil, comment) {
			continue
		}
		c.Check(*kw, Equals, test.kw, comment)
	}

	for _, spec := range []string{
		"",
		"foo:1,2,3",
		"bar:1c,2,3,4",
		"foo:bar",
		"foo:50x,2",
		"foo:0",
		"foo:1,",
		"a.b.c",
		".foo",
	} {
		kw, err := ParseKeyword(spec)
		c.Check(err, NotNil, Commentf("spec %s evaluated to %#v", spec, kw))
	}
}

func (lingvaSuite) TestKeywordMatch(c *C) {
	for _, test := range []struct {
		spec      string
		qualifier string
		name      string
		ok        bool
	}{
		{"gettext", "", "gettext", true},
		{"gettext", "foo", "gettext", true},
		{"gettext", ".", "gettext", true},
		{"gettext", "", "notgettext", false},
		{"i18n.G", "", "G", false},
		{"i18n.G", "i18n", "G", true},
		{"i18n.G", ".", "G", false},
	} {
		comment := Commentf("spec: %s, call: %s.%s", test.spec, test.qualifier, test.name)
		kw, err := ParseKeyword(test.spec)
		c.Assert(err, IsNil, comment)
		c.Check(kw.Match(test.qualifier, test.name), Equals, test.ok, comment)
	}
}

func literal(s string) Arg {
	return Arg{Value: s, Literal: true}
}

var computed = Arg{}

func (lingvaSuite) TestKeywordExtract(c *C) {
	for _, test := range []struct {
		spec string
		args []Arg
		err  error
		call Call
	}{
		{"gettext", []Arg{literal("foo\tbar")}, nil, Call{ID: "foo\tbar"}},
		{"gettext", []Arg{computed}, ErrNotString, Call{}},
		{"gettext", []Arg{literal("")}, ErrEmptyMessage, Call{}},
		{"gettext", []Arg{literal("foo"), computed}, nil, Call{ID: "foo"}},
		{"ngettext:1,2", []Arg{literal("foo"), literal("bar"), computed}, nil, Call{ID: "foo", Plural: "bar"}},
		{"ngettext:1,2", []Arg{computed, literal("bar"), computed}, ErrNotString, Call{}},
		{"ngettext:1,2", []Arg{literal("foo"), computed, computed}, ErrNotString, Call{}},
		{"pgettext:1c,2", []Arg{literal("foo"), literal("bar")}, nil, Call{ID: "bar", Context: "foo"}},
		{"pgettext:1c,2", []Arg{computed, literal("bar")}, ErrNotString, Call{}},
		{"dgettext:1d,2", []Arg{literal("dom"), literal("bar")}, nil, Call{ID: "bar", Domain: "dom"}},
		{"dgettext:1d,2", []Arg{computed, literal("bar")}, nil, Call{ID: "bar"}},
		{"tr:1,2t", []Arg{literal("a")}, ErrOutOfRange, Call{}},
		{"tr:1,2t", []Arg{literal("a"), computed}, nil, Call{ID: "a"}},

		// named arguments
		{"_", []Arg{literal("id"), {Name: "default", Value: "Text", Literal: true}}, nil, Call{ID: "id", Default: "Text"}},
		{"_", []Arg{literal("id"), {Name: "context", Value: "button", Literal: true}}, nil, Call{ID: "id", Context: "button"}},
		{"_", []Arg{literal("id"), {Name: "msgctxt", Value: "button", Literal: true}}, nil, Call{ID: "id", Context: "button"}},
		{"_", []Arg{literal("id"), {Name: "context"}}, ErrNotString, Call{}},
		{"_", []Arg{literal("id"), {Name: "domain", Value: "d", Literal: true}}, nil, Call{ID: "id", Domain: "d"}},
		{"_", []Arg{literal("id"), {Name: "comment", Value: "note", Literal: true}}, nil, Call{ID: "id", Comment: "note"}},
		{"_", []Arg{literal("id"), {Name: "mapping"}}, nil, Call{ID: "id"}},
		{"_", []Arg{{Name: "default", Value: "x", Literal: true}}, ErrOutOfRange, Call{}},

		// out of bounds argument index
		{"gettext:1", []Arg{}, ErrOutOfRange, Call{}},
		{"ngettext:1,2", []Arg{literal("foo")}, ErrOutOfRange, Call{}},
		{"pgettext:1,2c", []Arg{literal("foo")}, ErrOutOfRange, Call{}},
	} {
		comment := Commentf("spec: %s, args: %v", test.spec, test.args)
		kw, err := ParseKeyword(test.spec)
		c.Assert(err, IsNil, comment)

		call, err := kw.Extract(test.args)
		c.Check(err, Equals, test.err, comment)
		c.Check(call, Equals, test.call, comment)
	}
}

func (lingvaSuite) TestCallMessage(c *C) {
	call := Call{ID: "%d file", Plural: "%d files", Default: "One file", Comment: "Counter"}
	msg := call.Message("[fuzzy] from source", Location{"a.py", 3})
	c.Check(msg, DeepEquals, Message{
		ID:       "%d file",
		Plural:   "%d files",
		Flags:    []string{"fuzzy", "c-format"},
		Comment:  "Default: One file\nCounter\nfrom source",
		Location: Location{"a.py", 3},
	})
}

func (lingvaSuite) TestKeywordTable(c *C) {
	table := DefaultKeywords()
	for _, name := range []string{"_", "gettext", "ugettext", "N_", "dgettext", "dugettext",
		"ngettext", "ungettext", "dngettext", "pgettext", "dpgettext", "npgettext",
		"dnpgettext", "pluralize"} {
		c.Check(table.Lookup("", name), NotNil, Commentf("keyword %s", name))
	}
	c.Check(table.Lookup("", "other"), IsNil)

	table, err := NewKeywordTable([]string{"other", "gettext:2"})
	c.Assert(err, IsNil)
	c.Check(table.Lookup("", "other"), NotNil)
	// extra keywords override the defaults
	c.Check(table.Lookup("", "gettext").msgid, Equals, 1)

	_, err = NewKeywordTable([]string{"foo:bar"})
	c.Check(err, ErrorMatches, `cannot parse keyword "foo:bar": .*`)
}
