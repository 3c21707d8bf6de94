package lingva

import (
	. "gopkg.in/check.v1"
)

func (lingvaSuite) TestCheckFormat(c *C) {
	for _, test := range []struct {
		id, plural string
		flags      []string
		expected   []string
	}{
		{"plain text", "", nil, nil},
		{"%d files", "", nil, []string{"c-format"}},
		{"%(name)s is here", "", nil, []string{"c-format"}},
		{"%-5.2f%%", "", nil, []string{"c-format"}},
		{"100%%", "", nil, nil},
		{"one", "%d many", nil, []string{"c-format"}},
		{"Hello {name}", "", nil, []string{"python-brace-format"}},
		{"{0} and {1!r:>10}", "", nil, []string{"python-brace-format"}},
		{"{user.name} {items[0]}", "", nil, []string{"python-brace-format"}},
		{"{{escaped}}", "", nil, nil},
		{"Dummy ${text} demo", "", nil, nil},
		{"%s {name}", "", nil, []string{"c-format", "python-brace-format"}},
		{"%s", "", []string{"no-c-format"}, []string{"no-c-format"}},
		{"%s", "", []string{"c-format"}, []string{"c-format"}},
	} {
		msg := Message{ID: test.id, Plural: test.plural, Flags: test.flags}
		CheckFormat(&msg)
		c.Check(msg.Flags, DeepEquals, test.expected, Commentf("id %q", test.id))
	}
}

func (lingvaSuite) TestParseCommentFlags(c *C) {
	for _, test := range []struct {
		comment, text string
		flags         []string
	}{
		{"plain", "plain", nil},
		{"[markdown-format,fuzzy] Comment", "Comment", []string{"markdown-format", "fuzzy"}},
		{"[ a , b,a ]rest", "rest", []string{"a", "b"}},
		{"[unterminated", "[unterminated", nil},
		{"[fuzzy]", "", []string{"fuzzy"}},
	} {
		text, flags := ParseCommentFlags(test.comment)
		comment := Commentf("comment %q", test.comment)
		c.Check(text, Equals, test.text, comment)
		c.Check(flags, DeepEquals, test.flags, comment)
	}
}
