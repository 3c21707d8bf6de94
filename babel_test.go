package lingva

import (
	"errors"
	"strings"

	. "gopkg.in/check.v1"
)

func strptr(s string) *string {
	return &s
}

func (lingvaSuite) TestBabelExtractor(c *C) {
	var gotSource string
	var gotTags []string
	b := &BabelExtractor{
		Func: func(src []byte, keywords []string, commentTags []string) ([]BabelMessage, error) {
			gotSource = string(src)
			gotTags = commentTags
			return []BabelMessage{
				{Line: 1, Function: "_", Args: []*string{strptr("Hello %s")}, Comments: []string{"greeting", "shown on login"}},
				{Line: 2, Function: "ngettext", Args: []*string{strptr("apple"), strptr("apples"), nil}},
				{Line: 3, Function: "dgettext", Args: []*string{strptr("other"), strptr("skipped")}},
				{Line: 4, Function: "_", Args: []*string{nil}},
				{Line: 5, Function: "custom", Args: []*string{strptr("fallback")}},
			}, nil
		},
		CommentTags: []string{"NOTE:"},
	}

	in := Input{Filename: "app.js", Source: strings.NewReader("source"), FirstLine: 10}
	msgs, err := Collect(b.Extract(in, &Options{Domain: "main"}))
	c.Assert(err, IsNil)
	c.Check(gotSource, Equals, "source")
	c.Check(gotTags, DeepEquals, []string{"NOTE:"})
	c.Check(msgs, DeepEquals, []Message{
		{
			ID:       "Hello %s",
			Flags:    []string{"c-format"},
			Comment:  "greeting shown on login",
			Location: Location{"app.js", 11},
		},
		{
			ID:       "apple",
			Plural:   "apples",
			Location: Location{"app.js", 12},
		},
		{
			ID:       "fallback",
			Location: Location{"app.js", 15},
		},
	})
}

func (lingvaSuite) TestBabelExtractorError(c *C) {
	b := &BabelExtractor{
		Func: func(src []byte, keywords []string, commentTags []string) ([]BabelMessage, error) {
			return nil, errors.New("boom")
		},
	}
	_, err := Collect(b.Extract(Input{Filename: "x.js", Source: strings.NewReader("")}, nil))
	var perr *ParseError
	c.Assert(errors.As(err, &perr), Equals, true)
	c.Check(perr.File, Equals, "x.js")
	c.Check(err, ErrorMatches, "x.js: boom")
}

func (lingvaSuite) TestBabelKeywordNames(c *C) {
	var names []string
	b := &BabelExtractor{
		Func: func(src []byte, keywords []string, commentTags []string) ([]BabelMessage, error) {
			names = keywords
			return nil, nil
		},
	}
	_, err := Collect(b.Extract(Input{Filename: "x.js", Source: strings.NewReader("")}, &Options{Keywords: []string{"tr"}}))
	c.Assert(err, IsNil)
	c.Check(names[0], Equals, "tr")
	c.Check(names, HasLen, len(defaultKeywordSpecs)+1)
}
