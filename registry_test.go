package lingva

import (
	. "gopkg.in/check.v1"
)

type nullExtractor struct{}

func (nullExtractor) Extract(in Input, opts *Options) Messages {
	return func(yield func(Message, error) bool) {}
}

func (lingvaSuite) TestRegistry(c *C) {
	r := NewRegistry()
	r.Register("python", nullExtractor{})
	r.Register("xml", nullExtractor{})
	c.Check(r.Names(), DeepEquals, []string{"python", "xml"})

	c.Assert(r.Map(".py", "python"), IsNil)
	c.Assert(r.Map("pt", "xml"), IsNil)
	c.Assert(r.Map(".HTML", "xml"), IsNil)
	c.Check(r.Map(".js", "javascript"), ErrorMatches, `unknown extractor "javascript" for extension ".js"`)
	c.Check(r.Extensions("xml"), DeepEquals, []string{".html", ".pt"})

	for _, test := range []struct {
		filename string
		name     string
		ok       bool
	}{
		{"src/app/views.py", "python", true},
		{"templates/Page.PT", "xml", true},
		{"index.html", "xml", true},
		{"README", "", false},
		{"script.js", "", false},
	} {
		name, e, ok := r.ForFile(test.filename)
		comment := Commentf("file %s", test.filename)
		c.Check(ok, Equals, test.ok, comment)
		c.Check(name, Equals, test.name, comment)
		c.Check(e != nil, Equals, test.ok, comment)
	}
}

func (lingvaSuite) TestRegistryLongestExtension(c *C) {
	r := NewRegistry()
	r.Register("python", nullExtractor{})
	r.Register("xml", nullExtractor{})
	c.Assert(r.Map(".pt", "xml"), IsNil)
	c.Assert(r.Map(".py.pt", "python"), IsNil)

	name, _, _ := r.ForFile("odd.py.pt")
	c.Check(name, Equals, "python")
	name, _, _ = r.ForFile("plain.pt")
	c.Check(name, Equals, "xml")
}
