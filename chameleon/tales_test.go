package chameleon

import (
	"errors"

	. "gopkg.in/check.v1"

	"github.com/snapcore/go-lingva"
)

type talesSuite struct{}

var _ = Suite(&talesSuite{})

func collect(s string) ([]string, error) {
	var out []string
	for expr, err := range Expressions(s) {
		if err != nil {
			return out, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func (*talesSuite) TestExpressions(c *C) {
	for _, test := range []struct {
		in  string
		out []string
	}{
		{"no python here", nil},
		{"${some_python}", []string{"some_python"}},
		{"${one} ${two}", []string{"one", "two"}},
		{"${resource_url(_query={'one': 'one'})}", []string{"resource_url(_query={'one': 'one'})"}},
		{"${'}'} tail", []string{"'}'"}},
		{`${"a\"}"}`, []string{`"a\"}"`}},
		{"$${escaped} ${real}", []string{"real"}},
		{"$ {x} $", nil},
	} {
		out, err := collect(test.in)
		c.Check(err, IsNil, Commentf("input: %q", test.in))
		c.Check(out, DeepEquals, test.out, Commentf("input: %q", test.in))
	}
}

func (*talesSuite) TestExpressionsUnterminated(c *C) {
	out, err := collect("${ok} ${broken(")
	c.Check(out, DeepEquals, []string{"ok"})
	c.Check(err, Equals, ErrUnterminatedExpression)
}

func (*talesSuite) TestSplitClauses(c *C) {
	c.Check(splitClauses("a 1; b 2"), DeepEquals, []string{"a 1", " b 2"})
	c.Check(splitClauses("a 'x;y'; b f(1;2)"), DeepEquals, []string{"a 'x;y'", " b f(1;2)"})
	c.Check(splitClauses("a string:x;;y"), DeepEquals, []string{"a string:x;y"})
	c.Check(splitClauses("a 1;"), DeepEquals, []string{"a 1", ""})
	c.Check(splitClauses("msg string:It's here; t _('two')"), DeepEquals, []string{"msg string:It's here", " t _('two')"})
	c.Check(splitClauses("a string:it's; b 'x;y'"), DeepEquals, []string{"a string:it's", " b 'x;y'"})
}

func (*talesSuite) TestAssignment(c *C) {
	for in, out := range map[string]string{
		"label _('foo')":           "_('foo')",
		"local label _('foo')":     "_('foo')",
		"global x y":               "y",
		"(ix, item) [(1, 2)]":      "[(1, 2)]",
		"foo True or\n   _('x')":   "True or\n   _('x')",
		"lonely":                   "",
		"(broken":                  "",
	} {
		c.Check(assignment(in), Equals, out, Commentf("clause: %q", in))
	}
}

func (*talesSuite) TestControlExpressions(c *C) {
	c.Check(controlExpressions("define", "a _('1'); b _('2')"), DeepEquals, []string{"_('1')", "_('2')"})
	c.Check(controlExpressions("attributes", "href url"), DeepEquals, []string{"url"})
	c.Check(controlExpressions("repeat", "item items"), DeepEquals, []string{"items"})
	c.Check(controlExpressions("replace", "structure x"), DeepEquals, []string{"x"})
	c.Check(controlExpressions("content", "text x"), DeepEquals, []string{"x"})
	c.Check(controlExpressions("condition", " ok "), DeepEquals, []string{"ok"})
	c.Check(controlExpressions("omit-tag", ""), HasLen, 0)
	c.Check(controlExpressions("define-macro", "main"), HasLen, 0)
}

func (*talesSuite) TestAlternatives(c *C) {
	c.Check(alternatives("values | field.widget.values"), DeepEquals, []string{"values", "field.widget.values"})
	c.Check(alternatives("a or b"), DeepEquals, []string{"a or b"})
	c.Check(alternatives("f(a | b)|'x|y'"), DeepEquals, []string{"f(a | b)", "'x|y'"})
}

func (*talesSuite) TestPythonSource(c *C) {
	for _, test := range []struct {
		in   string
		code string
		ok   bool
	}{
		{"_('x')", "_('x')", true},
		{"python:_('x')", "_('x')", true},
		{"not:python:x", "x", true},
		{"structure:x", "x", true},
		{"string:${x}", "", false},
		{"load:layout.pt", "", false},
		{"i18n:context.title", "", false},
		{"provider:my.content.provider", "", false},
		{"x if y else {'a': 1}", "x if y else {'a': 1}", true},
	} {
		code, ok := pythonSource(test.in)
		c.Check(code, Equals, test.code, Commentf("expr: %q", test.in))
		c.Check(ok, Equals, test.ok, Commentf("expr: %q", test.in))
	}
}

func (*talesSuite) TestParseTree(c *C) {
	nodes, err := parse("f", []byte("<a x='1'\n   y=\"2\">text<br><b/></a>"))
	c.Assert(err, IsNil)
	c.Assert(nodes, HasLen, 1)
	a := nodes[0]
	c.Check(a.name, Equals, "a")
	c.Check(a.attrs, DeepEquals, []attribute{{"x", "1", 1}, {"y", "2", 2}})
	c.Assert(a.children, HasLen, 3)
	c.Check(a.children[0].text, Equals, "text")
	c.Check(a.children[0].line, Equals, 2)
	c.Check(a.children[1].name, Equals, "br")
	c.Check(a.children[2].name, Equals, "b")
}

func (*talesSuite) TestParseKeepsCase(c *C) {
	nodes, err := parse("f", []byte(`<tal:Block I18N:translate="">x</tal:Block>`))
	c.Assert(err, IsNil)
	c.Check(nodes[0].name, Equals, "tal:Block")
	c.Check(nodes[0].attrs[0].name, Equals, "I18N:translate")
}

func (*talesSuite) TestParseErrors(c *C) {
	for _, test := range []struct {
		in   string
		line int
		err  error
	}{
		{"<p>\n</div>", 2, ErrUnexpectedEndTag},
		{"<p>\n<div>\n</p>\n", 0, nil},
		{"<html>\n  <p>\n", 2, ErrUnclosedElement},
		{"ok\n\xfe", 2, ErrInvalidUTF8},
	} {
		comment := Commentf("input: %q", test.in)
		_, err := parse("f", []byte(test.in))
		if test.err == nil {
			c.Check(err, IsNil, comment)
			continue
		}
		var perr *lingva.ParseError
		if !c.Check(errors.As(err, &perr), Equals, true, comment) {
			continue
		}
		c.Check(perr.Line, Equals, test.line, comment)
		c.Check(errors.Is(err, test.err), Equals, true, comment)
	}
}

func (*talesSuite) TestParseIgnoresStrayVoidEndTag(c *C) {
	nodes, err := parse("f", []byte("<p><br></br></p>"))
	c.Assert(err, IsNil)
	c.Check(nodes[0].children, HasLen, 1)
}
