package lingva

import (
	"strconv"
	"strings"
)

// Keyword describes the arguments of a translation function.
type Keyword struct {
	name, pkg                              string
	msgid, msgidPlural, msgContext, domain int
	// total is the exact number of positional arguments required, or
	// zero if any number is accepted.
	total int
}

// ParseKeyword parses a keyword specification of the form
// [PKG.]FUNC[:ARG,...], where ARG is N (message id, then plural),
// Nc (context), Nd (domain) or Nt (total argument count).
func ParseKeyword(spec string) (*Keyword, error) {
	idx := strings.IndexByte(spec, ':')
	var function, pkg string
	var args []string
	if idx >= 0 {
		function = spec[:idx]
		args = strings.Split(spec[idx+1:], ",")
	} else {
		function = spec
	}

	idx = strings.IndexByte(function, '.')
	if idx >= 0 {
		pkg = function[:idx]
		function = function[idx+1:]
		if strings.IndexByte(function, '.') >= 0 || pkg == "" {
			return nil, ErrBadKeyword
		}
	}
	if function == "" {
		return nil, ErrBadKeyword
	}

	k := &Keyword{
		name:        function,
		pkg:         pkg,
		msgid:       0,
		msgidPlural: -1,
		msgContext:  -1,
		domain:      -1,
	}

	processed := 0
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return nil, ErrBadKeyword
		}
		role := arg[len(arg)-1]
		if role == 'c' || role == 'd' || role == 't' {
			arg = arg[:len(arg)-1]
		}
		val, err := strconv.Atoi(arg)
		if err != nil {
			return nil, err
		}
		if val < 1 {
			return nil, ErrBadKeyword
		}
		switch role {
		case 'c':
			k.msgContext = val - 1
			continue
		case 'd':
			k.domain = val - 1
			continue
		case 't':
			k.total = val
			continue
		}

		switch processed {
		case 0:
			k.msgid = val - 1
		case 1:
			k.msgidPlural = val - 1
		default:
			return nil, ErrBadKeyword
		}
		processed += 1
	}

	return k, nil
}

func (k *Keyword) Name() string {
	if k.pkg != "" {
		return k.pkg + "." + k.name
	}
	return k.name
}

// Match reports whether a call to name matches the keyword. The
// qualifier is the identifier the function was selected from
// (pkg in pkg.name), empty for a plain call, or "." when the function
// was selected from a more complex expression.
func (k *Keyword) Match(qualifier, name string) bool {
	if name != k.name {
		return false
	}
	// If the keyword includes a package qualifier, make sure it matches
	return k.pkg == "" || k.pkg == qualifier
}

// Arg is a single call argument. Value is only meaningful for literal
// string arguments.
type Arg struct {
	Name    string
	Value   string
	Literal bool
}

// Call holds the message data recovered from a keyword call.
type Call struct {
	Domain  string
	Context string
	ID      string
	Plural  string
	Default string
	Comment string
}

// Extract maps call arguments to their roles. ErrOutOfRange and
// ErrNotString mean the call does not describe a message.
func (k *Keyword) Extract(args []Arg) (call Call, err error) {
	var positional []Arg
	for _, arg := range args {
		if arg.Name == "" {
			positional = append(positional, arg)
		}
	}
	if k.total > 0 && len(positional) != k.total {
		return Call{}, ErrOutOfRange
	}

	literal := func(idx int) (string, error) {
		if idx >= len(positional) {
			return "", ErrOutOfRange
		}
		if !positional[idx].Literal {
			return "", ErrNotString
		}
		return positional[idx].Value, nil
	}

	if call.ID, err = literal(k.msgid); err != nil {
		return Call{}, err
	}
	if k.msgidPlural >= 0 {
		if call.Plural, err = literal(k.msgidPlural); err != nil {
			return Call{}, err
		}
	}
	if k.msgContext >= 0 {
		if call.Context, err = literal(k.msgContext); err != nil {
			return Call{}, err
		}
	}
	if k.domain >= 0 {
		// A computed domain is simply unknown.
		call.Domain, _ = literal(k.domain)
	}

	for _, arg := range args {
		switch arg.Name {
		case "":
		case "context", "msgctxt":
			if !arg.Literal {
				return Call{}, ErrNotString
			}
			call.Context = arg.Value
		case "default":
			if arg.Literal {
				call.Default = arg.Value
			}
		case "domain":
			if arg.Literal {
				call.Domain = arg.Value
			}
		case "comment":
			if arg.Literal {
				call.Comment = arg.Value
			}
		}
	}

	if call.ID == "" {
		return Call{}, ErrEmptyMessage
	}
	return call, nil
}

// Message converts the call into a message. comment is source comment
// text, which may start with a [flag,...] list.
func (c *Call) Message(comment string, loc Location) Message {
	msg := Message{
		Context:  c.Context,
		ID:       c.ID,
		Plural:   c.Plural,
		Location: loc,
	}
	comment, msg.Flags = ParseCommentFlags(comment)
	var notes []string
	if c.Default != "" {
		notes = append(notes, "Default: "+c.Default)
	}
	if c.Comment != "" {
		notes = append(notes, c.Comment)
	}
	if comment != "" {
		notes = append(notes, comment)
	}
	msg.Comment = strings.Join(notes, "\n")
	CheckFormat(&msg)
	return msg
}

// KeywordTable is an ordered list of keywords; the first match wins.
type KeywordTable []*Keyword

var defaultKeywordSpecs = []string{
	"_",
	"gettext",
	"ugettext",
	"N_",
	"dgettext:1d,2",
	"dugettext:1d,2",
	"ngettext:1,2",
	"ungettext:1,2",
	"dngettext:1d,2,3",
	"pgettext:1c,2",
	"dpgettext:1d,2c,3",
	"npgettext:1c,2,3",
	"dnpgettext:1d,2c,3,4",
	"pluralize:1,2",
}

// DefaultKeywords returns the built-in keyword table.
func DefaultKeywords() KeywordTable {
	table := make(KeywordTable, 0, len(defaultKeywordSpecs))
	for _, spec := range defaultKeywordSpecs {
		kw, err := ParseKeyword(spec)
		if err != nil {
			panic(err)
		}
		table = append(table, kw)
	}
	return table
}

// NewKeywordTable returns the default keywords extended with specs.
// The extra keywords take precedence over the defaults.
func NewKeywordTable(specs []string) (KeywordTable, error) {
	var table KeywordTable
	for _, spec := range specs {
		kw, err := ParseKeyword(spec)
		if err != nil {
			return nil, &KeywordError{Spec: spec, Err: err}
		}
		table = append(table, kw)
	}
	return append(table, DefaultKeywords()...), nil
}

// Lookup returns the keyword matching a call, or nil.
func (t KeywordTable) Lookup(qualifier, name string) *Keyword {
	for _, k := range t {
		if k.Match(qualifier, name) {
			return k
		}
	}
	return nil
}

type KeywordError struct {
	Spec string
	Err  error
}

func (e *KeywordError) Error() string {
	return "cannot parse keyword " + strconv.Quote(e.Spec) + ": " + e.Err.Error()
}

func (e *KeywordError) Unwrap() error {
	return e.Err
}
