package lingva

import (
	"errors"
	"strings"
)

// BabelMessage is a message as reported by a babel style extraction
// function: the call's line, the function name, its arguments and the
// comments found for it. Computed arguments are passed as nil.
type BabelMessage struct {
	Line     int
	Function string
	Args     []*string
	Comments []string
}

// BabelFunc scans a source for translation calls. It receives the
// names of the functions to look for and the comment tags to honour.
type BabelFunc func(src []byte, keywords []string, commentTags []string) ([]BabelMessage, error)

// BabelExtractor adapts a babel style function to the Extractor
// interface. The keyword table is applied to the reported arguments.
//
// It is the entry point for languages without a built-in extractor:
// register it under a name, map extensions to it and the extraction
// pipeline treats it like any other extractor.
//
//	reg.Register("javascript", &lingva.BabelExtractor{Func: scanJS})
//	err := reg.Map(".js", "javascript")
type BabelExtractor struct {
	Func        BabelFunc
	CommentTags []string
}

func (b *BabelExtractor) Extract(in Input, opts *Options) Messages {
	return func(yield func(Message, error) bool) {
		table, err := opts.KeywordTable()
		if err != nil {
			yield(Message{}, err)
			return
		}
		src, err := OpenSource(in)
		if err != nil {
			yield(Message{}, &ParseError{File: in.Filename, Err: err})
			return
		}
		defer src.Close()

		names := make([]string, 0, len(table))
		for _, k := range table {
			names = append(names, k.name)
		}
		found, err := b.Func(src.Text(), names, b.CommentTags)
		if err != nil {
			var perr *ParseError
			if !errors.As(err, &perr) {
				err = &ParseError{File: in.Filename, Err: err}
			}
			yield(Message{}, err)
			return
		}

		for _, bm := range found {
			args := make([]Arg, len(bm.Args))
			for i, a := range bm.Args {
				if a != nil {
					args[i] = Arg{Value: *a, Literal: true}
				}
			}
			var call Call
			if k := table.Lookup("", bm.Function); k != nil {
				if call, err = k.Extract(args); err != nil {
					continue
				}
			} else if len(args) > 0 && args[0].Literal && args[0].Value != "" {
				call.ID = args[0].Value
			} else {
				continue
			}
			if opts.SkipDomain(call.Domain) {
				continue
			}

			msg := Message{
				Context: call.Context,
				ID:      call.ID,
				Plural:  call.Plural,
				Location: Location{
					File: in.Filename,
					Line: in.FirstLine + bm.Line,
				},
			}
			comments := bm.Comments
			if call.Comment != "" {
				comments = append(comments[:len(comments):len(comments)], call.Comment)
			}
			msg.Comment = strings.Join(comments, " ")
			CheckFormat(&msg)
			if !yield(msg, nil) {
				return
			}
		}
	}
}
