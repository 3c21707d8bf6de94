package lingva

import (
	"errors"
	"fmt"
)

var (
	ErrNotString    = errors.New("not a string constant")
	ErrBadKeyword   = errors.New("bad keyword")
	ErrOutOfRange   = errors.New("argument index out of range")
	ErrEmptyMessage = errors.New("empty message id")
)

// ParseError is a fatal extraction error. It aborts extraction of the
// file it refers to.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Collect drains msgs, stopping at the first error.
func Collect(msgs Messages) ([]Message, error) {
	var result []Message
	for msg, err := range msgs {
		if err != nil {
			return result, err
		}
		result = append(result, msg)
	}
	return result, nil
}

// Fail returns a sequence holding only err.
func Fail(err error) Messages {
	return func(yield func(Message, error) bool) {
		yield(Message{}, err)
	}
}
