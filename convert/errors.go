package convert

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/anupcshan/srec2bin/srec"
)

// Error kinds. Every error returned by a Converter matches exactly one of
// these under errors.Is.
var (
	ErrInputUnreadable  = errors.New("input unreadable")
	ErrOutputUnwritable = errors.New("output unwritable")
	ErrEmptyRange       = errors.New("empty or degenerate address range")
	ErrMalformedRecord  = srec.ErrMalformedRecord
	ErrImageTooLarge    = errors.New("image too large")
)

type Error struct {
	Kind error

	// Line is the 1-based input line, or 0 when the error is not tied to one.
	Line int
	Err  error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Err == nil || !errors.Is(e.Err, e.Kind) {
		sb.WriteString(e.Kind.Error())
		if e.Line > 0 || e.Err != nil {
			sb.WriteString(": ")
		}
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, "line %d", e.Line)
		if e.Err != nil {
			sb.WriteString(": ")
		}
	}
	if e.Err != nil {
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, line int, err error) *Error {
	return &Error{Kind: kind, Line: line, Err: err}
}

var kinds = []error{ErrInputUnreadable, ErrOutputUnwritable, ErrEmptyRange, ErrMalformedRecord, ErrImageTooLarge}

// KindOf returns the error kind err matches, or nil if it matches none.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
