// Package errors defines the structured diagnostic type shared by the
// scanner, parser, evaluator, module loader, and type checker. Grounded on
// cue/errors: an Error interface carrying a position plus a deferred,
// printf-style Message, and an Errors list that implements error and can
// Print a stack of frames.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Bryantad/Sona-sub003/token"
)

// Kind is the taxonomy from spec.md §7.
type Kind string

const (
	ParseError        Kind = "ParseError"
	NameError         Kind = "NameError"
	AttributeError    Kind = "AttributeError"
	TypeError         Kind = "TypeError"
	ArityError        Kind = "ArityError" // subclass of TypeError
	ValueError        Kind = "ValueError"
	IndexError        Kind = "IndexError"
	KeyError          Kind = "KeyError"
	ZeroDivisionError Kind = "ZeroDivisionError"
	ImportError       Kind = "ImportError"
	IOError           Kind = "IOError"
	Interrupted       Kind = "Interrupted"
	UserError         Kind = "UserError"
)

// Frame is one entry of a call stack, per spec.md §6's error envelope.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Error is a single structured diagnostic: spec.md §6's
// {kind, message, file, line, col, stack} envelope.
type Error struct {
	Kind    Kind
	Pos     token.Pos
	format  string
	args    []interface{}
	Stack   []Frame
	Snippet string // source line text, for parse errors
}

// Newf constructs an Error of the given kind with a deferred,
// printf-style message (mirroring errors.NewMessagef in the teacher).
func Newf(kind Kind, pos token.Pos, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, format: format, args: args}
}

func (e *Error) Error() string {
	p := e.Pos.Position()
	msg := fmt.Sprintf(e.format, e.args...)
	if p.IsValid() {
		return fmt.Sprintf("%s: %s: %s", p, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Message returns the unformatted message and its arguments, for hosts
// that want to localize the text themselves.
func (e *Error) Message() (string, []interface{}) { return e.format, e.args }

// Position returns the primary source position of the error.
func (e *Error) Position() token.Pos { return e.Pos }

// WithStack attaches a call stack (outermost frame last, matching how the
// evaluator unwinds) and returns e for chaining.
func (e *Error) WithStack(frames []Frame) *Error {
	e.Stack = frames
	return e
}

// List is a collection of *Error, sortable by position, mirroring
// cue/errors.Errors.
type List []*Error

func (l List) Error() string {
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

// Sort orders the list by source position.
func (l List) Sort() {
	sort.Slice(l, func(i, j int) bool {
		return l[i].Pos.Offset() < l[j].Pos.Offset() && l[i].Pos.Filename() == l[j].Pos.Filename()
	})
}

// Handler is called by the scanner on lexical errors, mirroring
// cue/errors.Handler and cue/scanner's error(offs, msg) callback.
type Handler func(pos token.Position, msg string)
