// Package signal defines the non-error control-flow values threaded
// through the evaluator's result type. Grounded on cue/internal/core/adt's
// Bottom-as-sentinel pattern generalized to spec.md §4.3's four
// non-local jumps (return, break, continue, throw): rather than using Go
// panic/recover, the evaluator's eval functions return (value.Value,
// *Signal) and propagate a non-nil Signal upward exactly like Go propagates a
// non-nil error, so the evaluator's control flow stays ordinary Go
// control flow.
package signal

import "github.com/Bryantad/Sona-sub003/errors"

// Kind identifies which of the four non-local jumps a Signal carries.
type Kind int

const (
	Return Kind = iota
	Break
	Continue
	Throw
)

func (k Kind) String() string {
	switch k {
	case Return:
		return "return"
	case Break:
		return "break"
	case Continue:
		return "continue"
	case Throw:
		return "throw"
	}
	return "signal(?)"
}

// Signal is returned alongside a zero value.Value by statement evaluation
// to unwind the Go call stack up to the construct that handles it: Return
// up to the enclosing function call, Break/Continue up to the enclosing
// loop, Throw up to the nearest try/catch or the top level.
type Signal struct {
	Kind  Kind
	Value interface{} // the returned/thrown value.Value; nil for Break/Continue
	Err   *errors.Error // populated for Throw raised from a builtin/runtime error
}

func NewReturn(v interface{}) *Signal { return &Signal{Kind: Return, Value: v} }
func NewBreak() *Signal               { return &Signal{Kind: Break} }
func NewContinue() *Signal            { return &Signal{Kind: Continue} }

// NewThrow wraps a raised value.Value as a Throw signal.
func NewThrow(v interface{}) *Signal { return &Signal{Kind: Throw, Value: v} }

// NewThrowErr wraps a structured runtime error (spec.md §7) as a Throw
// signal, so builtins and the evaluator raise errors the same way user
// code does with `throw`.
func NewThrowErr(err *errors.Error) *Signal {
	return &Signal{Kind: Throw, Err: err}
}
