// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package camuserr provides the structured error taxonomy the compiler
// raises on any hard error. There is no recoverable error path: every
// *Error aborts the whole compilation.
package camuserr

import (
	"errors"
	"fmt"
)

// Kind categorizes a compile-time failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindParse marks input that fails the surface grammar.
	KindParse
	// KindShape marks an AST node that does not match the expected shape
	// (e.g. Lt with a string constant, fwd with a non-numeric argument).
	KindShape
	// KindUnsupported marks a construct the core deliberately rejects
	// (Call("inc", ...) as an LHS, Lpm on a non-address constant).
	KindUnsupported
	// KindActionMerge marks a terminal state aggregating a forwarding
	// action with a user action.
	KindActionMerge
	// KindInvariant marks an internal assertion failure: a transition
	// table entry whose shape the lowering stage does not recognize.
	KindInvariant
	// KindMissingAssignment marks eval() called against an assignment
	// lacking a binding for the predicate's field.
	KindMissingAssignment
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindShape:
		return "shape"
	case KindUnsupported:
		return "unsupported"
	case KindActionMerge:
		return "action_merge"
	case KindInvariant:
		return "invariant"
	case KindMissingAssignment:
		return "missing_assignment"
	default:
		return "unknown"
	}
}

// ExitCode maps a Kind to the process exit code cmd/camusc terminates with.
// All kinds are non-zero; the specific values only distinguish failure
// classes for callers scripting around the compiler.
func (k Kind) ExitCode() int {
	switch k {
	case KindParse:
		return 2
	case KindShape:
		return 3
	case KindUnsupported:
		return 4
	case KindActionMerge:
		return 5
	case KindInvariant:
		return 6
	case KindMissingAssignment:
		return 7
	default:
		return 1
	}
}

// Error is a structured compile error.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates an Error of the given Kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Errorf creates an Error of the given Kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind and message to an existing error.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Underlying: err}
}

// Wrapf attaches a Kind and formatted message to an existing error.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Underlying: err}
}

// GetKind returns the Kind of err, or KindUnknown if err is not (or does
// not wrap) a *Error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain matching target's type.
func As(err error, target any) bool { return errors.As(err, target) }
