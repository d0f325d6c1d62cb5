// Package langerr holds the error types shared across dune's language core,
// host environment, and session store.
package langerr

import "fmt"

// SyntaxError is returned by the parser on a malformed program. It carries
// enough position information for the REPL to print a source line and
// cursor, and for callers to distinguish "need more input" (see NeedsMore)
// from a hard failure.
type SyntaxError struct {
	// Line and Col are 1-indexed; Line is 0 if no position is available
	// (e.g. unexpected end of input with nothing left to point at).
	Line, Col int

	// SourceLine is the full source line the error occurred on, used for
	// FullMessage's cursor rendering. It is empty if no position is
	// available.
	SourceLine string

	Message string

	// NeedsMore marks an error that means "the program is incomplete, not
	// wrong" -- the REPL should keep accumulating input rather than report
	// failure.
	NeedsMore bool
}

func (se SyntaxError) Error() string {
	if se.Line == 0 {
		return fmt.Sprintf("syntax error: %s", se.Message)
	}
	return fmt.Sprintf("syntax error: line %d, col %d: %s", se.Line, se.Col, se.Message)
}

// FullMessage renders the offending source line, a cursor under the error
// column, and then the message, matching the teacher's
// SyntaxError.FullMessage convention.
func (se SyntaxError) FullMessage() string {
	if se.SourceLine == "" {
		return se.Error()
	}
	cursor := ""
	for i := 0; i < se.Col-1; i++ {
		cursor += " "
	}
	return se.SourceLine + "\n" + cursor + "^\n" + se.Error()
}

// Error is a structured error with one or more causes, compatible with
// errors.Is: calling errors.Is(err, cause) for any cause this Error wraps
// returns true.
type Error struct {
	msg   string
	cause []error
}

// New creates an Error with the given message and optional causes.
func New(msg string, causes ...error) Error {
	e := Error{msg: msg}
	if len(causes) > 0 {
		e.cause = append([]error(nil), causes...)
	}
	return e
}

func (e Error) Error() string {
	if e.msg == "" && len(e.cause) > 0 {
		return e.cause[0].Error()
	}
	if len(e.cause) > 0 {
		return e.msg + ": " + e.cause[0].Error()
	}
	return e.msg
}

// Unwrap exposes every cause to the errors package.
func (e Error) Unwrap() []error {
	if len(e.cause) == 0 {
		return nil
	}
	return e.cause
}
