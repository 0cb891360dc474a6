package mml

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every decode failure.
var ErrMalformed = errors.New("malformed notation")

// SyntaxError reports a decode failure and where it happened.
type SyntaxError struct {
	Offset int
	Char   byte
	Reason string
}

func (e *SyntaxError) Error() string {
	if e.Char == 0 {
		return fmt.Sprintf("%s at %d (end of track)", e.Reason, e.Offset)
	}
	return fmt.Sprintf("%s at %d (%q)", e.Reason, e.Offset, e.Char)
}

func (e *SyntaxError) Unwrap() error { return ErrMalformed }

func syntaxError(c Cursor, reason string) *SyntaxError {
	return &SyntaxError{Offset: c.Offset(), Char: c.Peek(), Reason: reason}
}
