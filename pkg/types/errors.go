package types

import "fmt"

// ErrorCode classifies an error produced by compilation, evaluation or
// the binary codec.
type ErrorCode string

const (
	// Compilation errors. These abort Compile with a source position.
	ErrLex    ErrorCode = "LexError"
	ErrParse  ErrorCode = "ParseError"
	ErrLookup ErrorCode = "LookupError" // unknown function

	// Evaluation errors. These surface as error-variant result
	// elements scoped to the branch that produced them.
	ErrType     ErrorCode = "TypeError"
	ErrDivZero  ErrorCode = "DivisionByZero"
	ErrArgCount ErrorCode = "ArgumentCountError"

	// Codec errors. Fatal to the encode/decode call.
	ErrCodec        ErrorCode = "CodecError"
	ErrCodecVersion ErrorCode = "UnsupportedVersion"
	ErrCodecCorrupt ErrorCode = "CorruptData"
)

// Error is a structured error with a code and, where known, the source
// position and offending token.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates an Error. Pass position -1 when no source location
// applies.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}
