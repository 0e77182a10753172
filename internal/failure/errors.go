// Package failure defines the error taxonomy shared by the rewrite,
// narration and history components. Every condition is recoverable: the
// session controller turns them into user-visible messages.
package failure

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per Code. A *Error unwraps to the sentinel of its
// code, so errors.Is(err, ErrGenerationUnavailable) works on wrapped values.
var (
	// ErrGenerationUnavailable indicates the rewrite could not be produced:
	// missing credential, network failure or a malformed response.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrNarrationUnavailable indicates every synthesis path failed.
	ErrNarrationUnavailable = errors.New("narration unavailable")

	// ErrCorruptHistory indicates the persisted history could not be parsed.
	ErrCorruptHistory = errors.New("corrupt history")

	// ErrInvalidInput indicates the user supplied unusable input.
	ErrInvalidInput = errors.New("invalid input")
)

// Code identifies specific error kinds.
type Code string

const (
	CodeGenerationUnavailable Code = "GENERATION_UNAVAILABLE"
	CodeNarrationUnavailable  Code = "NARRATION_UNAVAILABLE"
	CodeCorruptHistory        Code = "CORRUPT_HISTORY"
	CodeInvalidInput          Code = "INVALID_INPUT"
)

func (c Code) sentinel() error {
	switch c {
	case CodeGenerationUnavailable:
		return ErrGenerationUnavailable
	case CodeNarrationUnavailable:
		return ErrNarrationUnavailable
	case CodeCorruptHistory:
		return ErrCorruptHistory
	case CodeInvalidInput:
		return ErrInvalidInput
	default:
		return nil
	}
}

// Error is a coded error with an optional cause and context.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]any
}

// New creates a coded error.
func New(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// Generation is shorthand for New(CodeGenerationUnavailable, ...).
func Generation(message string, cause error) *Error {
	return New(CodeGenerationUnavailable, message, cause)
}

// Narration is shorthand for New(CodeNarrationUnavailable, ...).
func Narration(message string, cause error) *Error {
	return New(CodeNarrationUnavailable, message, cause)
}

// Corrupt is shorthand for New(CodeCorruptHistory, ...).
func Corrupt(message string, cause error) *Error {
	return New(CodeCorruptHistory, message, cause)
}

// Invalid is shorthand for New(CodeInvalidInput, ...).
func Invalid(message string) *Error {
	return New(CodeInvalidInput, message, nil)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the code's sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Code.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

// UserMessage renders the error for display, without the code prefix.
func (e *Error) UserMessage() string {
	switch e.Code {
	case CodeGenerationUnavailable:
		return "Could not rewrite the message: " + e.Message
	case CodeNarrationUnavailable:
		return "Could not narrate the message: " + e.Message
	case CodeCorruptHistory:
		return "History could not be read and was reset: " + e.Message
	default:
		return e.Message
	}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code, true
	}
	return "", false
}

// UserMessage renders any error for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.UserMessage()
	}
	return err.Error()
}
