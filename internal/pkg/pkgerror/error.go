package pkgerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by stores for unknown IDs.
	ErrNotFound = errors.New("resource not found")
)

// Type classifies errors by who is at fault.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code selects the HTTP status of an Error.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooLarge
	CodeTooManyRequests
)

var codeNames = map[Code]string{
	CodeInternal:        "ERROR_CODE_INTERNAL",
	CodeInvalidFormat:   "ERROR_CODE_INVALID_FORMAT",
	CodeInvalidInput:    "ERROR_CODE_INVALID_INPUT",
	CodeNotFound:        "ERROR_CODE_NOT_FOUND",
	CodeConflict:        "ERROR_CODE_CONFLICT",
	CodeTooLarge:        "ERROR_CODE_TOO_LARGE",
	CodeTooManyRequests: "ERROR_CODE_TOO_MANY_REQUESTS",
}

var codeStatus = map[Code]int{
	CodeInternal:        http.StatusInternalServerError,
	CodeInvalidFormat:   http.StatusBadRequest,
	CodeInvalidInput:    http.StatusUnprocessableEntity,
	CodeNotFound:        http.StatusNotFound,
	CodeConflict:        http.StatusConflict,
	CodeTooLarge:        http.StatusRequestEntityTooLarge,
	CodeTooManyRequests: http.StatusTooManyRequests,
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return codeNames[CodeInternal]
}

// Error is the structured application error.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Business rule violation"
	default:
		return "Internal error"
	}
}

// String is the verbose form used in logs.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

// Msg is the message shown to clients.
func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

// Fields maps request fields to what is wrong with them. Nil for most errors.
func (e *Error) Fields() map[string]string { return e.fields }

func (e *Error) Unwrap() error { return e.err }

func (e *Error) StatusCode() int {
	if s, ok := codeStatus[e.code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func newError(err error, msg string, et Type, code Code) *Error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer hides err from clients behind a generic message.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal)
}

func NewBusiness(msg string, code Code) error {
	return newError(nil, msg, TypeBusiness, code)
}

// NewNotFound wraps ErrNotFound so errors.Is keeps working.
func NewNotFound(msg string) error {
	return newError(ErrNotFound, msg, TypeBusiness, CodeNotFound)
}

// NewInvalidInput is a well-formed request the domain rejects, shown to the
// client with err's text.
func NewInvalidInput(err error) error {
	return newError(err, err.Error(), TypeValidation, CodeInvalidInput)
}

// NewInvalidFormat is a request or upload that cannot be read at all. A nil
// err yields the generic "invalid request body".
func NewInvalidFormat(err error) error {
	msg := "invalid request body"
	if err != nil {
		msg = err.Error()
	}
	return newError(err, msg, TypeValidation, CodeInvalidFormat)
}

// NewValidation reports per-field problems.
func NewValidation(fields map[string]string) error {
	e := newError(nil, "validation error", TypeValidation, CodeInvalidFormat)
	e.fields = fields
	return e
}
