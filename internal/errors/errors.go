package errors

// Error is the domain error type carried from handlers to the notice pipeline.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable text shown in the host notice
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Client creates a client-kind error.
func Client(message string) *Error {
	return New(CodeClientInvalidRequest, message)
}

// Argument creates an argument-kind error.
func Argument(message string) *Error {
	return New(CodeArgumentInvalid, message)
}

// KindOf extracts the notice kind from any error; non-domain errors are server-kind.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Code.Kind()
	}
	return KindServer
}
