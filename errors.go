package ember

import (
	"fmt"
	"html"
	"runtime/debug"
)

// ErrorKind classifies the taxonomy of errors the connection loop and
// the resolver can surface.
type ErrorKind uint8

// Error kinds.
const (
	ErrKindMalformedRequest ErrorKind = iota
	ErrKindHeaderTooLarge
	ErrKindUnsupportedMethod
	ErrKindLengthRequired
	ErrKindEntityTooLarge
	ErrKindNotFound
	ErrKindUnauthorized
	ErrKindForbidden
	ErrKindInternal
	ErrKindIO
	ErrKindRemoting
)

// statusText maps an ErrorKind to its default HTTP status and reason
// phrase.
var statusText = map[ErrorKind]struct {
	status int
	text   string
}{
	ErrKindMalformedRequest:  {400, "Bad Request"},
	ErrKindHeaderTooLarge:    {0, ""}, // closed without a response
	ErrKindUnsupportedMethod: {501, "Not Implemented"},
	ErrKindLengthRequired:    {411, "Length Required"},
	ErrKindEntityTooLarge:    {413, "Request Entity Too Large"},
	ErrKindNotFound:          {404, "Not Found"},
	ErrKindUnauthorized:      {401, "Unauthorized"},
	ErrKindForbidden:         {403, "Forbidden"},
	ErrKindInternal:          {500, "Internal Server Error"},
	ErrKindIO:                {0, ""}, // silent close
	ErrKindRemoting:          {0, ""}, // WebSocket peer gone
}

// Error is ember's error type. It carries an ErrorKind, the HTTP status it
// maps to, and an optional user-facing message and cause.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Cause   error

	// Stack is captured at Wrap time so InternalError responses can
	// optionally include it, gated on Config.OutputExceptionInformation.
	Stack []byte
}

// NewError returns an Error of the kind with the default status for that
// kind and the message.
func NewError(kind ErrorKind, message string) *Error {
	st := statusText[kind]
	return &Error{Kind: kind, Status: st.status, Message: message}
}

// NotFound returns an Error carrying the url that could not be resolved,
// raised once the resolver's mapping list is exhausted.
func NotFound(url *URL) *Error {
	msg := "not found"
	if url != nil {
		msg = "no mapping matched " + url.String()
	}
	return NewError(ErrKindNotFound, msg)
}

// Wrap returns an internal Error that wraps cause, as raised by the
// connection loop when a Handler panics or returns an unexpected error.
func Wrap(cause error) *Error {
	if e, ok := cause.(*Error); ok {
		return e
	}
	return &Error{
		Kind:    ErrKindInternal,
		Status:  500,
		Message: cause.Error(),
		Cause:   cause,
		Stack:   debug.Stack(),
	}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return statusText[e.Kind].text
	}
	return fmt.Sprintf("%s: %s", statusText[e.Kind].text, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// ReasonPhrase returns the standard status-code name for the error's
// status, used as the response's reason phrase.
func (e *Error) ReasonPhrase() string {
	if t, ok := statusText[e.Kind]; ok && t.text != "" {
		return t.text
	}
	return StatusText(e.Status)
}

// DefaultErrorResponse builds the minimal HTML error page the connection
// loop falls back to when no error-handler hook is installed, or the
// hook itself declines. For an InternalError, the stack trace is
// included in the body iff includeStack.
func DefaultErrorResponse(err error, includeStack bool) *Response {
	e, ok := err.(*Error)
	if !ok {
		e = Wrap(err)
	}

	status := e.Status
	if status == 0 {
		status = StatusInternalServerError
	}

	body := "<!doctype html><html><head><title>" + html.EscapeString(e.ReasonPhrase()) +
		"</title></head><body><h1>" + html.EscapeString(e.ReasonPhrase()) + "</h1>"
	if e.Message != "" {
		body += "<p>" + html.EscapeString(e.Message) + "</p>"
	}
	if e.Kind == ErrKindInternal && includeStack && len(e.Stack) > 0 {
		body += "<pre>" + html.EscapeString(string(e.Stack)) + "</pre>"
	}
	body += "</body></html>"

	res := NewResponse()
	res.Status = status
	res.Kind = ContentBuffer
	res.buffer = []byte(body)
	res.Headers.ContentType = "text/html; charset=utf-8"
	return res
}
