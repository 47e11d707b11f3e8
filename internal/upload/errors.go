package upload

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an upload failure.
type Kind string

const (
	KindConfig   Kind = "configuration"
	KindInput    Kind = "client_input"
	KindUpstream Kind = "upstream"
	KindInternal Kind = "internal"
)

// Client-facing messages.
const (
	MsgInvalidContentType = "Invalid content type"
	MsgMissingBoundary    = "Missing multipart boundary"
	MsgNoFile             = "No file uploaded"
	MsgMalformedBody      = "Malformed multipart body"
	MsgTooLarge           = "File too large"
	MsgUploadFailed       = "Upload failed"
)

// Error carries the category, the message returned to the caller and the
// underlying cause, which is only logged.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the category to an HTTP status.
func (e *Error) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func inputError(message string, err error) *Error {
	return &Error{Kind: KindInput, Message: message, Err: err}
}

func upstreamError(err error) *Error {
	return &Error{Kind: KindUpstream, Message: MsgUploadFailed, Err: err}
}

// internalError surfaces the cause's message to the caller.
func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Message: err.Error(), Err: err}
}

// AsError converts any error into an *Error, treating unknown errors as internal.
func AsError(err error) *Error {
	var uerr *Error
	if errors.As(err, &uerr) {
		return uerr
	}
	return internalError(err)
}
