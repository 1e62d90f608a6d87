// Package apperr defines the closed set of error kinds the API can surface.
// Every service-level failure is normalized to one of these kinds before it
// reaches a handler; raw storage errors never escape.
package apperr

import "net/http"

type Kind int

const (
	InvalidArgument Kind = iota // malformed or missing input
	Unauthenticated             // missing/invalid credential
	PermissionDenied            // caller is known but not allowed
	NotFound                    // entity does not exist (or is hidden from the caller)
	Conflict                    // uniqueness violation, e.g. duplicate email
	Internal                    // unexpected storage/runtime failure
)

// Error carries a kind, a user-facing message and, for schema-level
// validation failures, a list of per-field messages.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	return e.Message
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Invalid(message string) *Error {
	return &Error{Kind: InvalidArgument, Message: message}
}

// Validation builds an InvalidArgument error carrying per-field messages.
func Validation(fields []string) *Error {
	msg := "Invalid data was sent!"
	if len(fields) > 0 {
		msg = fields[0]
	}
	return &Error{Kind: InvalidArgument, Message: msg, Fields: fields}
}

// ServerError is the generic Internal error handed out when a storage call
// fails for any reason other than an explicit validation/authorization rule.
func ServerError() *Error {
	return &Error{Kind: Internal, Message: "Server Error!"}
}

// From returns err as *Error when it is one, or wraps it as Internal.
// Services use it at their storage boundaries so an unanticipated Mongo
// error never leaks its text to a client.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*Error); ok {
		return ae
	}
	return ServerError()
}
