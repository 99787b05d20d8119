package backend

import "errors"

// Kind classifies every way a backend call can fail. Callers never see a
// raw transport error.
type Kind string

const (
	// KindInvalidInput is local pre-flight validation; no request was sent.
	KindInvalidInput Kind = "invalid_input"
	// KindUnreachable covers connection, DNS and timeout failures.
	KindUnreachable Kind = "unreachable"
	// KindClientError is any 4xx response.
	KindClientError Kind = "client_error"
	// KindServerError is any 5xx response.
	KindServerError Kind = "server_error"
	// KindDecodeError means the response body did not match the expected shape.
	KindDecodeError Kind = "decode_error"
)

// Error is the single failure type returned by the client.
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status code for ClientError/ServerError, zero otherwise.
	Status int
}

func (e *Error) Error() string {
	return e.Message
}

// AsError unwraps err into a *Error when it carries one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the failure kind of err, or an empty Kind for non-client errors.
func KindOf(err error) Kind {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Kind
	}
	return ""
}
