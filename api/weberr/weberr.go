// Package weberr decorates errors with the HTTP response the client
// should receive and with structured fields for the request log. The
// error middleware unpacks both.
package weberr

import "errors"

// Opt decorates an error with extra behaviour.
type Opt func(error) error

func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

// WithResponse attaches the body and status the client receives when
// this error escapes a handler.
func WithResponse(body any, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

// WithFields attaches key/value pairs for the request log.
func WithFields(fields map[string]any) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}

// Response digs through the error chain for an attached response.
func Response(err error) (body any, status int, ok bool) {
	var re *responseError
	if errors.As(err, &re) {
		return re.body, re.status, true
	}
	return nil, 0, false
}

// Fields digs through the error chain for attached log fields.
func Fields(err error) (map[string]any, bool) {
	var fe *fieldsError
	if errors.As(err, &fe) {
		return fe.fields, true
	}
	return nil, false
}

type responseError struct {
	error
	body   any
	status int
}

func (e *responseError) Unwrap() error { return e.error }

type fieldsError struct {
	error
	fields map[string]any
}

func (e *fieldsError) Unwrap() error { return e.error }
