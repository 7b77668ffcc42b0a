// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"net/http"
)

// A Result is the terminal outcome of one exchange. Exactly one Result
// is produced per request; intermediate acknowledgements during a
// partial upload are not Results.
//
// A success Result carries the status code, status phrase, response
// headers, and the buffered response body. An error-kind Result
// carries a non-nil Err of type *Error instead; its other fields are
// zero. During a partial download the Body field is nil and the body
// is delivered incrementally to the configured observer.
type Result struct {
	// StatusCode is the HTTP response status code, e.g. 200.
	StatusCode int

	// Status is the status line text, e.g. "200 OK".
	Status string

	// Header contains the response headers.
	Header http.Header

	// Body is the fully buffered response body. Nil for an error-kind
	// Result and for a partial download.
	Body []byte

	// Err is non-nil for an error-kind Result and carries the reason
	// (*Error with a Kind of Timeout, ConnectionClosed, or
	// ConnectTimeout). Expected network conditions surface here;
	// worker defects never do.
	Err error
}

// OK reports whether the Result is a success Result.
func (r *Result) OK() bool {
	return r.Err == nil
}

// A Kind identifies one reason in the fixed error taxonomy carried by
// error-kind Results.
type Kind int

const (
	// Timeout means the overall request (or per-chunk) budget elapsed
	// and the worker's forced termination was confirmed.
	Timeout Kind = iota + 1
	// ConnectionClosed means the peer closed the connection past the
	// configured resend budget.
	ConnectionClosed
	// ConnectTimeout means connection establishment exceeded its
	// configured bound.
	ConnectTimeout
)

var kindNames = map[Kind]string{
	Timeout:          "timeout",
	ConnectionClosed: "connection_closed",
	ConnectTimeout:   "connect_timeout",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// An Error is the failure reason carried by an error-kind Result. It
// represents an expected, recoverable network condition, never a
// worker defect.
//
// Error supports errors.Is matching by Kind: any *Error matches any
// other *Error with the same Kind, so sentinel comparisons like
// errors.Is(err, request.ErrTimeout) work regardless of cause.
type Error struct {
	// Kind is the taxonomy reason.
	Kind Kind
	// Cause is the underlying error, if any.
	Cause error
}

// ErrTimeout is the error-kind Result reason produced when a forced
// worker termination for timeout is confirmed. It is also the reason
// carried by the termination signal itself.
var ErrTimeout = &Error{Kind: Timeout}

// NewError returns an *Error of the given kind wrapping cause, which
// may be nil.
func NewError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return "flowhttp: " + e.Kind.String() + ": " + e.Cause.Error()
	}
	return "flowhttp: " + e.Kind.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches target against the error's Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Timeout reports whether the error represents a timeout condition.
// Both the overall-budget Timeout kind and the ConnectTimeout kind
// qualify.
func (e *Error) Timeout() bool {
	return e.Kind == Timeout || e.Kind == ConnectTimeout
}

// KindOf returns the taxonomy Kind of err, or 0 if err is not (and
// does not wrap) an error-kind Result reason.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
