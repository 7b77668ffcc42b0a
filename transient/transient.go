// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"io"
	"syscall"
)

// A Category is the transience category of an error, as reported by
// Categorize.
//
// The category Not means the error is not an expected, transient
// network condition; within a flowhttp worker such errors are defects
// and terminate the worker abnormally. Every other category maps onto
// the error taxonomy of package request, and Closed additionally feeds
// the worker's resend decision for the send_retry option.
type Category int

const (
	// Not indicates any non-transient error.
	Not Category = iota
	// Timeout indicates a client-side timeout: the error, or one of
	// its wrapped causes, has a Timeout() method reporting true.
	Timeout
	// Closed indicates the peer closed the connection: a connection
	// reset, a broken pipe, or an unexpected EOF on a previously
	// active connection. A request whose data was already written when
	// a Closed error occurs is the resend case governed by the
	// send_retry option.
	Closed
	// Refused indicates the remote host refused the connection
	// (ECONNREFUSED). The service may be mid-restart and not yet
	// listening, so the condition is classified transient.
	Refused
)

var names = []string{"not", "timeout", "closed", "refused"}

func (c Category) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// Categorize returns the transience category of the given error. A nil
// error, and any error that does not represent an expected network
// condition, both produce Not.
//
// Categorize inspects wrapped causes, not just err itself. It never
// consults a Temporary() method, as the semantics of Temporary() are
// not well defined.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var t hasTimeout
	if errors.As(err, &t) && t.Timeout() {
		return Timeout
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Closed
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.EPIPE:
			return Closed
		case syscall.ECONNREFUSED:
			return Refused
		}
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
