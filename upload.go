// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flowhttp

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/flowhttp/flowhttp/option"
	"github.com/flowhttp/flowhttp/request"
	"github.com/flowhttp/flowhttp/worker"
)

// An Upload is the caller's handle on an in-flight partial upload. It
// is created by Client.Upload and tracks the remaining send window
// alongside the worker link.
//
// Send body chunks with SendBodyPart, then end the body with Finish or
// SendTrailers. Any streaming call may instead resolve the exchange: if
// the worker's terminal Result arrives mid-stream (an early peer
// response, an error-kind outcome, or a confirmed per-call timeout),
// the call returns that Result and the handle is spent. An abnormal
// worker death mid-stream panics with the *worker.Failure, exactly as
// in Client.Do.
//
// An Upload is owned by a single goroutine; it is not safe for
// concurrent use. Calling any method after the exchange has resolved
// panics.
type Upload struct {
	client *Client
	x      *request.Exchange
	h      *worker.Handle
	window option.Window
	spent  bool
}

// Window returns the current send window: the number of parts that can
// be submitted without blocking for credit, or option.Unbounded.
func (u *Upload) Window() option.Window {
	return u.window
}

// Exchange returns the exchange being streamed.
func (u *Upload) Exchange() *request.Exchange {
	return u.x
}

// SendBodyPart submits one body chunk to the worker, blocking for
// window credit if none is available.
//
// With an open window the chunk is handed over immediately and one
// credit is speculatively consumed: a single non-blocking probe of the
// acknowledgement channel is made, and if an ack is already waiting the
// credit survives, otherwise the window shrinks by one. An unbounded
// window never shrinks. With a zero window SendBodyPart blocks until an
// ack returns a credit, the budget elapses, or the exchange resolves;
// the chunk is not dropped by the wait, it is sent once credit arrives.
//
// On the streaming path SendBodyPart returns the updated handle and a
// nil Result. If the exchange resolves instead, it returns a nil handle
// and the terminal Result, following the Client.Do contract. A timeout
// here is a per-call budget on this chunk, enforced the same way: the
// worker is forcibly terminated and the confirmed death yields a
// timeout error-kind Result.
func (u *Upload) SendBodyPart(part []byte, timeout time.Duration) (*Upload, *request.Result, error) {
	c := u.client
	u.ready()
	u.x.Budget = c.budget(u.x.Plan, timeout)
	tm := time.NewTimer(u.x.Budget)
	defer tm.Stop()

	c.handlers().run(BeforePart, u.x)
	for {
		if u.window.Open() {
			select {
			case u.h.Parts() <- worker.Part{Data: part}:
				u.x.PartsSent++
				// Speculative decrement: a credit already returned keeps
				// the window unchanged.
				select {
				case <-u.h.Ack():
					u.x.Acks++
					c.handlers().run(AfterAck, u.x)
				default:
					u.window = u.window.Dec()
				}
				u.x.Window = u.window
				return u, nil, nil
			case r := <-u.h.Result():
				res, err := u.end(r)
				return nil, res, err
			case f := <-u.h.Failed():
				if r, ok := probeResult(u.h); ok {
					res, err := u.end(r)
					return nil, res, err
				}
				u.spent = true
				c.abort(u.x, f)
			case <-tm.C:
				r, err := c.terminate(u.x, u.h, request.ErrTimeout)
				u.spent = true
				return nil, r, err
			}
			continue
		}
		// Window exhausted; each consumed ack returns exactly one credit.
		select {
		case <-u.h.Ack():
			u.window++
			u.x.Acks++
			u.x.Window = u.window
			c.handlers().run(AfterAck, u.x)
		case r := <-u.h.Result():
			res, err := u.end(r)
			return nil, res, err
		case f := <-u.h.Failed():
			if r, ok := probeResult(u.h); ok {
				res, err := u.end(r)
				return nil, res, err
			}
			u.spent = true
			c.abort(u.x, f)
		case <-tm.C:
			r, err := c.terminate(u.x, u.h, request.ErrTimeout)
			u.spent = true
			return nil, r, err
		}
	}
}

// Finish ends the upload body without trailers and blocks until the
// exchange resolves, returning the terminal Result under the Client.Do
// contract.
func (u *Upload) Finish(timeout time.Duration) (*request.Result, error) {
	return u.finish(worker.Part{EOF: true}, timeout)
}

// SendTrailers ends the upload body with the given trailing headers and
// blocks until the exchange resolves, returning the terminal Result
// under the Client.Do contract.
//
// Trailer names are validated before anything is sent; an invalid name
// fails the call without disturbing the in-flight upload.
func (u *Upload) SendTrailers(trailers http.Header, timeout time.Duration) (*request.Result, error) {
	if err := validTrailers(trailers); err != nil {
		return nil, err
	}
	return u.finish(worker.Part{Trailers: trailers}, timeout)
}

// finish submits an end-of-body message and waits out the completion
// race. The end marker is accepted regardless of the remaining window;
// only body data consumes credit.
func (u *Upload) finish(part worker.Part, timeout time.Duration) (*request.Result, error) {
	c := u.client
	u.ready()
	u.x.Budget = c.budget(u.x.Plan, timeout)
	tm := time.NewTimer(u.x.Budget)
	defer tm.Stop()

	c.handlers().run(BeforePart, u.x)
	select {
	case u.h.Parts() <- part:
		u.x.PartsSent++
	case r := <-u.h.Result():
		return u.end(r)
	case f := <-u.h.Failed():
		if r, ok := probeResult(u.h); ok {
			return u.end(r)
		}
		u.spent = true
		c.abort(u.x, f)
	case <-tm.C:
		r, err := c.terminate(u.x, u.h, request.ErrTimeout)
		u.spent = true
		return r, err
	}

	r, err := c.awaitResult(u.x, u.h, tm)
	u.spent = true
	return r, err
}

func (u *Upload) ready() {
	if u.spent {
		panic("flowhttp: upload already resolved")
	}
}

// end resolves the exchange with a terminal Result that arrived during
// a streaming call.
func (u *Upload) end(r *request.Result) (*request.Result, error) {
	u.spent = true
	return u.client.resolve(u.x, r)
}

func validTrailers(trailers http.Header) error {
	var bad []string
	for name := range trailers {
		if !httpguts.ValidTrailerHeader(name) {
			bad = append(bad, name)
		}
	}
	if bad == nil {
		return nil
	}
	sort.Strings(bad)
	return fmt.Errorf("flowhttp: invalid trailer name(s): %s", strings.Join(bad, ", "))
}
