// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/flowhttp/flowhttp/option"
	"github.com/flowhttp/flowhttp/request"
)

// unboundedPartCap is the part buffer capacity used when the upload
// window is unbounded. An unbounded window promises the caller it may
// send without blocking as long as the worker keeps consuming; 32
// parts of headroom covers a worker that is momentarily behind.
const unboundedPartCap = 32

// ErrNoOutcome is the abnormal termination reason recorded when a
// worker's performer returns without delivering a terminal Result.
// It indicates a defective Performer implementation.
var ErrNoOutcome = errors.New("flowhttp/worker: performer exited without delivering an outcome")

// A Part is one message of the upload stream sent from the caller to
// the worker: a chunk of body data, the end-of-body marker, or the
// trailer list.
type Part struct {
	// Data is one chunk of a partial upload body.
	Data []byte
	// EOF marks the end of the upload body. Data is ignored.
	EOF bool
	// Trailers carries the trailing headers. A non-nil value also
	// marks the end of the upload body.
	Trailers http.Header
}

// A Failure describes the abnormal termination of a worker: a death
// not attributable to a forced termination signal. It is the value the
// orchestrator panics with when propagating the death to the caller's
// execution context.
type Failure struct {
	// Reason is the recovered panic value or error that terminated the
	// worker.
	Reason interface{}
}

func (f *Failure) Error() string {
	return fmt.Sprintf("flowhttp/worker: abnormal worker termination: %v", f.Reason)
}

// A Performer executes the wire protocol for one request: connection
// establishment, sending the request, and receiving the response. It
// is the externally supplied half of the worker; the surrounding
// lifecycle (linking, forced termination, death reporting) belongs to
// this package.
//
// Perform must deliver exactly one terminal outcome through the Link
// before returning, unless ctx is cancelled first. A panic inside
// Perform, or a return without an outcome on a live context, is an
// abnormal termination.
//
// Implementations must be safe for concurrent use by multiple
// goroutines: one Perform call runs per spawned worker.
type Performer interface {
	Perform(ctx context.Context, lk *Link)
}

// A Handle is the caller's reference to one spawned, linked worker. It
// exists for the duration of one request and goes permanently silent
// once a terminal Result has been delivered or death is confirmed.
//
// The channel accessors expose the worker's three message kinds
// (result, ack, failure) plus the lifecycle observation channel. The
// Handle is owned by a single calling goroutine; it is not safe for
// concurrent use.
type Handle struct {
	resultc chan *request.Result
	ackc    chan struct{}
	failc   chan *Failure
	partc   chan Part
	killc   chan error
	diedc   chan struct{}

	killOnce sync.Once
	reason   error // written by the shell before diedc closes
}

// Result returns the channel on which the worker delivers its terminal
// Result. At most one value is ever sent.
func (h *Handle) Result() <-chan *request.Result {
	return h.resultc
}

// Ack returns the channel on which the worker acknowledges accepted
// body parts.
func (h *Handle) Ack() <-chan struct{} {
	return h.ackc
}

// Failed returns the supervisory channel standing in for the failure
// propagating link: an abnormal termination is delivered here before
// the worker dies. At most one value is ever sent.
func (h *Handle) Failed() <-chan *Failure {
	return h.failc
}

// Parts returns the channel on which the caller submits upload parts.
// Its capacity matches the configured send window, so a caller honoring
// the window never blocks here while the worker is alive.
func (h *Handle) Parts() chan<- Part {
	return h.partc
}

// Kill sends the forced-termination signal carrying the given reason.
// Delivery is guaranteed even if the worker is stuck mid-protocol: the
// worker shell abandons a wedged performer rather than waiting for it.
// Kill never blocks and is idempotent; only the first reason counts.
func (h *Handle) Kill(reason error) {
	h.killOnce.Do(func() {
		h.killc <- reason
	})
}

// Died returns the lifecycle observation channel. It is closed when
// the worker has terminated, whether normally, abnormally, or by
// forced termination, and remains distinguishable from the failure
// link after Kill.
func (h *Handle) Died() <-chan struct{} {
	return h.diedc
}

// DeathReason returns the reason the worker died. It is valid only
// after Died is closed. A nil reason means the worker terminated
// normally after delivering its Result; the reason passed to Kill
// means the forced termination took effect; anything else is the
// abnormal termination reason.
func (h *Handle) DeathReason() error {
	return h.reason
}

// A Link is the worker side of the message protocol: the Performer
// uses it to consume upload parts and to produce acks and the terminal
// Result.
type Link struct {
	ctx       context.Context
	h         *Handle
	plan      *request.Plan
	opts      *option.Parsed
	budget    time.Duration
	delivered bool
}

// Plan returns the full request description the worker was handed at
// spawn time.
func (lk *Link) Plan() *request.Plan {
	return lk.plan
}

// Options returns the validated request options.
func (lk *Link) Options() *option.Parsed {
	return lk.opts
}

// Budget returns the overall timeout budget of the call that spawned
// the worker, or a non-positive duration if the call is unbounded. A
// connect timeout exceeding the budget is to be ignored.
func (lk *Link) Budget() time.Duration {
	return lk.budget
}

// Deliver sends the terminal Result to the caller. It must be called
// exactly once per exchange; after Deliver the worker must not send
// anything else to the caller. Deliver returns without sending if the
// worker has been terminated.
func (lk *Link) Deliver(r *request.Result) {
	if lk.delivered {
		panic("flowhttp/worker: second terminal outcome on one exchange")
	}
	lk.delivered = true
	if lk.ctx.Err() != nil {
		// Terminated; the handle must stay silent.
		return
	}
	select {
	case lk.h.resultc <- r:
	case <-lk.ctx.Done():
	}
}

// DeliverError delivers an error-kind terminal Result carrying the
// given taxonomy reason.
func (lk *Link) DeliverError(err *request.Error) {
	lk.Deliver(&request.Result{Err: err})
}

// Ack acknowledges one accepted body-part message, returning one
// window credit to the caller. Ack returns without sending if the
// worker has been terminated.
func (lk *Link) Ack() {
	if lk.ctx.Err() != nil {
		return
	}
	select {
	case lk.h.ackc <- struct{}{}:
	case <-lk.ctx.Done():
	}
}

// NextPart blocks for the next upload part from the caller. It returns
// ok == false if the worker is terminated before a part arrives.
func (lk *Link) NextPart() (part Part, ok bool) {
	select {
	case part = <-lk.h.partc:
		return part, true
	case <-lk.ctx.Done():
		return Part{}, false
	}
}

// Spawn creates exactly one worker for the given request description
// and starts it immediately. Spawning never blocks on network
// activity: the returned Handle is live before any connection work
// begins.
//
// The worker is linked to the caller through the Handle's supervisory
// channels: a terminal Result arrives on Result, an abnormal
// termination on Failed, and the worker's eventual death closes Died.
// budget is the overall timeout of the spawning call (non-positive for
// unbounded); it is advisory, the caller enforces it with Kill.
func Spawn(p *request.Plan, opts *option.Parsed, budget time.Duration, pf Performer) *Handle {
	if pf == nil {
		panic("flowhttp/worker: nil performer")
	}
	partCap := 1
	if opts.Upload != nil {
		switch w := *opts.Upload; {
		case w == option.Unbounded:
			partCap = unboundedPartCap
		case w > 1:
			partCap = int(w)
		}
	}
	h := &Handle{
		resultc: make(chan *request.Result, 1),
		ackc:    make(chan struct{}, partCap+1),
		failc:   make(chan *Failure, 1),
		partc:   make(chan Part, partCap),
		killc:   make(chan error, 1),
		diedc:   make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(p.Context())
	lk := &Link{ctx: ctx, h: h, plan: p, opts: opts, budget: budget}
	go shell(ctx, cancel, h, lk, pf)
	return h
}

// shell supervises one performer. It propagates an abnormal end on the
// failure link, records the death reason, and closes the lifecycle
// observation channel, always in that order, so an observer seeing
// Died closed can trust DeathReason.
func shell(ctx context.Context, cancel context.CancelFunc, h *Handle, lk *Link, pf Performer) {
	defer close(h.diedc)
	defer cancel()

	perfDone := make(chan *Failure, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				perfDone <- &Failure{Reason: v}
				return
			}
			perfDone <- nil
		}()
		pf.Perform(ctx, lk)
	}()

	select {
	case f := <-perfDone:
		if f == nil && !lk.delivered {
			if err := ctx.Err(); err != nil {
				// Cancelled through the plan context; not a defect.
				h.reason = err
				return
			}
			f = &Failure{Reason: ErrNoOutcome}
		}
		if f != nil {
			h.reason = f
			h.failc <- f
		}
	case reason := <-h.killc:
		// Forced termination. The performer goroutine is abandoned; it
		// unblocks through ctx cancellation and cannot reach the caller
		// afterward because Deliver and Ack select on ctx.
		h.reason = reason
	}
}
