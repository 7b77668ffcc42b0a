// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flowhttp

// An Event identifies the plug-in point when installing or running a
// Handler. Install event handlers in a Client to extend it with custom
// functionality.
type Event int

const (
	// BeforeRequest identifies the event that occurs after option
	// validation succeeds and before the worker is spawned.
	//
	// When Client fires BeforeRequest, the exchange carries the plan,
	// the exchange ID, the resolved timeout budget, and the initial
	// send window; the start time is not yet set.
	BeforeRequest Event = iota
	// BeforePart identifies the event that occurs before each
	// body-part, end-of-body, or trailers message is submitted to the
	// worker during a partial upload.
	BeforePart
	// AfterAck identifies the event that occurs each time a worker
	// acknowledgement is consumed, whether on the non-blocking probe
	// fast path or while blocked waiting for credit.
	AfterAck
	// AfterTimeout identifies the event that occurs when the overall
	// or per-chunk budget has elapsed and the worker's forced
	// termination has been confirmed. It fires before AfterResponse
	// for the same exchange, and never fires if the worker's answer
	// won the race against the termination signal.
	AfterTimeout
	// AfterResponse identifies the event that occurs when the exchange
	// resolves to a terminal Result, success or error-kind.
	//
	// AfterResponse does not fire for abnormal worker terminations,
	// which propagate as panics rather than Results.
	AfterResponse
	// AfterRequest identifies the event that occurs after the exchange
	// has fully ended; the exchange end time is set.
	AfterRequest
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events typed as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeRequest",
	"BeforePart",
	"AfterAck",
	"AfterTimeout",
	"AfterResponse",
	"AfterRequest",
}

// Events returns a slice containing all events which can occur during
// an exchange, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeRequest,
		BeforePart,
		AfterAck,
		AfterTimeout,
		AfterResponse,
		AfterRequest,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
