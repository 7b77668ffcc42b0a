// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flowhttp

import (
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/flowhttp/flowhttp/option"
	"github.com/flowhttp/flowhttp/request"
	"github.com/flowhttp/flowhttp/timeout"
	"github.com/flowhttp/flowhttp/worker"
)

// Client is a robust HTTP client that runs every request in its own
// linked worker and races the worker's answer against the caller's
// timeout. Use the Do method for an atomic request, or the Upload
// method to stream the request body under a credit window.
//
// Client ends every exchange in bounded time with exactly one outcome:
// a terminal Result (success or error-kind), a *option.BadOptionsError
// returned before any work starts, or a panic carrying the
// *worker.Failure of an abnormally dead worker.
//
// Client is safe for concurrent use by multiple goroutines, provided
// its public fields are not modified while requests are in flight. The
// zero value is a complete working client with the default performer
// and a 30 second timeout policy.
type Client struct {
	// Performer executes the wire protocol for each spawned worker. If
	// nil, worker.DefaultPerformer is used.
	Performer worker.Performer

	// TimeoutPolicy supplies the overall budget for calls made with a
	// non-positive timeout. If nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy

	// Handlers installs event handler chains to be run at the plug-in
	// points defined by the Event constants.
	Handlers *HandlerGroup
}

// Do makes an HTTP request with the given timeout and options, blocking
// until the exchange resolves.
//
// If the option bag is invalid, Do returns a *option.BadOptionsError
// listing every offending entry and no request work starts. The
// PartialUpload option is rejected here too; streamed bodies go through
// the Upload method.
//
// Otherwise Do spawns one worker for the request and waits for the
// first of three outcomes. A terminal Result wins outright: a success
// Result is returned with a nil error, and an error-kind Result is
// returned alongside its *request.Error reason. An elapsed timeout
// forcibly terminates the worker; once the death is confirmed, Do
// returns an error-kind Result with reason request.ErrTimeout, unless
// the worker's answer slipped in first, in which case the answer is
// honored. An abnormal worker death makes Do panic with the
// *worker.Failure; it is never folded into an error return.
//
// A timeout of zero or less delegates to the client's TimeoutPolicy.
func (c *Client) Do(p *request.Plan, timeout time.Duration, opts option.Options) (*request.Result, error) {
	parsed, err := option.Parse(opts)
	if err != nil {
		return nil, err
	}
	if parsed.Upload != nil {
		return nil, &option.BadOptionsError{Entries: []option.BadEntry{
			{Key: option.PartialUpload, Value: *parsed.Upload},
		}}
	}
	x, h := c.begin(p, timeout, parsed)
	tm := time.NewTimer(x.Budget)
	defer tm.Stop()
	return c.awaitResult(x, h, tm)
}

// Upload starts a partial-upload request and returns an Upload handle
// for streaming the body. It validates options and spawns the worker
// but does not wait for any network activity, so it returns promptly.
//
// If the option bag is invalid, Upload returns a
// *option.BadOptionsError listing every offending entry. A bag without
// the PartialUpload key gets an unbounded send window.
//
// The timeout passed here sets the exchange budget recorded on the
// returned handle's exchange; each subsequent streaming call brings its
// own per-call timeout.
func (c *Client) Upload(p *request.Plan, timeout time.Duration, opts option.Options) (*Upload, error) {
	parsed, err := option.Parse(opts)
	if err != nil {
		return nil, err
	}
	if parsed.Upload == nil {
		w := option.Unbounded
		parsed.Upload = &w
	}
	x, h := c.begin(p, timeout, parsed)
	return &Upload{client: c, x: x, h: h, window: *parsed.Upload}, nil
}

// Get issues a GET to the specified URL under the client's timeout
// policy, with no options.
func (c *Client) Get(url string) (*request.Result, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL under the client's timeout
// policy, with no options.
func (c *Client) Head(url string) (*request.Result, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL under the client's timeout
// policy, with no options.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.NewPlan and request.BodyBytes, namely:
// string; []byte; io.Reader; and io.ReadCloser.
func (c *Client) Post(url, contentType string, body interface{}) (*request.Result, error) {
	return Post(c, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body and the Content-Type header
// set to application/x-www-form-urlencoded.
func (c *Client) PostForm(url string, data url.Values) (*request.Result, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections asks the client's performer to close idle
// keep-alive connections. It does nothing if the performer does not
// support the ability.
func (c *Client) CloseIdleConnections() {
	if ic, ok := c.performer().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

// begin creates the exchange, fires BeforeRequest, and spawns the
// worker. The options must already be validated.
func (c *Client) begin(p *request.Plan, d time.Duration, parsed *option.Parsed) (*request.Exchange, *worker.Handle) {
	if p == nil {
		panic("flowhttp: nil plan")
	}
	x := &request.Exchange{
		Plan:   p,
		ID:     uuid.New(),
		Budget: c.budget(p, d),
	}
	if parsed.Upload != nil {
		x.Window = *parsed.Upload
	}
	c.handlers().run(BeforeRequest, x)
	x.Start = time.Now()
	h := worker.Spawn(p, parsed, x.Budget, c.performer())
	return x, h
}

func (c *Client) budget(p *request.Plan, d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	pol := c.TimeoutPolicy
	if pol == nil {
		pol = timeout.DefaultPolicy
	}
	return pol.Timeout(p)
}

func (c *Client) performer() worker.Performer {
	if c.Performer != nil {
		return c.Performer
	}
	return worker.DefaultPerformer
}

func (c *Client) handlers() *HandlerGroup {
	if c.Handlers != nil {
		return c.Handlers
	}
	return &emptyHandlers
}

var emptyHandlers HandlerGroup

// awaitResult runs the completion race for one blocking call: the
// worker's terminal Result against its abnormal death against the
// ticking budget against cancellation of the plan context. When an
// answer and a competing signal are simultaneously available, the
// answer wins.
func (c *Client) awaitResult(x *request.Exchange, h *worker.Handle, tm *time.Timer) (*request.Result, error) {
	select {
	case r := <-h.Result():
		return c.resolve(x, r)
	case f := <-h.Failed():
		if r, ok := probeResult(h); ok {
			return c.resolve(x, r)
		}
		c.abort(x, f)
		panic("unreachable")
	case <-tm.C:
		return c.terminate(x, h, request.ErrTimeout)
	case <-x.Plan.Context().Done():
		return c.terminate(x, h, x.Plan.Context().Err())
	}
}

// terminate is the worker termination enforcer. It sends the forced
// termination signal and then blocks until the worker is confirmed
// dead, so that no exchange leaves a live worker behind. If the
// worker's answer arrives before the death is confirmed, the answer is
// honored and the termination becomes a no-op against an already dead
// worker.
func (c *Client) terminate(x *request.Exchange, h *worker.Handle, reason error) (*request.Result, error) {
	h.Kill(reason)
	select {
	case r := <-h.Result():
		return c.resolve(x, r)
	case <-h.Died():
		if r, ok := probeResult(h); ok {
			return c.resolve(x, r)
		}
		dr := h.DeathReason()
		if errors.Is(dr, reason) {
			if errors.Is(reason, request.ErrTimeout) {
				c.handlers().run(AfterTimeout, x)
				return c.resolve(x, &request.Result{Err: request.ErrTimeout})
			}
			// Plan context cancellation; not part of the error-kind
			// taxonomy, so it surfaces as a bare error.
			x.Err = reason
			x.End = time.Now()
			c.handlers().run(AfterRequest, x)
			return nil, reason
		}
		// A plan context cancellation can reach the worker before the
		// termination signal does; it is still an expected death.
		if cerr := x.Plan.Context().Err(); cerr != nil && errors.Is(dr, cerr) {
			x.Err = dr
			x.End = time.Now()
			c.handlers().run(AfterRequest, x)
			return nil, dr
		}
		// The worker died of its own accord while the termination signal
		// was in flight.
		if f, ok := dr.(*worker.Failure); ok {
			c.abort(x, f)
		}
		c.abort(x, &worker.Failure{Reason: dr})
		panic("unreachable")
	}
}

// resolve records the terminal Result on the exchange, fires the
// closing events, and maps the Result to the entry point's return
// shape.
func (c *Client) resolve(x *request.Exchange, r *request.Result) (*request.Result, error) {
	x.Result = r
	x.Err = r.Err
	x.End = time.Now()
	c.handlers().run(AfterResponse, x)
	c.handlers().run(AfterRequest, x)
	if r.Err != nil {
		return r, r.Err
	}
	return r, nil
}

// abort propagates an abnormal worker termination to the caller's
// execution context. It never returns.
func (c *Client) abort(x *request.Exchange, f *worker.Failure) {
	x.Err = f
	x.End = time.Now()
	panic(f)
}

// probeResult makes a single non-blocking attempt to read the worker's
// terminal Result, for the tie-breaks where an answer and a competing
// signal are both available.
func probeResult(h *worker.Handle) (*request.Result, bool) {
	select {
	case r := <-h.Result():
		return r, true
	default:
		return nil, false
	}
}
