// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package worker

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flowhttp/flowhttp/option"
	"github.com/flowhttp/flowhttp/request"
	"github.com/flowhttp/flowhttp/retry"
	"github.com/flowhttp/flowhttp/transient"
)

// downloadChunkSize is the read size for partial download delivery.
const downloadChunkSize = 8192

// DefaultPerformer is the Performer used by a zero-value client. It
// speaks HTTP over a shared net/http transport.
var DefaultPerformer Performer = &NetPerformer{}

// NetPerformer is a Performer speaking HTTP/1.1 (and HTTP/2 where the
// peer supports it) over a net/http transport. It implements the
// worker-side halves of the request options:
//
// • connect_timeout bounds dialing only, and is ignored when it
// exceeds the spawning call's overall budget;
//
// • send_retry is honored for atomically-bodied requests by resending
// after a peer close, up to the configured budget (a streamed body
// cannot be replayed, so streaming uploads are never resent);
//
// • partial_download delivers the response body chunk by chunk to the
// configured observer. Delivery is synchronous (the observer's return
// is the credit return), so the effective receive window is one.
//
// Errors outside the fixed taxonomy (DNS failures, TLS faults, refused
// connections) terminate the worker abnormally rather than resolving
// to an error-kind Result.
//
// The zero value is ready to use and safe for concurrent use by
// multiple goroutines; the underlying transport, with its connection
// pool, is built on first use.
type NetPerformer struct {
	// Waiter optionally paces resends. Nil means retry.DefaultWaiter
	// (resend immediately).
	Waiter retry.Waiter

	once      sync.Once
	transport *http.Transport
}

type connectBoundKey struct{}

// connectErr marks an error as having occurred during connection
// establishment, so it can be told apart from errors on an established
// connection when mapping onto the error taxonomy.
type connectErr struct {
	err error
}

func (e *connectErr) Error() string { return "connect: " + e.err.Error() }
func (e *connectErr) Unwrap() error { return e.err }

func (e *connectErr) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.err, &t) && t.Timeout()
}

func (np *NetPerformer) init() {
	np.transport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialWithConnectBound,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// dialWithConnectBound dials with the per-request connect bound pulled
// from the context, and wraps any dial error so the taxonomy mapping
// can recognize the connect phase.
func dialWithConnectBound(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	if bound, ok := ctx.Value(connectBoundKey{}).(time.Duration); ok {
		d.Timeout = bound
	}
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, &connectErr{err: err}
	}
	return conn, nil
}

// Perform implements Performer.
func (np *NetPerformer) Perform(ctx context.Context, lk *Link) {
	np.once.Do(np.init)
	opts := lk.Options()
	if bound := opts.ConnectTimeout; bound >= 0 {
		if budget := lk.Budget(); budget <= 0 || bound <= budget {
			ctx = context.WithValue(ctx, connectBoundKey{}, bound)
		}
	}
	if opts.Upload != nil {
		np.performStream(ctx, lk)
		return
	}
	np.performAtomic(ctx, lk)
}

// performAtomic sends a pre-buffered body, resending after a peer
// close within the send_retry budget.
func (np *NetPerformer) performAtomic(ctx context.Context, lk *Link) {
	pol := retry.NewPolicy(
		retry.Times(lk.Options().SendRetry).And(retry.PeerClosed),
		np.waiter(),
	)
	for attempt := 0; ; attempt++ {
		req := lk.Plan().ToRequest(ctx)
		resp, err := np.transport.RoundTrip(req)
		if err == nil {
			np.receive(ctx, lk, resp)
			return
		}
		if ctx.Err() != nil {
			return // terminated; outcome is moot
		}
		s := retry.State{Attempt: attempt, Err: err}
		if !pol.Decide(s) {
			lk.DeliverError(classify(err))
			return
		}
		if !sleep(ctx, pol.Wait(s)) {
			return
		}
	}
}

// performStream sends a chunked upload body fed by the caller's
// body-part messages. A streamed body cannot be replayed, so there is
// no resend path here.
func (np *NetPerformer) performStream(ctx context.Context, lk *Link) {
	pr, pw := io.Pipe()
	req := lk.Plan().ToRequest(ctx)
	req.Body = pr
	go pump(lk, pw, req.Trailer)
	resp, err := np.transport.RoundTrip(req)
	if err != nil {
		pr.CloseWithError(err) // release the pump
		if ctx.Err() != nil {
			return
		}
		lk.DeliverError(classify(err))
		return
	}
	np.receive(ctx, lk, resp)
}

// pump moves upload parts from the caller into the request body pipe,
// acknowledging each accepted data part. Trailer values are filled
// into the pre-declared trailer keys before the body is closed; keys
// not declared on the Plan are dropped, as the transport has already
// announced the trailer set.
func pump(lk *Link, pw *io.PipeWriter, trailer http.Header) {
	defer pw.Close()
	for {
		part, ok := lk.NextPart()
		if !ok {
			pw.CloseWithError(context.Canceled)
			return
		}
		switch {
		case part.Trailers != nil:
			for k, vv := range part.Trailers {
				if _, declared := trailer[http.CanonicalHeaderKey(k)]; declared {
					trailer[http.CanonicalHeaderKey(k)] = vv
				}
			}
			return
		case part.EOF:
			return
		default:
			if _, err := pw.Write(part.Data); err != nil {
				return
			}
			lk.Ack()
		}
	}
}

// receive turns an HTTP response into the terminal Result, either
// buffered whole or streamed to the partial download observer.
func (np *NetPerformer) receive(ctx context.Context, lk *Link, resp *http.Response) {
	if d := lk.Options().Download; d != nil {
		lk.Deliver(&request.Result{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     resp.Header,
		})
		deliverBody(ctx, resp, d.Observer)
		return
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		lk.DeliverError(classify(err))
		return
	}
	lk.Deliver(&request.Result{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	})
}

// deliverBody streams the response body to the observer. The headers
// Result has already been delivered, so a failure past this point
// cannot produce a second outcome: the body is abandoned and the
// observer can detect truncation by the absence of OnBodyEnd.
func deliverBody(ctx context.Context, resp *http.Response, ob option.BodyObserver) {
	defer func() {
		_ = resp.Body.Close()
	}()
	buf := make([]byte, downloadChunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			part := make([]byte, n)
			copy(part, buf[:n])
			if oerr := ob.OnBodyPart(part); oerr != nil {
				return
			}
		}
		if err == io.EOF {
			_ = ob.OnBodyEnd(resp.Trailer)
			return
		}
		if err != nil || ctx.Err() != nil {
			return
		}
	}
}

// CloseIdleConnections closes connections sitting idle in the
// transport's keep-alive pool. It does not interrupt connections
// currently in use.
func (np *NetPerformer) CloseIdleConnections() {
	np.once.Do(np.init)
	np.transport.CloseIdleConnections()
}

func (np *NetPerformer) waiter() retry.Waiter {
	if np.Waiter != nil {
		return np.Waiter
	}
	return retry.DefaultWaiter
}

// classify maps a transport error onto the fixed error taxonomy. An
// error with no taxonomy reason is an implementation-defined fault and
// terminates the worker abnormally.
func classify(err error) *request.Error {
	var ce *connectErr
	if errors.As(err, &ce) && ce.Timeout() {
		return request.NewError(request.ConnectTimeout, err)
	}
	if transient.Categorize(err) == transient.Closed {
		return request.NewError(request.ConnectionClosed, err)
	}
	panic(err)
}

// sleep waits d, returning false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
