// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

const nilCtxMsg = "flowhttp/request: nil context"

// A Plan describes one logical HTTP request before any work starts on
// it. The client hands the whole plan to a freshly spawned worker,
// which owns the connection and the wire protocol for the plan's
// lifetime.
//
// The field structure mirrors the lower-level http.Request with
// server-only fields removed. Body is a pre-buffered byte slice; for
// chunked uploads leave Body nil and use the client's Upload entry
// point instead.
//
// Like http.Request, a Plan has a context. The context bounds the
// whole exchange and can be used to cancel it at any time, in addition
// to the per-call timeout budget.
type Plan struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// URL specifies the URL to access.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent.
	Header http.Header

	// Body is the pre-buffered request body. A nil or empty body means
	// no request body is sent. Ignored by the streaming entry point,
	// which receives the body part by part instead.
	Body []byte

	// Trailer declares the trailing header keys which may be sent
	// after a chunked upload body. Values supplied later via
	// SendTrailers must use keys declared here if the worker transport
	// requires advance declaration (the net/http transport does).
	Trailer http.Header

	// Close stipulates whether the worker should close the connection
	// after the exchange instead of returning it for reuse.
	Close bool

	// Host optionally overrides the Host header to send. If empty, the
	// value of URL.Host is sent.
	Host string

	// ctx bounds the whole exchange. It should only be modified by
	// copying the whole Plan using WithContext.
	ctx context.Context
}

// NewPlan wraps NewPlanWithContext using the background context.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser. If body is an io.Reader, it is
// read to the end and buffered into a []byte. If body is an
// io.ReadCloser, it is closed after buffering.
func NewPlan(method, url string, body interface{}) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url, body)
}

// NewPlanWithContext returns a new Plan given a method, URL, and
// optional body.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser. If body is an io.Reader, it is
// read to the end and buffered into a []byte. If body is an
// io.ReadCloser, it is closed after buffering.
func NewPlanWithContext(ctx context.Context, method, url string, body interface{}) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("flowhttp/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Plan{
		ctx:    ctx,
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   b,
		Host:   u.Host,
	}, nil
}

// Context returns the plan's context. The context bounds the whole
// exchange. To change the context, use WithContext.
//
// The returned context is always non-nil; it defaults to the
// background context.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p with its context changed to
// ctx, which must be non-nil.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// SetBasicAuth sets the plan's Authorization header to use HTTP Basic
// Authentication with the provided username and password.
//
// With HTTP Basic Authentication the provided username and password
// are not encrypted.
func (p *Plan) SetBasicAuth(username, password string) {
	p.Header.Set("Authorization", "Basic "+basicAuth(username, password))
}

// ToRequest creates a lower-level HTTP request corresponding to the
// plan. The context of the new request is set to ctx, which may not
// be nil. The atomic plan body, if any, is installed with a GetBody
// rewinder so the worker can replay it on a resend.
func (p *Plan) ToRequest(ctx context.Context) *http.Request {
	r, err := http.NewRequestWithContext(ctx, p.Method, p.URL.String(), nil)
	if err != nil {
		panic(fmt.Sprintf("flowhttp/request: plan not convertible: %v", err))
	}
	r.URL = p.URL
	if p.Header != nil {
		r.Header = p.Header
	}
	if len(p.Body) > 0 {
		r.Body = io.NopCloser(bytes.NewReader(p.Body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(p.Body)), nil
		}
		r.ContentLength = int64(len(p.Body))
	}
	if p.Trailer != nil {
		r.Trailer = make(http.Header, len(p.Trailer))
		for k := range p.Trailer {
			r.Trailer[k] = nil
		}
	}
	r.Close = p.Close
	r.Host = p.Host
	return r
}

// BodyBytes converts a generic body parameter to a byte slice for use
// as a plan body.
//
// The body parameter may be nil, or it may be a string, []byte,
// io.Reader, or io.ReadCloser. Readers are drained to the end (and
// closed, for an io.ReadCloser). Any other type is an error.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		err = x.Close()
		if err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		return BodyBytes(io.NopCloser(x))
	default:
		return nil, errors.New("flowhttp/request: invalid type (for body use " +
			"nil, string, []byte, io.Reader or io.ReadCloser)")
	}
}

// basicAuth follows RFC 2617: userid and password, separated by a
// single colon, base64 encoded. It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// validMethod reports whether method is a legal RFC 7230 token. The
// token grammar for methods is the same one httpguts checks for header
// field names.
func validMethod(method string) bool {
	return httpguts.ValidHeaderFieldName(method)
}

// hasPort reports whether a string of the form "host", "host:port" or
// "[ipv6::address]:port" includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort strips the empty port in ":port" to "" as mandated
// by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
