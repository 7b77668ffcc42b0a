// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flowhttp

import (
	"errors"
	"net/url"
	"time"

	"github.com/flowhttp/flowhttp/option"
	"github.com/flowhttp/flowhttp/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do executes an HTTP request plan under the given timeout and options
// and returns the terminal Result (and error, if any). Client
// implements the Doer interface, and any other Doer implementation
// must behave substantially the same as Client.Do.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Doer interface {
	Do(p *request.Plan, timeout time.Duration, opts option.Options) (*request.Result, error)
}

// Uploader is the interface that wraps the basic Upload method.
//
// Upload starts a partial-upload request and returns a handle for
// streaming the body. Client implements the Uploader interface.
type Uploader interface {
	Upload(p *request.Plan, timeout time.Duration, opts option.Options) (*Upload, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Get creates an HTTP request plan to issue a GET to the specified URL
// with the client's default timeout and options, executes it, and
// returns the terminal Result (and error, if any).
//
// Any Doer can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(url string) (*request.Result, error)
}

// Header is the interface that wraps the basic Head method.
//
// Head creates an HTTP request plan to issue a HEAD to the specified
// URL with the client's default timeout and options, executes it, and
// returns the terminal Result (and error, if any).
//
// Any Doer can be used to emulate a Header via the Head function.
type Header interface {
	Head(url string) (*request.Result, error)
}

// Poster is the interface that wraps the basic Post method.
//
// Post creates an HTTP request plan to issue a POST to the specified
// URL with the client's default timeout and options, executes it, and
// returns the terminal Result (and error, if any).
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.NewPlan and request.BodyBytes, namely:
// string; []byte; io.Reader; and io.ReadCloser.
//
// Any Doer can be used to emulate a Poster via the Post function.
type Poster interface {
	Post(url, contentType string, body interface{}) (*request.Result, error)
}

// FormPoster is the interface that wraps the basic PostForm method.
//
// PostForm creates an HTTP request plan to issue a form POST to the
// specified URL, executes it, and returns the terminal Result (and
// error, if any). The plan body is set to the URL-encoded keys and
// values from data, and the content type is set to
// application/x-www-form-urlencoded.
//
// Any Doer can be used to emulate a FormPoster via the PostForm
// function.
type FormPoster interface {
	PostForm(url string, data url.Values) (*request.Result, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes connections which were opened by previous requests and are
// now sitting idle in a "keep-alive" state. It does not interrupt any
// connections currently in use.
//
// If the underlying implementation does not support this ability,
// CloseIdleConnections does nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Do, Upload, Get,
// Head, Post, PostForm, and CloseIdleConnections methods.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Executor interface {
	Doer
	Uploader
	Getter
	Header
	Poster
	FormPoster
	IdleCloser
}

// Get uses the specified Doer to issue a GET to the specified URL,
// under d's default timeout and options.
//
// To make a request plan with custom headers, timeout, or options, use
// request.NewPlan and d.Do.
func Get(d Doer, url string) (*request.Result, error) {
	p, err := request.NewPlan("GET", url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(p, 0, nil)
}

// Head uses the specified Doer to issue a HEAD to the specified URL,
// under d's default timeout and options.
//
// To make a request plan with custom headers, timeout, or options, use
// request.NewPlan and d.Do.
func Head(d Doer, url string) (*request.Result, error) {
	p, err := request.NewPlan("HEAD", url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(p, 0, nil)
}

// Post uses the specified Doer to issue a POST to the specified URL,
// under d's default timeout and options.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.NewPlan and request.BodyBytes, namely:
// string; []byte; io.Reader; and io.ReadCloser.
//
// To make a request plan with custom headers, timeout, or options, use
// request.NewPlan and d.Do.
func Post(d Doer, url, contentType string, body interface{}) (*request.Result, error) {
	b, err := request.BodyBytes(body)
	if err != nil {
		return nil, err
	}
	p, err := request.NewPlan("POST", url, b)
	if err != nil {
		return nil, err
	}
	p.Header.Set("Content-Type", contentType)
	return d.Do(p, 0, nil)
}

// PostForm uses the specified Doer to issue a POST to the specified
// URL, with data's keys and values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
// To set other headers, use request.NewPlan and d.Do.
func PostForm(d Doer, url string, data url.Values) (*request.Result, error) {
	return Post(d, url, "application/x-www-form-urlencoded", data.Encode())
}

// Inflate converts any non-nil Doer into an Executor. This may be
// helpful for interop across library boundaries, i.e. if code that only
// has access to a Doer needs to call a function that requires an
// Executor.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("flowhttp: nil doer")
	}

	if e, ok := d.(Executor); ok {
		return e
	}

	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(p *request.Plan, timeout time.Duration, opts option.Options) (*request.Result, error) {
	return i.doer.Do(p, timeout, opts)
}

func (i inflated) Upload(p *request.Plan, timeout time.Duration, opts option.Options) (*Upload, error) {
	if u, ok := i.doer.(Uploader); ok {
		return u.Upload(p, timeout, opts)
	}
	return nil, errUploadUnsupported
}

var errUploadUnsupported = errors.New("flowhttp: doer does not support partial upload")

func (i inflated) Get(url string) (*request.Result, error) {
	return Get(i.doer, url)
}

func (i inflated) Head(url string) (*request.Result, error) {
	return Head(i.doer, url)
}

func (i inflated) Post(url, contentType string, body interface{}) (*request.Result, error) {
	return Post(i.doer, url, contentType, body)
}

func (i inflated) PostForm(url string, data url.Values) (*request.Result, error) {
	return PostForm(i.doer, url, data)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
