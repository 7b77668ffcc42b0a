// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package option

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Recognized option keys. Any key outside this set is rejected by
// Parse.
const (
	// ConnectTimeout bounds connection establishment only, independent
	// of the overall request timeout. The value may be a non-negative
	// time.Duration, a non-negative int or int64 (interpreted as
	// milliseconds), or NoLimit. A connect timeout which exceeds the
	// overall request timeout is ignored.
	ConnectTimeout = "connect_timeout"
	// SendRetry is the number of resend attempts permitted if the peer
	// closes the connection after data was sent but before a response
	// was read. The value must be a non-negative int. The default is 1.
	SendRetry = "send_retry"
	// PartialUpload enables chunked body submission by the caller. The
	// value is a send window size: a non-negative int or NoLimit.
	PartialUpload = "partial_upload"
	// PartialDownload enables chunked response delivery to a caller
	// supplied observer. The value must be a Download with a non-nil
	// Observer.
	PartialDownload = "partial_download"
)

// NoLimit marks an option value as unbounded. It is accepted as the
// value of ConnectTimeout and PartialUpload.
var NoLimit = noLimit{}

type noLimit struct{}

func (noLimit) String() string { return "no limit" }

// Options is the raw option bag accepted by the client entry points.
// Use Parse to turn a bag into a validated Parsed value.
type Options map[string]interface{}

// A Window is a signed flow-control credit counter. Zero means the
// sender must wait for credit before sending more data; a positive
// value permits an immediate send; Unbounded permits any number of
// sends and is unaffected by Dec.
type Window int

// Unbounded is the window value carrying unlimited send credit.
const Unbounded Window = -1

// Open reports whether the window permits an immediate send.
func (w Window) Open() bool {
	return w != 0
}

// Dec consumes one credit. A zero or unbounded window is returned
// unchanged.
func (w Window) Dec() Window {
	if w <= 0 {
		return w
	}
	return w - 1
}

func (w Window) String() string {
	if w == Unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", int(w))
}

// A BodyObserver consumes a partial download incrementally. The
// methods are called from the worker; returning an error from either
// method abandons the download.
type BodyObserver interface {
	// OnBodyPart delivers one chunk of the response body. The chunk is
	// owned by the observer after the call returns.
	OnBodyPart(part []byte) error
	// OnBodyEnd signals the end of the response body, together with
	// any trailing headers sent by the peer.
	OnBodyEnd(trailers http.Header) error
}

// Download is the value shape required for the PartialDownload option:
// an observer to deliver response body chunks to, and a receive window
// size.
type Download struct {
	Observer BodyObserver
	Window   Window
}

// Parsed is a validated, typed view of an option bag, as produced by
// Parse. The zero value of each field is the documented default.
type Parsed struct {
	// ConnectTimeout is the connection establishment bound, or a
	// negative duration if establishment is unbounded (the default).
	ConnectTimeout time.Duration
	// SendRetry is the resend budget after a peer close. Default 1.
	SendRetry int
	// Upload is the send window for a partial upload, or nil if the
	// body is sent atomically.
	Upload *Window
	// Download is the partial download configuration, or nil if the
	// response body is buffered and returned whole.
	Download *Download
}

// A BadEntry records one rejected option bag entry.
type BadEntry struct {
	Key   string
	Value interface{}
}

func (b BadEntry) String() string {
	return fmt.Sprintf("{%s, %v}", b.Key, b.Value)
}

// A BadOptionsError reports every rejected entry of an option bag, not
// merely the first. It indicates a caller programming error and is
// always returned before any request work starts.
type BadOptionsError struct {
	Entries []BadEntry
}

func (e *BadOptionsError) Error() string {
	var sb strings.Builder
	sb.WriteString("flowhttp/option: bad options: ")
	for i, entry := range e.Entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(entry.String())
	}
	return sb.String()
}

// Parse validates a raw option bag and returns its typed form.
//
// Parse scans the whole bag before failing, so the returned
// *BadOptionsError lists every offending entry: unrecognized keys,
// recognized keys with the wrong value type, and recognized keys with
// out-of-range values. Parse is a pure function; a nil bag is valid
// and yields the defaults.
func Parse(opts Options) (*Parsed, error) {
	p := &Parsed{
		ConnectTimeout: -1,
		SendRetry:      1,
	}
	var bad []BadEntry
	for key, value := range opts {
		switch key {
		case ConnectTimeout:
			d, ok := durationValue(value)
			if !ok {
				bad = append(bad, BadEntry{key, value})
				continue
			}
			p.ConnectTimeout = d
		case SendRetry:
			n, ok := value.(int)
			if !ok || n < 0 {
				bad = append(bad, BadEntry{key, value})
				continue
			}
			p.SendRetry = n
		case PartialUpload:
			w, ok := windowValue(value)
			if !ok {
				bad = append(bad, BadEntry{key, value})
				continue
			}
			p.Upload = &w
		case PartialDownload:
			d, ok := value.(Download)
			if !ok || d.Observer == nil || d.Window < Unbounded {
				bad = append(bad, BadEntry{key, value})
				continue
			}
			p.Download = &d
		default:
			bad = append(bad, BadEntry{key, value})
		}
	}
	if bad != nil {
		// Map iteration order is random; fix it for error reporting.
		sort.Slice(bad, func(i, j int) bool { return bad[i].Key < bad[j].Key })
		return nil, &BadOptionsError{Entries: bad}
	}
	return p, nil
}

func durationValue(value interface{}) (time.Duration, bool) {
	switch v := value.(type) {
	case noLimit:
		return -1, true
	case time.Duration:
		if v < 0 {
			return 0, false
		}
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return time.Duration(v) * time.Millisecond, true
	case int64:
		if v < 0 {
			return 0, false
		}
		return time.Duration(v) * time.Millisecond, true
	default:
		return 0, false
	}
}

func windowValue(value interface{}) (Window, bool) {
	switch v := value.(type) {
	case noLimit:
		return Unbounded, true
	case Window:
		if v < Unbounded {
			return 0, false
		}
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return Window(v), true
	default:
		return 0, false
	}
}
