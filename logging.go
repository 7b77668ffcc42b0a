// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flowhttp

import (
	"github.com/rs/zerolog"

	"github.com/flowhttp/flowhttp/request"
)

// LogHandler returns an event handler emitting one structured record
// per event on the given logger. Install it on every event, or only on
// the events of interest:
//
//	handlers := &flowhttp.HandlerGroup{}
//	h := flowhttp.LogHandler(log)
//	for _, evt := range flowhttp.Events() {
//		handlers.PushBack(evt, h)
//	}
//
// The per-part streaming events (BeforePart, AfterAck) log at debug
// level; everything else logs at info level. Every record carries the
// exchange ID, so one request's records can be correlated across
// events and across concurrent requests.
func LogHandler(log zerolog.Logger) Handler {
	return HandlerFunc(func(evt Event, x *request.Exchange) {
		var ev *zerolog.Event
		switch evt {
		case BeforePart, AfterAck:
			ev = log.Debug()
		default:
			ev = log.Info()
		}
		ev = ev.
			Stringer("exchange", x.ID).
			Stringer("event", evt).
			Str("method", x.Plan.Method).
			Stringer("url", x.Plan.URL)
		switch evt {
		case BeforePart, AfterAck:
			ev = ev.
				Stringer("window", x.Window).
				Int("parts", x.PartsSent).
				Int("acks", x.Acks)
		}
		if x.Ended() {
			ev = ev.Dur("duration", x.Duration())
			if x.Err != nil {
				ev = ev.AnErr("reason", x.Err)
			} else {
				ev = ev.Int("status", x.StatusCode())
			}
		}
		ev.Msg("exchange")
	})
}
