// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flowhttp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowhttp/flowhttp/request"
)

func TestHandlerGroup(t *testing.T) {
	t.Run("nil handler panics", func(t *testing.T) {
		g := &HandlerGroup{}
		assert.PanicsWithValue(t, "flowhttp: nil handler", func() {
			g.PushBack(BeforeRequest, nil)
		})
	})

	t.Run("empty group runs safely", func(t *testing.T) {
		g := &HandlerGroup{}
		g.run(BeforeRequest, &request.Exchange{})
	})

	t.Run("chain runs in push order", func(t *testing.T) {
		var order []string
		g := &HandlerGroup{}
		g.PushBack(AfterRequest, HandlerFunc(func(_ Event, _ *request.Exchange) {
			order = append(order, "first")
		}))
		g.PushBack(AfterRequest, HandlerFunc(func(_ Event, _ *request.Exchange) {
			order = append(order, "second")
		}))
		g.PushBack(BeforeRequest, HandlerFunc(func(_ Event, _ *request.Exchange) {
			order = append(order, "other chain")
		}))

		g.run(AfterRequest, &request.Exchange{})

		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("handler receives event and exchange", func(t *testing.T) {
		x := &request.Exchange{}
		g := &HandlerGroup{}
		var gotEvt Event
		var gotX *request.Exchange
		g.PushBack(AfterTimeout, HandlerFunc(func(evt Event, x *request.Exchange) {
			gotEvt = evt
			gotX = x
		}))

		g.run(AfterTimeout, x)

		assert.Equal(t, AfterTimeout, gotEvt)
		assert.Same(t, x, gotX)
	})
}
