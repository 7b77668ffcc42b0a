// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeerClosed(t *testing.T) {
	cases := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{errors.New("ordinary"), false},
		{io.EOF, true},
		{io.ErrUnexpectedEOF, true},
		{syscall.ECONNRESET, true},
		{fmt.Errorf("write: %w", syscall.EPIPE), true},
		{syscall.ECONNREFUSED, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, PeerClosed.Decide(State{Err: c.err}), "err: %v", c.err)
	}
}

func TestTimes(t *testing.T) {
	d := Times(2)
	assert.True(t, d.Decide(State{Attempt: 0}))
	assert.True(t, d.Decide(State{Attempt: 1}))
	assert.False(t, d.Decide(State{Attempt: 2}))
	assert.False(t, Times(0).Decide(State{Attempt: 0}))
}

func TestCompose(t *testing.T) {
	tr := DeciderFunc(func(State) bool { return true })
	fa := DeciderFunc(func(State) bool { return false })
	assert.True(t, tr.And(tr).Decide(State{}))
	assert.False(t, tr.And(fa).Decide(State{}))
	assert.False(t, fa.And(tr).Decide(State{}))
	assert.True(t, tr.Or(fa).Decide(State{}))
	assert.True(t, fa.Or(tr).Decide(State{}))
	assert.False(t, fa.Or(fa).Decide(State{}))
	t.Run("short circuit", func(t *testing.T) {
		boom := DeciderFunc(func(State) bool { panic("evaluated") })
		assert.False(t, fa.And(boom).Decide(State{}))
		assert.True(t, tr.Or(boom).Decide(State{}))
	})
}

func TestBudget(t *testing.T) {
	p := Budget(1)
	assert.True(t, p.Decide(State{Attempt: 0, Err: syscall.ECONNRESET}))
	assert.False(t, p.Decide(State{Attempt: 1, Err: syscall.ECONNRESET}), "budget spent")
	assert.False(t, p.Decide(State{Attempt: 0, Err: errors.New("defect")}), "not a peer close")
	assert.Equal(t, time.Duration(0), p.Wait(State{}))
}

func TestNewPolicy(t *testing.T) {
	assert.Panics(t, func() { NewPolicy(nil, DefaultWaiter) })
	assert.Panics(t, func() { NewPolicy(PeerClosed, nil) })
	p := NewPolicy(PeerClosed, NewFixedWaiter(time.Second))
	assert.Equal(t, time.Second, p.Wait(State{}))
	assert.True(t, p.Decide(State{Err: io.EOF}))
}
