// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExchangeLifecycle(t *testing.T) {
	x := &Exchange{}
	assert.False(t, x.Started())
	assert.False(t, x.Ended())
	assert.Zero(t, x.Duration())
	assert.Zero(t, x.StatusCode())

	x.Start = time.Now().Add(-time.Second)
	assert.True(t, x.Started())
	assert.False(t, x.Ended())
	assert.Greater(t, x.Duration(), time.Duration(0))

	x.End = x.Start.Add(2 * time.Second)
	x.Result = &Result{StatusCode: 200}
	assert.True(t, x.Ended())
	assert.Equal(t, 2*time.Second, x.Duration())
	assert.Equal(t, 200, x.StatusCode())
	assert.False(t, x.TimedOut())
}

func TestExchangeTimedOut(t *testing.T) {
	x := &Exchange{Err: ErrTimeout}
	assert.True(t, x.TimedOut())
	x = &Exchange{Err: NewError(ConnectionClosed, nil)}
	assert.False(t, x.TimedOut())
}

func TestExchangeValue(t *testing.T) {
	type key struct{}
	x := &Exchange{}
	assert.Nil(t, x.Value(key{}))
	x.SetValue(key{}, "stash")
	assert.Equal(t, "stash", x.Value(key{}))
	assert.Panics(t, func() { x.SetValue(nil, 1) })
}
