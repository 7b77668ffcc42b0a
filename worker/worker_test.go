// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowhttp/flowhttp/option"
	"github.com/flowhttp/flowhttp/request"
)

// performerFunc adapts a function to the Performer interface.
type performerFunc func(ctx context.Context, lk *Link)

func (f performerFunc) Perform(ctx context.Context, lk *Link) {
	f(ctx, lk)
}

func newPlan(t *testing.T) *request.Plan {
	p, err := request.NewPlan("GET", "http://example.com/", nil)
	require.NoError(t, err)
	return p
}

func parse(t *testing.T, opts option.Options) *option.Parsed {
	parsed, err := option.Parse(opts)
	require.NoError(t, err)
	return parsed
}

func awaitDeath(t *testing.T, h *Handle) {
	select {
	case <-h.Died():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not die")
	}
}

func TestSpawnDeliversResult(t *testing.T) {
	want := &request.Result{StatusCode: 204, Status: "204 No Content"}
	h := Spawn(newPlan(t), parse(t, nil), time.Second, performerFunc(
		func(_ context.Context, lk *Link) {
			lk.Deliver(want)
		}))
	select {
	case got := <-h.Result():
		assert.Same(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no result")
	}
	awaitDeath(t, h)
	assert.NoError(t, h.DeathReason())
}

func TestSpawnNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	start := time.Now()
	h := Spawn(newPlan(t), parse(t, nil), time.Second, performerFunc(
		func(_ context.Context, _ *Link) {
			<-release
		}))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.NotNil(t, h)
}

func TestAbnormalTermination(t *testing.T) {
	t.Run("panic", func(t *testing.T) {
		h := Spawn(newPlan(t), parse(t, nil), time.Second, performerFunc(
			func(_ context.Context, _ *Link) {
				panic("wire defect")
			}))
		select {
		case f := <-h.Failed():
			assert.Equal(t, "wire defect", f.Reason)
		case <-time.After(5 * time.Second):
			t.Fatal("no failure")
		}
		awaitDeath(t, h)
		var f *Failure
		require.ErrorAs(t, h.DeathReason(), &f)
		assert.Equal(t, "wire defect", f.Reason)
	})
	t.Run("no outcome", func(t *testing.T) {
		h := Spawn(newPlan(t), parse(t, nil), time.Second, performerFunc(
			func(_ context.Context, _ *Link) {
			}))
		select {
		case f := <-h.Failed():
			assert.ErrorIs(t, f.Reason.(error), ErrNoOutcome)
		case <-time.After(5 * time.Second):
			t.Fatal("no failure")
		}
		awaitDeath(t, h)
	})
}

func TestKill(t *testing.T) {
	t.Run("stuck performer", func(t *testing.T) {
		entered := make(chan struct{})
		h := Spawn(newPlan(t), parse(t, nil), time.Second, performerFunc(
			func(ctx context.Context, _ *Link) {
				close(entered)
				<-ctx.Done()
			}))
		<-entered
		h.Kill(request.ErrTimeout)
		awaitDeath(t, h)
		assert.ErrorIs(t, h.DeathReason(), request.ErrTimeout)
		select {
		case <-h.Failed():
			t.Fatal("forced termination must not trip the failure link")
		default:
		}
	})
	t.Run("idempotent", func(t *testing.T) {
		h := Spawn(newPlan(t), parse(t, nil), time.Second, performerFunc(
			func(ctx context.Context, _ *Link) {
				<-ctx.Done()
			}))
		h.Kill(request.ErrTimeout)
		h.Kill(errors.New("second reason"))
		h.Kill(request.ErrTimeout)
		awaitDeath(t, h)
		assert.ErrorIs(t, h.DeathReason(), request.ErrTimeout)
	})
	t.Run("after death", func(t *testing.T) {
		h := Spawn(newPlan(t), parse(t, nil), time.Second, performerFunc(
			func(_ context.Context, lk *Link) {
				lk.Deliver(&request.Result{StatusCode: 200, Status: "200 OK"})
			}))
		awaitDeath(t, h)
		h.Kill(request.ErrTimeout) // must not block or panic
		assert.NoError(t, h.DeathReason())
	})
}

func TestKillSilencesAbandonedPerformer(t *testing.T) {
	entered := make(chan struct{})
	delivered := make(chan struct{})
	h := Spawn(newPlan(t), parse(t, nil), time.Second, performerFunc(
		func(ctx context.Context, lk *Link) {
			close(entered)
			<-ctx.Done()
			lk.Deliver(&request.Result{StatusCode: 200})
			lk.Ack()
			close(delivered)
		}))
	<-entered
	h.Kill(request.ErrTimeout)
	awaitDeath(t, h)
	select {
	case <-delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("abandoned performer did not unblock")
	}
	// The late Deliver raced the termination; whichever way it went, no
	// ack may reach the caller afterward.
	select {
	case <-h.Ack():
		t.Fatal("ack leaked past termination")
	default:
	}
}

func TestPlanContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p, err := request.NewPlanWithContext(ctx, "GET", "http://example.com/", nil)
	require.NoError(t, err)
	entered := make(chan struct{})
	h := Spawn(p, parse(t, nil), time.Second, performerFunc(
		func(ctx context.Context, _ *Link) {
			close(entered)
			<-ctx.Done()
		}))
	<-entered
	cancel()
	awaitDeath(t, h)
	assert.ErrorIs(t, h.DeathReason(), context.Canceled)
	select {
	case <-h.Failed():
		t.Fatal("plan cancellation must not trip the failure link")
	default:
	}
}

func TestLinkParts(t *testing.T) {
	type seen struct {
		parts    [][]byte
		eof      bool
		trailers bool
	}
	done := make(chan seen, 1)
	h := Spawn(newPlan(t), parse(t, option.Options{option.PartialUpload: 2}), time.Second,
		performerFunc(func(_ context.Context, lk *Link) {
			var s seen
			for {
				part, ok := lk.NextPart()
				if !ok {
					break
				}
				if part.Trailers != nil {
					s.trailers = true
					break
				}
				if part.EOF {
					s.eof = true
					break
				}
				s.parts = append(s.parts, part.Data)
				lk.Ack()
			}
			done <- s
			lk.Deliver(&request.Result{StatusCode: 200, Status: "200 OK"})
		}))
	h.Parts() <- Part{Data: []byte("one")}
	h.Parts() <- Part{Data: []byte("two")}
	h.Parts() <- Part{EOF: true}
	s := <-done
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, s.parts)
	assert.True(t, s.eof)
	// One ack per accepted data part.
	for i := 0; i < 2; i++ {
		select {
		case <-h.Ack():
		case <-time.After(5 * time.Second):
			t.Fatalf("missing ack %d", i)
		}
	}
	<-h.Result()
	awaitDeath(t, h)
}

func TestDoubleDeliverIsAbnormal(t *testing.T) {
	h := Spawn(newPlan(t), parse(t, nil), time.Second, performerFunc(
		func(_ context.Context, lk *Link) {
			lk.Deliver(&request.Result{StatusCode: 200})
			lk.Deliver(&request.Result{StatusCode: 500})
		}))
	select {
	case f := <-h.Failed():
		assert.Contains(t, f.Reason.(string), "second terminal outcome")
	case <-time.After(5 * time.Second):
		t.Fatal("no failure")
	}
	awaitDeath(t, h)
}

func TestSpawnPartCapacity(t *testing.T) {
	t.Run("finite window", func(t *testing.T) {
		h := Spawn(newPlan(t), parse(t, option.Options{option.PartialUpload: 3}), 0,
			performerFunc(func(ctx context.Context, _ *Link) { <-ctx.Done() }))
		assert.Equal(t, 3, cap(h.partc))
		h.Kill(request.ErrTimeout)
	})
	t.Run("unbounded window", func(t *testing.T) {
		h := Spawn(newPlan(t), parse(t, option.Options{option.PartialUpload: option.NoLimit}), 0,
			performerFunc(func(ctx context.Context, _ *Link) { <-ctx.Done() }))
		assert.Equal(t, unboundedPartCap, cap(h.partc))
		h.Kill(request.ErrTimeout)
	})
	t.Run("nil performer", func(t *testing.T) {
		assert.Panics(t, func() {
			Spawn(newPlan(t), parse(t, nil), 0, nil)
		})
	})
}
