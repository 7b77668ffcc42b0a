// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package flowhttp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowhttp/flowhttp/option"
	"github.com/flowhttp/flowhttp/request"
)

// These tests exercise the full stack against a live test server: the
// zero-value client, the default performer, and a real connection.

func TestServerAtomic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		w.Header().Set("X-Round", "trip")
		w.WriteHeader(200)
		_, _ = w.Write(b)
	}))
	defer server.Close()

	c := &Client{}
	p, err := request.NewPlan("POST", server.URL, "over the wire")
	require.NoError(t, err)

	r, err := c.Do(p, 10*time.Second, nil)

	require.NoError(t, err)
	require.True(t, r.OK())
	assert.Equal(t, 200, r.StatusCode)
	assert.Equal(t, "trip", r.Header.Get("X-Round"))
	assert.Equal(t, []byte("over the wire"), r.Body)
}

func TestServerConvenienceMethods(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == "HEAD" {
			w.WriteHeader(204)
			return
		}
		_, _ = io.WriteString(w, req.Method)
	}))
	defer server.Close()

	c := &Client{}

	r, err := c.Get(server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("GET"), r.Body)

	r, err = c.Head(server.URL)
	require.NoError(t, err)
	assert.Equal(t, 204, r.StatusCode)

	r, err = c.Post(server.URL, "text/plain", "body")
	require.NoError(t, err)
	assert.Equal(t, []byte("POST"), r.Body)

	c.CloseIdleConnections()
}

func TestServerTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c := &Client{}
	p, err := request.NewPlan("GET", server.URL, nil)
	require.NoError(t, err)

	start := time.Now()
	r, err := c.Do(p, 100*time.Millisecond, nil)

	assert.ErrorIs(t, err, request.ErrTimeout)
	require.NotNil(t, r)
	assert.False(t, r.OK())
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.Less(t, time.Since(start), 5*time.Second, "termination must be confirmed promptly")
}

func TestServerPartialUpload(t *testing.T) {
	bodies := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		bodies <- b
		w.WriteHeader(201)
	}))
	defer server.Close()

	c := &Client{}
	p, err := request.NewPlan("PUT", server.URL, nil)
	require.NoError(t, err)

	u, err := c.Upload(p, 10*time.Second, option.Options{option.PartialUpload: 2})
	require.NoError(t, err)

	for _, chunk := range []string{"chunk one, ", "chunk two, ", "chunk three"} {
		var r *request.Result
		u, r, err = u.SendBodyPart([]byte(chunk), 10*time.Second)
		require.NoError(t, err)
		require.Nil(t, r, "exchange resolved mid-stream")
		require.NotNil(t, u)
	}
	r, err := u.Finish(10 * time.Second)

	require.NoError(t, err)
	assert.Equal(t, 201, r.StatusCode)
	assert.Equal(t, []byte("chunk one, chunk two, chunk three"), <-bodies)
}

func TestServerUploadTrailers(t *testing.T) {
	type received struct {
		body     []byte
		checksum string
	}
	got := make(chan received, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		got <- received{body: b, checksum: req.Trailer.Get("X-Checksum")}
		w.WriteHeader(200)
	}))
	defer server.Close()

	c := &Client{}
	p, err := request.NewPlan("PUT", server.URL, nil)
	require.NoError(t, err)
	p.Trailer = http.Header{"X-Checksum": nil}

	u, err := c.Upload(p, 10*time.Second, option.Options{option.PartialUpload: option.NoLimit})
	require.NoError(t, err)
	u, r, err := u.SendBodyPart([]byte("trailed body"), 10*time.Second)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Nil(t, r)
	r, err = u.SendTrailers(http.Header{"X-Checksum": []string{"abc123"}}, 10*time.Second)

	require.NoError(t, err)
	assert.Equal(t, 200, r.StatusCode)
	rec := <-got
	assert.Equal(t, []byte("trailed body"), rec.body)
	assert.Equal(t, "abc123", rec.checksum)
}

// collectObserver buffers a partial download.
type collectObserver struct {
	mu   sync.Mutex
	body []byte
	done chan struct{}
}

func newCollectObserver() *collectObserver {
	return &collectObserver{done: make(chan struct{})}
}

func (o *collectObserver) OnBodyPart(part []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.body = append(o.body, part...)
	return nil
}

func (o *collectObserver) OnBodyEnd(_ http.Header) error {
	close(o.done)
	return nil
}

func TestServerPartialDownload(t *testing.T) {
	payload := "streamed response payload"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, payload)
	}))
	defer server.Close()

	c := &Client{}
	p, err := request.NewPlan("GET", server.URL, nil)
	require.NoError(t, err)
	ob := newCollectObserver()

	r, err := c.Do(p, 10*time.Second, option.Options{
		option.PartialDownload: option.Download{Observer: ob, Window: 1},
	})

	require.NoError(t, err)
	require.True(t, r.OK())
	assert.Nil(t, r.Body, "partial download delivers the body to the observer")
	select {
	case <-ob.done:
	case <-time.After(10 * time.Second):
		t.Fatal("observer never saw end of body")
	}
	ob.mu.Lock()
	defer ob.mu.Unlock()
	assert.Equal(t, []byte(payload), ob.body)
}

func TestServerPlanContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	p, err := request.NewPlanWithContext(ctx, "GET", server.URL, nil)
	require.NoError(t, err)
	c := &Client{}
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	r, err := c.Do(p, time.Minute, nil)

	assert.Nil(t, r)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, request.ErrTimeout)
}
