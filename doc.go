// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package flowhttp provides a robust HTTP client that runs every request
in its own linked worker, guarantees a single outcome within the
caller's timeout, and supports flow-controlled streaming of request and
response bodies.

Create a Client to begin making requests.

	client := &flowhttp.Client{}
	r, err := client.Get("https://www.example.com")
	...
	r, err := client.Post("https://www.example.com/upload",
		"application/json", body)

For control over the timeout and per-request options, build a plan and
call Do:

	p, err := request.NewPlan("PUT", "https://www.example.com/thing", body)
	...
	r, err := client.Do(p, 5*time.Second, option.Options{
		option.ConnectTimeout: 500 * time.Millisecond,
		option.SendRetry:      2,
	})

Do resolves to exactly one of three outcomes. A success or error-kind
Result is returned normally; inspect r.OK() and r.Err. An invalid
option bag is rejected with a *option.BadOptionsError before any
request work starts, listing every offending entry. An abnormal worker
death (a defect, not a network condition) propagates as a panic
carrying a *worker.Failure.

Network failures within the fixed taxonomy come back as error-kind
Results whose reason is a *request.Error:

	r, err := client.Do(p, timeout, nil)
	if request.KindOf(err) == request.Timeout {
		...
	}

To stream a request body chunk by chunk under a send-credit window,
start the request with Upload and feed it parts:

	u, err := client.Upload(p, 0, option.Options{option.PartialUpload: 3})
	...
	for _, chunk := range chunks {
		u, r, err = u.SendBodyPart(chunk, time.Second)
		if u == nil {
			break // exchange resolved mid-stream
		}
	}
	r, err = u.Finish(time.Second)

To receive a response body chunk by chunk, pass a PartialDownload
option whose observer consumes the parts as they arrive; the returned
Result then carries the response head only.

To hook into the fine-grained details of request execution, install a
handler into the appropriate handler chain:

	handlers := &flowhttp.HandlerGroup{}
	handlers.PushBack(flowhttp.AfterRequest, flowhttp.HandlerFunc(
		func(_ flowhttp.Event, x *request.Exchange) {
			log.Printf("%s %s: %d in %s", x.Plan.Method, x.Plan.URL,
				x.StatusCode(), x.Duration())
		}))
	client := &flowhttp.Client{Handlers: handlers}

LogHandler adapts a zerolog logger into such a handler.
*/
package flowhttp
