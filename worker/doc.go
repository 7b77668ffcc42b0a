// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package worker spawns and supervises the isolated unit of execution
behind one flowhttp request.

Spawn launches exactly one worker per request and links it to the
caller through an explicit supervisory channel set on the Handle: the
worker delivers a terminal Result on the result channel, propagates an
abnormal termination on the failure channel before dying, and always
closes the lifecycle observation channel (Died) last, so its death is
observable even after the failure link has been disarmed by a forced
termination.

The wire protocol itself is pluggable through the Performer interface;
NetPerformer, the default, speaks HTTP over net/http and implements
the worker-side request options (connect_timeout, send_retry,
partial_download). The caller-side orchestration, namely the completion
race, forced termination on timeout, and upload windowing, lives in
the root flowhttp package.
*/
package worker
