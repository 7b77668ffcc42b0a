// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides the resend policy consulted by the default
// flowhttp worker when the peer closes a connection after data was
// sent but before a response was read. The send_retry request option
// sets the resend budget; Budget converts it into a Policy.
//
// Resends are a worker-internal affair: however many resends happen,
// the caller still observes exactly one terminal Result.
package retry
