// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package option defines the per-request option bag accepted by the
flowhttp client, and its validator.

An option bag is a small mapping from option name to value. Exactly
four keys are recognized: ConnectTimeout, SendRetry, PartialUpload and
PartialDownload. Validation is strict and total: Parse inspects every
entry of the bag and, on failure, reports every offending entry at
once rather than stopping at the first. A failed Parse always happens
before any request work starts, so a BadOptionsError indicates a
programming error at the call site, never a network condition.

The package also defines Window, the signed flow-control credit
counter threaded through partial uploads, and BodyObserver, the sink
for partial downloads.
*/
package option
