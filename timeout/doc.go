// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout provides the fallback timeout policy installed on a
// flowhttp.Client. Every client entry point takes an explicit per-call
// timeout; the policy only supplies the budget when the caller passes
// zero or a negative value.
package timeout
