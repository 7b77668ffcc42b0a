// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors by network transience. The
// default flowhttp worker uses the classification to decide whether a
// failed send is the peer-close resend case and which error-kind
// reason, if any, an attempt error maps to.
package transient
