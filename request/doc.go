// Copyright 2026 The flowhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request provides the value types threaded through a flowhttp
exchange: the Plan describing a logical HTTP request before any work
starts; the Result it terminally resolves to; the Error taxonomy
carried by error-kind Results; and the Exchange state observed by
event handlers while the request is in flight.

Construct plans with NewPlan or NewPlanWithContext and execute them
with a flowhttp.Client.
*/
package request
