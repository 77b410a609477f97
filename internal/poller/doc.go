// Package poller repeatedly queries a job's status until it reaches a
// terminal state.
//
// Each Start call returns a Task that owns one goroutine and one ticker. The
// first query fires one interval after start and later queries follow the
// same fixed cadence; ticks that arrive while a query is still in flight are
// dropped, so queries never overlap. A Task ends on its own after a terminal
// status or a failed query, or early when Cancel is called.
package poller
