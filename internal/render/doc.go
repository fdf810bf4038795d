// Package render drives the render job lifecycle: it persists the local
// composition to the remote render service, starts a job, merges push and
// poll progress into one monotonic job state, and resolves a terminal
// Result for the caller.
//
// The Orchestrator tracks at most one job at a time. A second render request
// while one is in flight is rejected with ErrRenderInFlight rather than
// silently replacing the tracked job. Cancellation clears the tracked job
// immediately, stops the monitor loop, and fires a best-effort remote cancel.
//
// Failures during persistence or job start never escape as errors; they
// resolve as a failed Result so callers always receive exactly one outcome
// per request.
package render
