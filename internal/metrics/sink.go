package metrics

import "time"

// Sink records operational metrics.
// All methods are fire-and-forget: implementations MUST NOT block or
// propagate errors.
type Sink interface {
	// JobFired counts one scheduler firing of the named job.
	JobFired(jobID string)
	// SendCompleted counts one dispatch attempt outcome and its latency.
	SendCompleted(outcome string, d time.Duration)
	// EmptyDispatch counts firings that resolved to zero recipients.
	EmptyDispatch()
	// Subscribers reports the current registry size.
	Subscribers(n int)
}

// Outcome constants for SendCompleted.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)
