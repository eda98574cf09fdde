package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

func NewNoopSink() *NoopSink { return &NoopSink{} }

func (n *NoopSink) JobFired(jobID string)                       {}
func (n *NoopSink) SendCompleted(outcome string, d time.Duration) {}
func (n *NoopSink) EmptyDispatch()                              {}
func (n *NoopSink) Subscribers(count int)                       {}
