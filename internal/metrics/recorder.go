package metrics

import "time"

// OutcomeLabel enumerates run outcomes.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeConflict OutcomeLabel = "conflict"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for publish runs.
type Recorder interface {
	ObserveRunDuration(command string, d time.Duration)
	IncRunOutcome(command string, outcome OutcomeLabel)
	ObserveLevelDuration(depth int, d time.Duration)
	IncPageOperation(op string)
	SetPublishedPages(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRunDuration(string, time.Duration) {}
func (NoopRecorder) IncRunOutcome(string, OutcomeLabel)       {}
func (NoopRecorder) ObserveLevelDuration(int, time.Duration)  {}
func (NoopRecorder) IncPageOperation(string)                  {}
func (NoopRecorder) SetPublishedPages(int)                    {}
