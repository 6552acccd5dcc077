package metrics

import (
	"testing"
	"time"
)

type testRecorder struct {
	runs       map[string]int
	outcomes   map[OutcomeLabel]int
	levels     int
	operations map[string]int
	published  int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{runs: map[string]int{}, outcomes: map[OutcomeLabel]int{}, operations: map[string]int{}}
}

func (t *testRecorder) ObserveRunDuration(command string, _ time.Duration) { t.runs[command]++ }
func (t *testRecorder) IncRunOutcome(_ string, outcome OutcomeLabel)       { t.outcomes[outcome]++ }
func (t *testRecorder) ObserveLevelDuration(int, time.Duration)            { t.levels++ }
func (t *testRecorder) IncPageOperation(op string)                         { t.operations[op]++ }
func (t *testRecorder) SetPublishedPages(n int)                            { t.published = n }

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveRunDuration("publish", time.Second)
	r.IncRunOutcome("publish", OutcomeSuccess)
	r.ObserveLevelDuration(0, time.Millisecond)
	r.IncPageOperation("create")
	r.SetPublishedPages(3)
}

func TestRecorderInterfaceCalls(t *testing.T) {
	tr := newTestRecorder()
	var r Recorder = tr
	r.ObserveRunDuration("publish", 10*time.Millisecond)
	r.IncRunOutcome("publish", OutcomeFailed)
	r.ObserveLevelDuration(1, time.Millisecond)
	r.IncPageOperation("create")
	r.IncPageOperation("create")
	r.SetPublishedPages(7)

	if tr.runs["publish"] != 1 || tr.outcomes[OutcomeFailed] != 1 || tr.levels != 1 {
		t.Fatalf("unexpected run counters: %+v", tr)
	}
	if tr.operations["create"] != 2 || tr.published != 7 {
		t.Fatalf("unexpected page counters: %+v", tr)
	}
}
