package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

// Event type names.
const (
	TypeRunStarted   = "RunStarted"
	TypePageSynced   = "PageSynced"
	TypePageDeleted  = "PageDeleted"
	TypeRunCompleted = "RunCompleted"
	TypeRunFailed    = "RunFailed"
)

// RunStartedMeta describes what a run is about to do.
type RunStartedMeta struct {
	Command    string `json:"command"`
	Repository string `json:"repository"`
	Site       string `json:"site"`
	Space      string `json:"space,omitempty"`
	Commit     string `json:"commit,omitempty"`
	DryRun     bool   `json:"dry_run,omitempty"`
}

// PageChange is the payload of PageSynced and PageDeleted.
type PageChange struct {
	Operation string `json:"operation"`
	Title     string `json:"title"`
	Path      string `json:"path,omitempty"`
	PageID    string `json:"page_id"`
	ParentID  string `json:"parent_id,omitempty"`
}

// RunCounts is the payload of RunCompleted.
type RunCounts struct {
	Created    int   `json:"created"`
	Updated    int   `json:"updated"`
	Unchanged  int   `json:"unchanged"`
	Deleted    int   `json:"deleted"`
	Skipped    int   `json:"skipped"`
	DurationMS int64 `json:"duration_ms"`
}

// RunFailure is the payload of RunFailed.
type RunFailure struct {
	Category   string `json:"category,omitempty"`
	Error      string `json:"error"`
	DurationMS int64  `json:"duration_ms"`
}

func newEvent(runID, eventType string, payload any) (*BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal "+eventType+" payload").
			WithCause(err).
			WithContext("run_id", runID).
			Build()
	}
	return &BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}

// NewRunStarted creates a RunStarted event.
func NewRunStarted(runID string, meta RunStartedMeta) (Event, error) {
	return newEvent(runID, TypeRunStarted, meta)
}

// NewPageSynced records a create, update or keep.
func NewPageSynced(runID string, change PageChange) (Event, error) {
	return newEvent(runID, TypePageSynced, change)
}

// NewPageDeleted records a removed remote page.
func NewPageDeleted(runID string, change PageChange) (Event, error) {
	return newEvent(runID, TypePageDeleted, change)
}

// NewRunCompleted creates a RunCompleted event.
func NewRunCompleted(runID string, counts RunCounts) (Event, error) {
	return newEvent(runID, TypeRunCompleted, counts)
}

// NewRunFailed creates a RunFailed event. The category is taken from a
// classified cause when there is one.
func NewRunFailed(runID string, cause error, duration time.Duration) (Event, error) {
	failure := RunFailure{DurationMS: duration.Milliseconds()}
	if cause != nil {
		failure.Error = cause.Error()
		failure.Category = string(errors.GetCategory(cause))
	}
	return newEvent(runID, TypeRunFailed, failure)
}
