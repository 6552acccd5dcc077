package eventstore

import (
	"encoding/json"
	"time"
)

// Event is one entry of the run journal.
type Event interface {
	ID() int64
	RunID() string
	Type() string
	Timestamp() time.Time
	// Payload returns the JSON encoded event data.
	Payload() []byte
	Metadata() map[string]string
}

// BaseEvent is the Event returned by stores and built by the constructors
// in events.go.
type BaseEvent struct {
	EventID        int64
	EventRunID     string
	EventType      string
	EventTimestamp time.Time
	EventPayload   []byte
	EventMetadata  map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) RunID() string               { return e.EventRunID }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }

// Decode unmarshals the payload of e into a T.
func Decode[T any](e Event) (T, error) {
	var v T
	if len(e.Payload()) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(e.Payload(), &v); err != nil {
		return v, wrap(ErrEventQueryFailed, err)
	}
	return v, nil
}
