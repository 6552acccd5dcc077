package eventstore

import (
	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

// Sentinel causes wrapped by journal failures.
var (
	ErrDatabaseOpenFailed     = errors.EventStoreError("could not open journal database").Build()
	ErrInitializeSchemaFailed = errors.EventStoreError("failed to initialize journal schema").Build()
	ErrEventAppendFailed      = errors.EventStoreError("failed to append event to journal").Build()
	ErrEventQueryFailed       = errors.EventStoreError("failed to query events from journal").Build()
	ErrMarshalPayloadFailed   = errors.EventStoreError("failed to marshal event payload").Build()
)

func wrap(sentinel *errors.ClassifiedError, cause error) error {
	return errors.EventStoreError(sentinel.Message()).WithCause(cause).Build()
}
