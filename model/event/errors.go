package event

import "errors"

var (
	errNil         = errors.New("event is nil")
	errNoActionID  = errors.New("event has no action_id")
	errNoPayload   = errors.New("event payload does not match type")
	errUnknownType = errors.New("unknown event type")
)
