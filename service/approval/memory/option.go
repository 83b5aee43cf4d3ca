package memory

import (
	"github.com/complianceworxs/govledger/service/approval"
	"github.com/complianceworxs/govledger/service/messaging"
)

// Option customises the in-memory approval service.
type Option func(*service)

// WithQueue overrides the event fan-out queue.
func WithQueue(q messaging.Queue[approval.Event]) Option {
	return func(s *service) { s.events = q }
}
