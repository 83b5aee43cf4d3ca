package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/complianceworxs/govledger/internal/clock"
	"github.com/complianceworxs/govledger/service/approval"
	"github.com/complianceworxs/govledger/service/messaging"
	qmem "github.com/complianceworxs/govledger/service/messaging/memory"
)

type service struct {
	mu        sync.RWMutex
	requests  map[string]*approval.Request
	decisions map[string]*approval.Decision
	order     []string

	// fan-out queue
	events messaging.Queue[approval.Event]
}

// New creates an in-memory approval service.
func New(options ...Option) approval.Service {
	ret := &service{
		requests:  map[string]*approval.Request{},
		decisions: map[string]*approval.Decision{},
		events:    qmem.NewQueue[approval.Event](qmem.DefaultConfig()),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *service) Submit(ctx context.Context, r *approval.Request) error {
	if r == nil || r.ID == "" {
		return errors.New("invalid approval request")
	}
	s.mu.Lock()
	if _, seen := s.requests[r.ID]; !seen {
		s.order = append(s.order, r.ID)
	}
	// Idempotent save: re-submission overwrites the previous copy.
	s.requests[r.ID] = r
	s.mu.Unlock()

	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicRequestCreated, Data: r})
	return nil
}

func (s *service) ListPending(ctx context.Context) ([]*approval.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make([]*approval.Request, 0, len(s.requests))
	for _, id := range s.order {
		if _, decided := s.decisions[id]; decided {
			continue
		}
		if r, ok := s.requests[id]; ok {
			pending = append(pending, r)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (s *service) Decide(ctx context.Context, id string, approved bool, reason string) (*approval.Decision, error) {
	if id == "" {
		return nil, errors.New("empty approval request id")
	}
	s.mu.Lock()
	if _, ok := s.requests[id]; !ok {
		s.mu.Unlock()
		return nil, approval.ErrNotFound
	}
	if _, ok := s.decisions[id]; ok {
		s.mu.Unlock()
		return nil, approval.ErrDecided
	}
	d := &approval.Decision{
		ID:        id,
		Approved:  approved,
		Reason:    reason,
		DecidedAt: clock.Now(),
	}
	s.decisions[id] = d
	s.mu.Unlock()

	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicDecisionCreated, Data: d})
	return d, nil
}

func (s *service) Queue() messaging.Queue[approval.Event] { return s.events }

var _ approval.Service = (*service)(nil)
