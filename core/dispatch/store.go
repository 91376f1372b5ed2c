// Package dispatch owns the emergency request lifecycle: creation,
// accept/reject, complete/cancel, and the per-request message logs.
package dispatch

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/respondhq/respond/core/eta"
	"github.com/respondhq/respond/core/events"
	"github.com/respondhq/respond/core/logger"
	"github.com/respondhq/respond/core/metrics"
	"github.com/respondhq/respond/core/model"
	"github.com/respondhq/respond/internal/eventbus"
)

var (
	// ErrNotFound is returned for an unknown request id.
	ErrNotFound = errors.New("request not found")
	// ErrActiveRequest is returned when the caller already holds a
	// non-terminal request.
	ErrActiveRequest = errors.New("user already has an active request")
	// ErrNoLocation is returned when an operation requires a known position.
	ErrNoLocation = errors.New("location not available")
	// ErrNotDriver is returned when a driver-only operation is attempted
	// without a driver vehicle.
	ErrNotDriver = errors.New("driver vehicle required")
	// ErrInvalidTransition is returned when the request status does not admit
	// the attempted transition.
	ErrInvalidTransition = errors.New("invalid request transition")
)

// Store is the request state container. Transitions are synchronous and
// atomic; derived state (active pointers, selection) is updated before any
// method returns. Business failures are returned and mirrored into the
// store-level error string consumed by the UI.
type Store struct {
	mu           sync.Mutex
	requests     []model.EmergencyRequest
	index        map[string]int
	activeByUser map[string]string
	selected     string
	draft        string
	lastErr      string

	bus       *eventbus.Bus[events.Event]
	sink      metrics.MetricsSink
	estimator eta.Estimator
	log       logger.Logger
	now       func() time.Time
	newID     func() string
}

// New creates an empty Store. bus may be nil; a nil sink records nothing and
// a nil estimator defaults to the uniform [2,12] minute mock.
func New(bus *eventbus.Bus[events.Event], sink metrics.MetricsSink, estimator eta.Estimator, log logger.Logger) *Store {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if estimator == nil {
		estimator = eta.NewRandomEstimator(2, 12)
	}
	return &Store{
		index:        make(map[string]int),
		activeByUser: make(map[string]string),
		bus:          bus,
		sink:         sink,
		estimator:    estimator,
		log:          log,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// SetClock overrides the time source, for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// SetIDFunc overrides the id generator, for tests.
func (s *Store) SetIDFunc(fn func() string) {
	s.mu.Lock()
	s.newID = fn
	s.mu.Unlock()
}

// SetError records a human-readable failure for the UI. An empty string
// clears the channel.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// LastError returns the current UI error message, empty when clear.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SetDraft stores the pending message input buffer.
func (s *Store) SetDraft(content string) {
	s.mu.Lock()
	s.draft = content
	s.mu.Unlock()
}

// Draft returns the pending message input buffer.
func (s *Store) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Select marks a request as open for detailed viewing. An empty or unknown id
// clears the selection.
func (s *Store) Select(id string) {
	s.mu.Lock()
	if _, ok := s.index[id]; ok {
		s.selected = id
	} else {
		s.selected = ""
	}
	s.mu.Unlock()
}

// Selected returns the request open for detailed viewing.
func (s *Store) Selected() (model.EmergencyRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return model.EmergencyRequest{}, false
	}
	i, ok := s.index[s.selected]
	if !ok {
		return model.EmergencyRequest{}, false
	}
	return copyRequest(s.requests[i]), true
}

// Get returns a copy of the request with the given id.
func (s *Store) Get(id string) (model.EmergencyRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return model.EmergencyRequest{}, false
	}
	return copyRequest(s.requests[i]), true
}

// List returns copies of all requests in creation order.
func (s *Store) List() []model.EmergencyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EmergencyRequest, len(s.requests))
	for i, r := range s.requests {
		out[i] = copyRequest(r)
	}
	return out
}

// ActiveFor returns the caller's non-terminal request, if any.
func (s *Store) ActiveFor(userID string) (model.EmergencyRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.activeByUser[userID]
	if !ok {
		return model.EmergencyRequest{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return model.EmergencyRequest{}, false
	}
	return copyRequest(s.requests[i]), true
}

// Seed installs fixture requests, registering active pointers for any that
// are non-terminal. It is meant for the startup fixture, not for runtime use.
func (s *Store) Seed(reqs []model.EmergencyRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range reqs {
		if _, dup := s.index[r.ID]; dup {
			continue
		}
		s.index[r.ID] = len(s.requests)
		s.requests = append(s.requests, copyRequest(r))
		if !r.Status.Terminal() {
			s.activeByUser[r.UserID] = r.ID
		}
	}
}

func copyRequest(r model.EmergencyRequest) model.EmergencyRequest {
	r.Messages = append([]model.Message(nil), r.Messages...)
	return r
}
