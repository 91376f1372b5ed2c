package dispatch

import (
	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/metrics"
	"github.com/respondhq/respond/core/model"
)

// Legal transitions: pending -> accepted|rejected|cancelled,
// accepted -> completed|cancelled. Terminal states admit nothing.

// Create files a new pending request for user at loc. It fails when the user
// already holds a non-terminal request or when loc is nil.
func (s *Store) Create(user model.User, loc *geo.Point, typ model.RequestType, description string) (model.EmergencyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.activeByUser[user.ID]; ok {
		if i, live := s.index[id]; live && !s.requests[i].Status.Terminal() {
			s.lastErr = "You already have an active request"
			return model.EmergencyRequest{}, ErrActiveRequest
		}
	}
	if loc == nil {
		s.lastErr = "Location not available"
		return model.EmergencyRequest{}, ErrNoLocation
	}

	req := model.EmergencyRequest{
		ID:          "request-" + s.newID(),
		UserID:      user.ID,
		UserName:    user.Name,
		Location:    *loc,
		Status:      model.RequestPending,
		Type:        typ,
		Description: description,
		CreatedAt:   s.now(),
	}
	s.index[req.ID] = len(s.requests)
	s.requests = append(s.requests, req)
	s.activeByUser[user.ID] = req.ID
	s.lastErr = ""

	s.publishTransition(req, "", model.RequestPending)
	if s.log != nil {
		s.log.Infof("request %s created by %s (%s)", req.ID, user.ID, typ)
	}
	return copyRequest(req), nil
}

// Accept assigns a pending request to a driver, stamps an arrival estimate
// and appends the acceptance system message. It returns the updated request.
func (s *Store) Accept(requestID, driverID, driverName string, driverLoc *geo.Point) (model.EmergencyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if driverID == "" || driverLoc == nil {
		s.lastErr = "You must be in driver mode to accept requests"
		if driverID == "" {
			return model.EmergencyRequest{}, ErrNotDriver
		}
		return model.EmergencyRequest{}, ErrNoLocation
	}
	i, ok := s.index[requestID]
	if !ok || s.requests[i].Status != model.RequestPending {
		s.lastErr = "Request not available for acceptance"
		if !ok {
			return model.EmergencyRequest{}, ErrNotFound
		}
		return model.EmergencyRequest{}, ErrInvalidTransition
	}

	req := &s.requests[i]
	req.Status = model.RequestAccepted
	req.DriverID = driverID
	req.DriverName = driverName
	req.ETAMinutes = s.estimator.EstimateMinutes(*driverLoc, req.Location)
	s.appendSystem(req, "Your request has been accepted. Help is on the way!")
	s.lastErr = ""

	s.publishTransition(*req, model.RequestPending, model.RequestAccepted)
	if s.log != nil {
		s.log.Infof("request %s accepted by %s, eta %d min", req.ID, driverID, req.ETAMinutes)
	}
	return copyRequest(*req), nil
}

// Reject declines a pending request. The rejected state is terminal.
func (s *Store) Reject(requestID string) (model.EmergencyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[requestID]
	if !ok || s.requests[i].Status != model.RequestPending {
		s.lastErr = "Request not available for rejection"
		if !ok {
			return model.EmergencyRequest{}, ErrNotFound
		}
		return model.EmergencyRequest{}, ErrInvalidTransition
	}

	req := &s.requests[i]
	req.Status = model.RequestRejected
	delete(s.activeByUser, req.UserID)
	s.appendSystem(req, "Your request could not be accepted by this driver. Looking for another driver...")
	s.lastErr = ""

	s.publishTransition(*req, model.RequestPending, model.RequestRejected)
	return copyRequest(*req), nil
}

// Complete finishes an accepted request, clears the owner's active pointer
// and the detail selection.
func (s *Store) Complete(requestID string) (model.EmergencyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[requestID]
	if !ok || s.requests[i].Status != model.RequestAccepted {
		s.lastErr = "Request cannot be completed"
		if !ok {
			return model.EmergencyRequest{}, ErrNotFound
		}
		return model.EmergencyRequest{}, ErrInvalidTransition
	}

	req := &s.requests[i]
	req.Status = model.RequestCompleted
	if s.activeByUser[req.UserID] == req.ID {
		delete(s.activeByUser, req.UserID)
	}
	if s.selected == req.ID {
		s.selected = ""
	}
	s.appendSystem(req, "The emergency service has been completed.")
	s.lastErr = ""

	s.publishTransition(*req, model.RequestAccepted, model.RequestCompleted)
	return copyRequest(*req), nil
}

// Cancel aborts a pending or accepted request, clearing the owner's active
// pointer and the detail selection.
func (s *Store) Cancel(requestID string) (model.EmergencyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[requestID]
	if !ok || (s.requests[i].Status != model.RequestPending && s.requests[i].Status != model.RequestAccepted) {
		s.lastErr = "Request cannot be cancelled"
		if !ok {
			return model.EmergencyRequest{}, ErrNotFound
		}
		return model.EmergencyRequest{}, ErrInvalidTransition
	}

	req := &s.requests[i]
	from := req.Status
	req.Status = model.RequestCancelled
	if s.activeByUser[req.UserID] == req.ID {
		delete(s.activeByUser, req.UserID)
	}
	if s.selected == req.ID {
		s.selected = ""
	}
	s.appendSystem(req, "The request has been cancelled.")
	s.lastErr = ""

	s.publishTransition(*req, from, model.RequestCancelled)
	return copyRequest(*req), nil
}

func (s *Store) publishTransition(req model.EmergencyRequest, from, to model.RequestStatus) {
	if s.bus != nil {
		s.bus.Publish(eventFor(req.ID, from, to))
	}
	_ = s.sink.RecordRequestTransition(metrics.RequestTransition{
		RequestID: req.ID,
		Type:      req.Type,
		From:      from,
		To:        to,
		DriverID:  req.DriverID,
		Time:      s.now(),
	})
}
