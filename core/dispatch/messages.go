package dispatch

import (
	"strings"

	"github.com/respondhq/respond/core/events"
	"github.com/respondhq/respond/core/metrics"
	"github.com/respondhq/respond/core/model"
)

// Sender identifies who is appending a message.
type Sender struct {
	ID       string
	Name     string
	IsDriver bool
}

// SendMessage appends a message to the request log and clears the draft
// buffer. Whitespace-only content is a no-op and leaves the draft untouched.
func (s *Store) SendMessage(requestID string, sender Sender, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	s.mu.Lock()
	i, ok := s.index[requestID]
	if !ok {
		s.lastErr = "Request not found"
		s.mu.Unlock()
		return ErrNotFound
	}

	msg := model.Message{
		ID:         "msg-" + s.newID(),
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Content:    content,
		Timestamp:  s.now(),
		IsDriver:   sender.IsDriver,
	}
	s.requests[i].Messages = append(s.requests[i].Messages, msg)
	s.draft = ""
	s.lastErr = ""
	s.mu.Unlock()

	s.publishMessage(requestID, msg, false)
	return nil
}

// appendSystem inserts a neutral system message during a lifecycle
// transition. Callers must hold the lock.
func (s *Store) appendSystem(req *model.EmergencyRequest, content string) {
	msg := model.Message{
		ID:         "msg-" + s.newID(),
		SenderID:   model.SystemSenderID,
		SenderName: "System",
		Content:    content,
		Timestamp:  s.now(),
		IsDriver:   false,
	}
	req.Messages = append(req.Messages, msg)
	s.publishMessage(req.ID, msg, true)
}

func (s *Store) publishMessage(requestID string, msg model.Message, system bool) {
	if s.bus != nil {
		s.bus.Publish(events.MessageEvent{RequestID: requestID, Message: msg})
	}
	if mr, ok := s.sink.(metrics.MessageRecorder); ok {
		_ = mr.RecordMessage(metrics.MessageEvent{
			RequestID: requestID,
			IsDriver:  msg.IsDriver,
			System:    system,
			Time:      msg.Timestamp,
		})
	}
}

func eventFor(id string, from, to model.RequestStatus) events.Event {
	return events.RequestEvent{RequestID: id, From: from, To: to}
}
