// Package auth is the simulated authentication collaborator. It performs no
// credential verification and exists to hand out role-scoped sessions with a
// realistic asynchronous feel.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/respondhq/respond/core/dispatch"
	"github.com/respondhq/respond/core/drivermode"
	"github.com/respondhq/respond/core/logger"
	"github.com/respondhq/respond/core/model"
	"github.com/respondhq/respond/core/registry"
	"github.com/respondhq/respond/core/session"
	"github.com/respondhq/respond/core/tracking"
)

// ErrNotLoggedIn is returned by Logout without a live session.
var ErrNotLoggedIn = errors.New("no active session")

// DefaultLatency mimics a round-trip to a real identity provider.
const DefaultLatency = 500 * time.Millisecond

// Service issues and revokes sessions.
type Service struct {
	latency time.Duration
	store   *dispatch.Store
	reg     *registry.Registry
	trk     *tracking.Controller
	mode    *drivermode.Controller
	log     logger.Logger

	mu      sync.Mutex
	current session.Session
}

// New creates a Service. A non-positive latency falls back to DefaultLatency.
func New(latency time.Duration, store *dispatch.Store, reg *registry.Registry, trk *tracking.Controller, mode *drivermode.Controller, log logger.Logger) *Service {
	if latency <= 0 {
		latency = DefaultLatency
	}
	return &Service{latency: latency, store: store, reg: reg, trk: trk, mode: mode, log: log}
}

// Login authenticates any credentials after the simulated latency and returns
// a session for the requested role.
func (s *Service) Login(ctx context.Context, email, _ string, role model.UserType) (session.Session, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	user := model.User{
		ID:       uuid.NewString(),
		Name:     "Test User",
		Email:    email,
		UserType: role,
	}
	return s.open(user)
}

// Register creates an account after the simulated latency and returns a
// session for the requested role.
func (s *Service) Register(ctx context.Context, name, email, _ string, role model.UserType) (session.Session, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	user := model.User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		UserType: role,
	}
	return s.open(user)
}

// Logout tears down the live session: tracking stops and driver mode exits
// before the session is cleared.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	cur := s.current
	s.current = nil
	s.mu.Unlock()
	if cur == nil {
		return ErrNotLoggedIn
	}
	cur.Teardown()
	if s.log != nil {
		s.log.Infof("user %s logged out", cur.User().ID)
	}
	return nil
}

// Current returns the live session, if any.
func (s *Service) Current() (session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

func (s *Service) open(user model.User) (session.Session, error) {
	var sess session.Session
	switch user.UserType {
	case model.UserDriver:
		sess = session.NewDriver(user, s.store, s.reg, s.trk, s.mode)
	default:
		sess = session.NewClient(user, s.store, s.reg, s.trk)
	}
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	if s.log != nil {
		s.log.Infof("user %s logged in as %s", user.ID, user.UserType)
	}
	return sess, nil
}

func (s *Service) wait(ctx context.Context) error {
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
