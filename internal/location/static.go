package location

import (
	"context"
	"log"
	"sync"
)

// Static is a Provider backed by a configured coordinate. It stands in for a
// device location service when the process runs headless, and it is the
// provider the tests drive.
type Static struct {
	mu     sync.Mutex
	status AuthorizationStatus
	answer AuthorizationStatus
	coord  *Coordinate
	err    error
	subs   map[chan Update]struct{}

	// OnOpenSettings is called by OpenSettings when set.
	OnOpenSettings func() error
}

// NewStatic creates a provider in the given authorization state. answer is
// what RequestAuthorization settles on while the status is NotDetermined.
func NewStatic(status, answer AuthorizationStatus) *Static {
	return &Static{
		status: status,
		answer: answer,
		subs:   make(map[chan Update]struct{}),
	}
}

// AuthorizationStatus returns the current permission state.
func (s *Static) AuthorizationStatus() AuthorizationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetAuthorization changes the permission state, e.g. after the user visited settings.
func (s *Static) SetAuthorization(status AuthorizationStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// RequestAuthorization resolves a pending prompt with the configured answer.
func (s *Static) RequestAuthorization(ctx context.Context) (AuthorizationStatus, error) {
	if err := ctx.Err(); err != nil {
		return NotDetermined, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == NotDetermined {
		s.status = s.answer
	}
	return s.status, nil
}

// Set publishes a new coordinate to current and future subscribers.
func (s *Static) Set(c Coordinate) {
	s.publish(Update{Coordinate: c})
}

// Fail publishes a location failure to current and future subscribers.
func (s *Static) Fail(err error) {
	s.publish(Update{Err: err})
}

func (s *Static) publish(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Err != nil {
		s.coord = nil
		s.err = u.Err
	} else {
		c := u.Coordinate
		s.coord = &c
		s.err = nil
	}

	for ch := range s.subs {
		offer(ch, u)
	}
}

// Updates delivers the last known coordinate (or failure) immediately, then
// every subsequent Set/Fail until ctx is done.
func (s *Static) Updates(ctx context.Context) <-chan Update {
	ch := make(chan Update, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	switch {
	case s.coord != nil:
		offer(ch, Update{Coordinate: *s.coord})
	case s.err != nil:
		offer(ch, Update{Err: s.err})
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// OpenSettings forwards to OnOpenSettings, or just logs the request.
func (s *Static) OpenSettings() error {
	if s.OnOpenSettings != nil {
		return s.OnOpenSettings()
	}
	log.Println("INFO: location: settings surface requested; nothing to open in headless mode")
	return nil
}

// offer keeps only the newest event in a slow subscriber's buffer.
func offer(ch chan Update, u Update) {
	select {
	case ch <- u:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- u:
	default:
	}
}
