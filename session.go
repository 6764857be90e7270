package goGrant

import (
	"context"
	"sync"
)

// SessionState defines a public type used by goGrant APIs.
//
// SessionState instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionState uint8

const (
	// SessionIdle is an exported constant or variable used by the grant engine.
	SessionIdle SessionState = iota
	// SessionPending is an exported constant or variable used by the grant engine.
	SessionPending
	// SessionResolved is an exported constant or variable used by the grant engine.
	SessionResolved
	// SessionRejected is an exported constant or variable used by the grant engine.
	SessionRejected
)

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "Idle"
	case SessionPending:
		return "Pending"
	case SessionResolved:
		return "Resolved"
	case SessionRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// Session defines a public type used by goGrant APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// A Session is the caller-side unit of work against the oracle: it issues one
// request, awaits exactly one reply, and then is spent. At most one request
// may be in flight per Session; concurrent logical operations each get their
// own Session against the shared channel. The Session exclusively owns its
// completion slot; the oracle owns nothing of the caller's state.
type Session struct {
	channel *Channel

	mu    sync.Mutex
	state SessionState
}

// NewSession describes the newsession operation and its observable behavior.
//
// NewSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewSession(channel *Channel) *Session {
	return &Session{channel: channel}
}

// State describes the state operation and its observable behavior.
//
// State does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Session) State() SessionState {
	if s == nil {
		return SessionIdle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit describes the submit operation and its observable behavior.
//
// Submit may return an error when input validation, dependency calls, or security checks fail.
// Submit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Submit posts exactly one message per call and suspends the calling
// goroutine until the matching response arrives or ctx expires. There is no
// built-in timeout: bounded waiting is the caller's context deadline. An
// expired ctx abandons the session; its eventual late response is discarded
// by the channel and the oracle is not informed.
func (s *Session) Submit(ctx context.Context, req Request) (string, error) {
	if s == nil || s.channel == nil {
		return "", ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	switch s.state {
	case SessionPending:
		s.mu.Unlock()
		return "", ErrSessionBusy
	case SessionResolved, SessionRejected:
		s.mu.Unlock()
		return "", ErrSessionConsumed
	}
	s.state = SessionPending
	s.mu.Unlock()

	id := req.CorrelationID()

	respCh, err := s.channel.register(id)
	if err != nil {
		s.finish(SessionRejected)
		return "", err
	}

	if err := s.channel.send(ctx, req); err != nil {
		s.channel.discard(id)
		s.finish(SessionRejected)
		return "", err
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			// Worker terminated while we were pending.
			s.finish(SessionRejected)
			return "", ErrChannelLost
		}
		if resp.Failed() {
			s.finish(SessionRejected)
			return "", oracleFailure(resp.Err)
		}
		s.finish(SessionResolved)
		return resp.Value, nil
	case <-ctx.Done():
		s.channel.discard(id)
		s.finish(SessionRejected)
		return "", ctx.Err()
	}
}

func (s *Session) finish(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
