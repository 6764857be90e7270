package goGrant

import (
	"github.com/google/uuid"

	"github.com/MrEthical07/goGrant/permission"
)

// RequestKind defines a public type used by goGrant APIs.
//
// RequestKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RequestKind uint8

const (
	// KindNarrow is an exported constant or variable used by the grant engine.
	KindNarrow RequestKind = iota + 1
	// KindDerive is an exported constant or variable used by the grant engine.
	KindDerive
)

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (k RequestKind) String() string {
	switch k {
	case KindNarrow:
		return "Narrow"
	case KindDerive:
		return "Derive"
	default:
		return "Unknown"
	}
}

// Request is the sealed tagged union of messages the channel delivers to the
// oracle. Every request carries a generated correlation ID; the matching
// [Response] echoes it. The compiler enforces that both kinds are handled;
// there is no dynamically-shaped message in this protocol.
type Request interface {
	Kind() RequestKind
	CorrelationID() uuid.UUID

	sealedRequest()
}

// NarrowRequest defines a public type used by goGrant APIs.
//
// NarrowRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NarrowRequest struct {
	ID         uuid.UUID
	APIKey     string
	Permission permission.Set
}

// Kind describes the kind operation and its observable behavior.
//
// Kind does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r NarrowRequest) Kind() RequestKind { return KindNarrow }

// CorrelationID describes the correlationid operation and its observable behavior.
//
// CorrelationID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r NarrowRequest) CorrelationID() uuid.UUID { return r.ID }

func (NarrowRequest) sealedRequest() {}

// DeriveRequest defines a public type used by goGrant APIs.
//
// DeriveRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DeriveRequest struct {
	ID         uuid.UUID
	APIKey     string
	Passphrase string
	ProjectID  string
	ServiceURL string
}

// Kind describes the kind operation and its observable behavior.
//
// Kind does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r DeriveRequest) Kind() RequestKind { return KindDerive }

// CorrelationID describes the correlationid operation and its observable behavior.
//
// CorrelationID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r DeriveRequest) CorrelationID() uuid.UUID { return r.ID }

func (DeriveRequest) sealedRequest() {}

// Response defines a public type used by goGrant APIs.
//
// Response instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// Value and Err are mutually exclusive: every request yields exactly one of
// success or failure, never partial success.
type Response struct {
	ID    uuid.UUID
	Value string
	Err   string
}

// Failed describes the failed operation and its observable behavior.
//
// Failed does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r Response) Failed() bool {
	return r.Err != ""
}
