package goGrant

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineNotReady is an exported constant or variable used by the grant engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrSessionBusy is an exported constant or variable used by the grant engine.
	ErrSessionBusy = errors.New("session already has a request in flight")
	// ErrSessionConsumed is an exported constant or variable used by the grant engine.
	ErrSessionConsumed = errors.New("session already completed")
	// ErrChannelLost is an exported constant or variable used by the grant engine.
	ErrChannelLost = errors.New("oracle channel lost")
	// ErrAPIKeyEmpty is an exported constant or variable used by the grant engine.
	ErrAPIKeyEmpty = errors.New("api key empty")
	// ErrRequestRateLimited is an exported constant or variable used by the grant engine.
	ErrRequestRateLimited = errors.New("grant request rate limited")
)

// OracleError defines a public type used by goGrant APIs.
//
// OracleError carries the oracle's failure message verbatim; the engine never
// re-interprets or rephrases it. UI layers own user-facing wording.
type OracleError struct {
	Message string
}

// Error describes the error operation and its observable behavior.
//
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *OracleError) Error() string {
	return e.Message
}

func oracleFailure(message string) error {
	return &OracleError{Message: message}
}

// AsOracleError describes the asoracleerror operation and its observable behavior.
//
// AsOracleError does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func AsOracleError(err error) (*OracleError, bool) {
	var oe *OracleError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

func wrapUnavailable(sentinel error, cause error) error {
	return fmt.Errorf("%w: %v", sentinel, cause)
}
