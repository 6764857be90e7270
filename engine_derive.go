package goGrant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goGrant/passphrase"
)

// Derive describes the derive operation and its observable behavior.
//
// Derive may return an error when input validation, dependency calls, or security checks fail.
// Derive does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Derive asks the oracle to combine the restricted key with the passphrase,
// project ID, and service URL into a serialized access grant. The passphrase
// is used exactly once to build the request and is never retained by this
// layer; derivation is deterministic for identical inputs, so callers can
// regenerate the same grant from a remembered passphrase.
func (e *Engine) Derive(ctx context.Context, restrictedKey, phrase, projectID, serviceURL string) (string, error) {
	if e == nil || e.channel == nil {
		return "", ErrEngineNotReady
	}
	if restrictedKey == "" {
		return "", ErrAPIKeyEmpty
	}
	if phrase == "" {
		return "", passphrase.ErrEmpty
	}

	if err := e.limiter.Check(ctx, restrictedKey); err != nil {
		e.outcomeMetric(err, MetricDeriveSuccess, MetricDeriveFailure)
		return "", err
	}

	req := DeriveRequest{
		ID:         uuid.New(),
		APIKey:     restrictedKey,
		Passphrase: phrase,
		ProjectID:  projectID,
		ServiceURL: serviceURL,
	}

	start := time.Now()
	value, err := NewSession(e.channel).Submit(ctx, req)
	e.metricObserve(MetricDeriveLatency, time.Since(start))

	e.outcomeMetric(err, MetricDeriveSuccess, MetricDeriveFailure)
	e.emitAudit(ctx, AuditEvent{
		EventType: "derive",
		RequestID: req.ID.String(),
		ProjectID: projectID,
		Success:   err == nil,
		Error:     errorString(err),
	})

	return value, err
}
