package goGrant

import (
	"context"

	"github.com/google/uuid"

	"github.com/MrEthical07/goGrant/permission"
)

// Narrow describes the narrow operation and its observable behavior.
//
// Narrow may return an error when input validation, dependency calls, or security checks fail.
// Narrow does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Narrow asks the oracle to restrict apiKey to the given permission set and
// returns the serialized restricted key. The permission set is validated
// before any message is posted; validation failures never reach the channel.
// Each call runs as its own single-flight session, so concurrent Narrow and
// Derive calls on one Engine are safe.
func (e *Engine) Narrow(ctx context.Context, apiKey string, perm permission.Set) (string, error) {
	if e == nil || e.channel == nil {
		return "", ErrEngineNotReady
	}
	if apiKey == "" {
		return "", ErrAPIKeyEmpty
	}

	if err := perm.Validate(); err != nil {
		e.metricInc(MetricNarrowValidationRejected)
		return "", err
	}

	if err := e.limiter.Check(ctx, apiKey); err != nil {
		e.outcomeMetric(err, MetricNarrowSuccess, MetricNarrowFailure)
		return "", err
	}

	req := NarrowRequest{
		ID:         uuid.New(),
		APIKey:     apiKey,
		Permission: perm,
	}

	value, err := NewSession(e.channel).Submit(ctx, req)

	e.outcomeMetric(err, MetricNarrowSuccess, MetricNarrowFailure)
	e.emitAudit(ctx, AuditEvent{
		EventType: "narrow",
		RequestID: req.ID.String(),
		Buckets:   len(perm.Buckets),
		Success:   err == nil,
		Error:     errorString(err),
	})

	return value, err
}
