package goGrant

import (
	"context"
	"errors"
	"time"
)

// Engine defines a public type used by goGrant APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config  Config
	channel *Channel
	limiter *requestLimiter
	audit   *auditDispatcher
	metrics *Metrics
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Close stops the channel worker first, rejecting pending sessions with
// [ErrChannelLost], and then drains the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.channel != nil {
		e.channel.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Channel exposes the engine's request channel so callers that need direct
// [Session] control (custom correlation handling, protocol tests) can build
// sessions against it.
func (e *Engine) Channel() *Channel {
	if e == nil {
		return nil
	}
	return e.channel
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	e.audit.Emit(ctx, event)
}

func (e *Engine) outcomeMetric(err error, success, failure MetricID) {
	switch {
	case err == nil:
		e.metricInc(success)
	case errors.Is(err, ErrChannelLost):
		e.metricInc(MetricChannelLost)
		e.metricInc(failure)
	case errors.Is(err, ErrSessionBusy):
		e.metricInc(MetricSessionBusy)
		e.metricInc(failure)
	case errors.Is(err, ErrRequestRateLimited):
		e.metricInc(MetricRequestRateLimited)
		e.metricInc(failure)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.metricInc(MetricRequestAbandoned)
		e.metricInc(failure)
	default:
		e.metricInc(failure)
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
