package goGrant

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Channel defines a public type used by goGrant APIs.
//
// Channel instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// A Channel owns the worker goroutine that drains the FIFO request queue and
// invokes the injected [Oracle]. Responses are matched to waiting sessions by
// correlation ID, so any number of sessions may share one Channel. A response
// whose session has been abandoned is discarded. If the worker terminates,
// whether through [Channel.Close] or an oracle crash, every pending session is
// rejected with [ErrChannelLost].
type Channel struct {
	oracle   Oracle
	requests chan Request
	done     chan struct{}

	mu      sync.Mutex
	pending map[uuid.UUID]chan Response
	failed  bool

	lost      atomic.Bool
	closeOnce sync.Once
}

// NewChannel describes the newchannel operation and its observable behavior.
//
// NewChannel does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewChannel(oracle Oracle, buffer int) *Channel {
	if buffer <= 0 {
		buffer = 1
	}

	c := &Channel{
		oracle:   oracle,
		requests: make(chan Request, buffer),
		done:     make(chan struct{}),
		pending:  make(map[uuid.UUID]chan Response),
	}

	go c.run()

	return c
}

func (c *Channel) run() {
	defer func() {
		if r := recover(); r != nil {
			// Oracle crashed out-of-band; the unit is gone for good.
			c.lost.Store(true)
		}
		c.failPending()
	}()

	for {
		select {
		case req := <-c.requests:
			c.deliver(c.invoke(req))
		case <-c.done:
			return
		}
	}
}

// invoke hands the request's key/passphrase material to the oracle and drops
// every reference once the response exists; the channel retains nothing.
func (c *Channel) invoke(req Request) Response {
	ctx := context.Background()

	switch r := req.(type) {
	case NarrowRequest:
		value, err := c.oracle.Narrow(ctx, r.APIKey, r.Permission)
		if err != nil {
			return Response{ID: r.ID, Err: err.Error()}
		}
		return Response{ID: r.ID, Value: value}
	case DeriveRequest:
		value, err := c.oracle.Derive(ctx, r.APIKey, r.Passphrase, r.ProjectID, r.ServiceURL)
		if err != nil {
			return Response{ID: r.ID, Err: err.Error()}
		}
		return Response{ID: r.ID, Value: value}
	default:
		return Response{ID: req.CorrelationID(), Err: "unknown request kind"}
	}
}

// register reserves a completion slot for the given correlation ID. The
// returned channel delivers exactly one response, or is closed without a send
// when the worker is lost.
func (c *Channel) register(id uuid.UUID) (<-chan Response, error) {
	ch := make(chan Response, 1)

	c.mu.Lock()
	if c.failed {
		c.mu.Unlock()
		return nil, ErrChannelLost
	}
	c.pending[id] = ch
	c.mu.Unlock()

	return ch, nil
}

// discard abandons a pending correlation ID. The eventual late response, if
// any, is dropped by deliver.
func (c *Channel) discard(id uuid.UUID) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Channel) deliver(resp Response) {
	c.mu.Lock()
	ch, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.mu.Unlock()

	if !ok {
		// Abandoned session; nobody is waiting.
		return
	}
	ch <- resp
}

func (c *Channel) failPending() {
	c.mu.Lock()
	c.failed = true
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
	c.mu.Unlock()
}

// send posts exactly one message to the FIFO queue, suspending until the
// queue accepts it, the caller gives up, or the worker is gone.
func (c *Channel) send(ctx context.Context, req Request) error {
	if c.lost.Load() {
		return ErrChannelLost
	}

	select {
	case c.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrChannelLost
	}
}

// Lost describes the lost operation and its observable behavior.
//
// Lost does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Channel) Lost() bool {
	return c.lost.Load()
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Close rejects every pending session with [ErrChannelLost] and signals the
// worker to stop. It does not wait for an in-flight oracle call: per the
// protocol there is no cancellation primitive, so the oracle may finish
// wasted work after Close and its response is discarded. Close is idempotent
// and safe to call concurrently.
func (c *Channel) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.lost.Store(true)
		close(c.done)
		c.failPending()
	})
}
