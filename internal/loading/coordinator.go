// Package loading decides when everything requested for the current view has
// arrived.
//
// Loaders and the pipeline that prepares loaded assets report "done" at
// different times, and either may need more work right after reporting done.
// The Coordinator therefore waits for a run of consecutive clean ticks before
// declaring the view Ready. There is no timeout: a load that never completes
// keeps the coordinator in Loading.
package loading

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
)

// DefaultConfirmationFrames is the number of consecutive clean ticks required
// before the status becomes Ready.
const DefaultConfirmationFrames = 5

// Status is the two-state loading status.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	default:
		return "loading"
	}
}

// Handle identifies one load request.
type Handle struct {
	id uuid.UUID
}

// NewHandle returns a fresh, unique handle.
func NewHandle() Handle {
	return Handle{id: uuid.New()}
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.id == uuid.Nil
}

func (h Handle) String() string {
	return h.id.String()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConfirmationFrames sets the number of consecutive clean ticks needed
// to become Ready. Values below 1 are ignored.
func WithConfirmationFrames(n int) Option {
	return func(c *Coordinator) {
		if n >= 1 {
			c.target = n
		}
	}
}

// Coordinator tracks pending load handles and the external pipeline
// readiness flag. It is not safe for concurrent use; every call must come
// from the single tick context (e.g., the Bubble Tea update loop).
type Coordinator struct {
	pending        map[Handle]struct{}
	pipelinesReady bool
	status         Status
	confirmations  int
	target         int
}

// New returns a Coordinator in the Loading state with nothing pending.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		pending: make(map[Handle]struct{}),
		status:  StatusLoading,
		target:  DefaultConfirmationFrames,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds h to the pending set and forces the status back to Loading.
// Registering a handle that is already pending is a no-op on the set.
func (c *Coordinator) Register(h Handle) {
	c.pending[h] = struct{}{}
	c.confirmations = 0
	c.status = StatusLoading
	pendingLoads.Set(float64(len(c.pending)))
}

// MarkComplete removes h from the pending set. Unknown handles, such as
// ones abandoned by a navigation change, are dropped silently.
func (c *Coordinator) MarkComplete(h Handle) {
	if _, ok := c.pending[h]; !ok {
		staleCompletions.Inc()
		logs.WithTag("handle", h.String()).Debug("dropping completion for untracked handle")
		return
	}
	delete(c.pending, h)
	pendingLoads.Set(float64(len(c.pending)))
}

// SetPipelinesReady records whether the external pipelines are ready.
func (c *Coordinator) SetPipelinesReady(ready bool) {
	c.pipelinesReady = ready
}

// Sweep marks complete every pending handle for which isComplete reports
// true. It is the polling bridge for loaders that expose completion state
// rather than calling back.
func (c *Coordinator) Sweep(isComplete func(Handle) bool) {
	for h := range c.pending {
		if isComplete(h) {
			delete(c.pending, h)
		}
	}
	pendingLoads.Set(float64(len(c.pending)))
}

// Reset abandons every pending handle. Late completions for them are
// treated as unknown. The status is left unchanged; the next Register
// moves it to Loading.
func (c *Coordinator) Reset() {
	clear(c.pending)
	c.confirmations = 0
	pendingLoads.Set(0)
}

// Tick advances the state machine by one scheduling interval and returns
// the resulting status.
//
// While Loading, a tick with pending handles or unready pipelines resets the
// confirmation count; a clean tick increments it, and reaching the target
// switches to Ready. Once Ready, ticks change nothing until the next
// Register.
func (c *Coordinator) Tick() Status {
	if c.status == StatusReady {
		return c.status
	}

	if len(c.pending) > 0 || !c.pipelinesReady {
		c.confirmations = 0
		return c.status
	}

	c.confirmations++
	if c.confirmations >= c.target {
		c.status = StatusReady
		readyTransitions.Inc()
		logs.WithTag("confirmations", c.confirmations).Debug("loading complete")
	}
	return c.status
}

// Status returns the current status.
func (c *Coordinator) Status() Status {
	return c.status
}

// Pending returns the number of handles still awaited.
func (c *Coordinator) Pending() int {
	return len(c.pending)
}

// IsPending reports whether h is still awaited.
func (c *Coordinator) IsPending(h Handle) bool {
	_, ok := c.pending[h]
	return ok
}

// PipelinesReady returns the last value given to SetPipelinesReady.
func (c *Coordinator) PipelinesReady() bool {
	return c.pipelinesReady
}

// Confirmations returns the current run of consecutive clean ticks.
func (c *Coordinator) Confirmations() int {
	return c.confirmations
}
