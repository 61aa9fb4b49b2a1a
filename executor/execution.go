package executor

import (
	"context"
	"sync"
	"sync/atomic"
)

// State is a step of the execution state machine
type State int32

const (
	StateBuilding State = iota
	StateSending
	StateValidating
	StateRetrying
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateSending:
		return "sending"
	case StateValidating:
		return "validating"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Outcome is the single terminal result of an execution. Exactly one of Value
// and Err is meaningful; Value may be nil for an empty response.
type Outcome struct {
	ExecutionID string
	Value       any
	Err         error
}

// Succeeded reports whether the execution produced a value
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// ProgressEvent reports the completed fraction of an upload or download
type ProgressEvent struct {
	ExecutionID string
	Fraction    float64
}

// EventKind distinguishes progress from the terminal outcome
type EventKind int

const (
	EventProgress EventKind = iota
	EventOutcome
)

// Event is one item of an execution's stream
type Event struct {
	Kind     EventKind
	Progress ProgressEvent
	Outcome  Outcome
}

// Execution is the handle of one submitted request.
type Execution struct {
	id       string
	cancel   context.CancelFunc
	mailbox  *mailbox
	done     chan struct{}
	outcome  Outcome
	state    atomic.Int32
	notified atomic.Bool
	executor *Executor
}

// ID returns the execution identifier
func (x *Execution) ID() string {
	return x.id
}

// State returns the current state
func (x *Execution) State() State {
	return State(x.state.Load())
}

// Events returns the stream of progress events followed by exactly one outcome.
// The channel is closed after the outcome. Progress events are dropped when
// the reader falls behind; the outcome never is.
func (x *Execution) Events() <-chan Event {
	return x.mailbox.ch
}

// Notify delivers the execution's events to fn on the executor's delivery
// goroutine, in order. It must be called at most once and replaces reading Events.
func (x *Execution) Notify(fn func(Event)) {
	if fn == nil || !x.notified.CompareAndSwap(false, true) {
		return
	}
	x.executor.forward(x.mailbox.ch, fn)
}

// Done is closed once the outcome is available
func (x *Execution) Done() <-chan struct{} {
	return x.done
}

// Wait blocks until the outcome is available or ctx ends
func (x *Execution) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-x.done:
		return x.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Cancel stops the execution. The outcome reports the cancellation unless the
// execution had already finished.
func (x *Execution) Cancel() {
	x.cancel()
}

func (x *Execution) setState(s State) {
	x.state.Store(int32(s))
}

// mailbox is the ordered event buffer of one execution. One slot is kept free
// so the outcome can always be enqueued without blocking.
type mailbox struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func newMailbox(size int) *mailbox {
	if size < 2 {
		size = 2
	}
	return &mailbox{ch: make(chan Event, size)}
}

// offer enqueues a progress event, reporting false when it was dropped
func (m *mailbox) offer(ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || len(m.ch) >= cap(m.ch)-1 {
		return false
	}
	m.ch <- ev
	return true
}

// finish enqueues the outcome and closes the stream
func (m *mailbox) finish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.ch <- ev
	m.closed = true
	close(m.ch)
}
