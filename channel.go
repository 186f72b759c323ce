package signalgraph

import (
	"sync"
	"sync/atomic"
)

var nextChannelID atomic.Uint64

func newChannelID() uint64 {
	return nextChannelID.Add(1)
}

// channelHandler is the behavior attached to a Channel: source, processor,
// or sink. A Channel holds an ordinary reference to at most one
// handler; the multi-output processor reaches many successors through its
// own internal multiplicity rather than through the channel holding more
// than one handler.
type channelHandler[T any] interface {
	// onActivated runs once, synchronously, while ch transitions out of
	// phaseDisabled, before ch flips to phaseNormal. The Generator handler
	// mints a fresh Input here and the preclosed handler seeds its values
	// via ch.pushLocked; multi-output handlers seed their replay in
	// attach instead.
	onActivated(ch *Channel[T], d *deferredWork)

	// onDeactivated runs once when ch's last successor detaches.
	onDeactivated(d *deferredWork)

	// deliver hands one Result to the handler's behavior, outside any
	// channel mutex. duringActivation is true when this delivery is part
	// of ch's own activation prefix (i.e. ch was still Synchronous when
	// the item was popped); handlers that forward the result onward pass
	// !duringActivation as the activatedFlag of their own outgoing send.
	deliver(d *deferredWork, r Result[T], duringActivation bool)
}

// Channel is the queue-bearing, mutex-protected state of one graph node.
// See the package's core specification (spec.md §3–4) for the full
// invariants; this type implements them directly.
type Channel[T any] struct {
	mu *sync.Mutex

	idVal uint64
	ctx   ExecutionContext

	queue           []Result[T]
	phase           phaseState
	activationCount uint64
	holdCount       int
	itemProcessing  bool

	predecessors predecessorSet
	predSeq      uint64

	// successorCount is the number of live successors currently holding
	// this channel active (i.e. that have called activateFromSuccessor
	// without a matching deactivateFromSuccessor). It drives the
	// Disabled<->Synchronous/Normal transition independent of T, so a
	// combiner branch or multi-output fan-out can share one channel
	// across several downstream consumers.
	successorCount int

	// subscribed marks a single-output channel as already claimed by one
	// Subscribe call; a second Subscribe gets a synthetic Duplicate
	// signal instead of sharing the channel. Only Subscribe consults
	// this flag; Transform, Combine and the other composition calls do
	// not.
	subscribed bool

	handler channelHandler[T]

	logger Logger
}

// newChannel creates a Disabled channel with its own fresh mutex.
func newChannel[T any](ctx ExecutionContext, logger Logger) *Channel[T] {
	c := &Channel[T]{
		mu:           &sync.Mutex{},
		idVal:        newChannelID(),
		ctx:          ctx,
		predecessors: newPredecessorSet(),
		phase:        disabledPhase(),
		logger:       orNoOpLogger(logger),
	}
	registerChannel(globalRegistry, c)
	return c
}

// newChannelSharingMutex creates a Disabled channel that shares mu with an
// immediate-context predecessor channel, per §5's "Shared resources" rule:
// valid only because no user code ever runs while mu is held.
func newChannelSharingMutex[T any](mu *sync.Mutex, ctx ExecutionContext, logger Logger) *Channel[T] {
	c := &Channel[T]{
		mu:           mu,
		idVal:        newChannelID(),
		ctx:          ctx,
		predecessors: newPredecessorSet(),
		phase:        disabledPhase(),
		logger:       orNoOpLogger(logger),
	}
	registerChannel(globalRegistry, c)
	return c
}

// describe implements registryEntry for diagnostics (Diagnostics()).
func (c *Channel[T]) describe() NodeInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	preds := make([]uint64, len(c.predecessors.entries))
	for i, e := range c.predecessors.entries {
		preds[i] = e.node.id()
	}
	return NodeInfo{
		ID:           c.idVal,
		Phase:        c.phase.String(),
		QueueLen:     len(c.queue),
		Predecessors: preds,
	}
}

func (c *Channel[T]) id() uint64 { return c.idVal }

// currentActivationCount returns the live activation counter. Predecessors
// read this immediately before calling sendFromPredecessor so that a
// concurrent rewire racing with the read is still caught by Send's own
// staleness check.
func (c *Channel[T]) currentActivationCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activationCount
}

// setHandler installs h as the channel's handler under the mutex. Used by
// constructors and by reattachment operations (Capture.Join,
// Junction.Join/rejoin).
func (c *Channel[T]) setHandler(h channelHandler[T]) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Send implements the delivery algorithm of spec §4.1. predecessorID == 0
// is valid only when the channel currently has no predecessors (the
// manual-input case); activationCount must match the channel's current
// counter exactly, or the send is rejected as Cancelled without enqueuing.
func (c *Channel[T]) Send(r Result[T], predecessorID uint64, activationCount uint64, activatedFlag bool) error {
	c.mu.Lock()

	if predecessorID == 0 {
		if !c.predecessors.empty() || activationCount != c.activationCount {
			c.mu.Unlock()
			globalMetrics.recordRejected()
			c.logRejected("stale send: predecessor set or activation epoch changed")
			return Cancelled
		}
	} else {
		if !c.predecessors.has(predecessorID) || activationCount != c.activationCount {
			c.mu.Unlock()
			globalMetrics.recordRejected()
			c.logRejected("stale send: predecessor no longer recognized or activation epoch changed")
			return Cancelled
		}
	}

	if c.phase.phase == phaseDisabled {
		c.mu.Unlock()
		globalMetrics.recordRejected()
		c.logRejected("send while disabled")
		return Inactive
	}

	switch c.phase.phase {
	case phaseSynchronous:
		if activatedFlag {
			c.queue = append(c.queue, r)
		} else {
			idx := c.phase.prefixCount
			c.queue = insertAt(c.queue, idx, r)
			c.phase.prefixCount++
		}
	default: // phaseNormal
		c.queue = append(c.queue, r)
	}

	result, handler, ctx, duringActivation, ok := c.popWithContextLocked()
	c.mu.Unlock()

	if ok {
		if isAsynchronousContext(ctx.Kind()) {
			ctx.InvokeAsync(func() { c.deliverAndDrain(ctx, handler, result, duringActivation) })
		} else {
			c.deliverAndDrainSync(ctx, handler, result, duringActivation)
		}
	}
	return nil
}

// sendFromPredecessor is the convenience entry point used by handlers
// forwarding a value to their successor channel: it reads the current
// activation counter and issues the tagged Send in one call.
func (c *Channel[T]) sendFromPredecessor(predecessorID uint64, r Result[T], activatedFlag bool) error {
	ac := c.currentActivationCount()
	return c.Send(r, predecessorID, ac, activatedFlag)
}

// pushLocked appends values directly to the queue, bypassing the
// staleness/phase gate. It does not take c.mu; its callers (multi-output
// attach on a fresh Disabled successor, and the preclosed handler's
// onActivated) run before any live sender can reach the channel. It does
// not attempt dispatch; completeActivation dispatches the queued entries.
func (c *Channel[T]) pushLocked(r Result[T]) {
	c.queue = append(c.queue, r)
}

// insertAt inserts v into s at index idx, preserving order.
func insertAt[T any](s []T, idx int, v T) []T {
	if idx >= len(s) {
		return append(s, v)
	}
	s = append(s, v)
	copy(s[idx+1:], s[idx:len(s)-1])
	s[idx] = v
	return s
}

// popWithContextLocked pops the next queue entry and marks the channel
// itemProcessing, iff the channel is eligible to dispatch right now (queue
// non-empty, hold count zero, not already processing, not Disabled), and
// reports whether the popped item belongs to the activation prefix. Must
// be called with c.mu held; the caller must unlock before delivering.
func (c *Channel[T]) popWithContextLocked() (r Result[T], handler channelHandler[T], ctx ExecutionContext, duringActivation, ok bool) {
	if c.itemProcessing || c.holdCount != 0 || c.phase.phase == phaseDisabled || len(c.queue) == 0 || c.handler == nil {
		return
	}
	r = c.queue[0]
	c.queue = c.queue[1:]
	duringActivation = c.phase.phase == phaseSynchronous
	if duringActivation && c.phase.prefixCount > 0 {
		c.phase.prefixCount--
	}
	c.itemProcessing = true
	handler = c.handler
	ctx = c.ctx
	ok = true
	return
}

// deliverAndDrainSync runs handler.deliver for r via ctx.Invoke (which for
// synchronous context kinds executes before returning), then keeps
// popping/invoking on the calling goroutine until the queue empties.
func (c *Channel[T]) deliverAndDrainSync(ctx ExecutionContext, handler channelHandler[T], r Result[T], duringActivation bool) {
	ctx.Invoke(func() {
		d := &deferredWork{}
		handler.deliver(d, r, duringActivation)
		d.run()
	})
	globalMetrics.recordDispatch()
	c.finishItemAndContinue(ctx, false)
}

// deliverAndDrain is the async-context counterpart: run once, then if more
// work remains, resubmit rather than looping inline.
func (c *Channel[T]) deliverAndDrain(ctx ExecutionContext, handler channelHandler[T], r Result[T], duringActivation bool) {
	d := &deferredWork{}
	handler.deliver(d, r, duringActivation)
	d.run()
	globalMetrics.recordDispatch()
	c.finishItemAndContinue(ctx, true)
}

// finishItemAndContinue clears itemProcessing and, if more work is
// eligible, dispatches it either inline (sync contexts) or via
// InvokeAsync (async contexts).
func (c *Channel[T]) finishItemAndContinue(ctx ExecutionContext, async bool) {
	c.mu.Lock()
	c.itemProcessing = false
	r, handler, nextCtx, duringActivation, ok := c.popWithContextLocked()
	c.mu.Unlock()

	if !ok {
		return
	}
	if async {
		nextCtx.InvokeAsync(func() { c.deliverAndDrain(nextCtx, handler, r, duringActivation) })
		return
	}
	c.deliverAndDrainSync(nextCtx, handler, r, duringActivation)
}

// block increments the hold count, guarded by the activation counter so a
// block request from a stale epoch is a silent no-op.
func (c *Channel[T]) block(ac uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activationCount == ac && c.holdCount < 2 {
		c.holdCount++
	}
}

// unblock decrements the hold count and resumes dispatch if eligible.
func (c *Channel[T]) unblock(ac uint64) {
	c.mu.Lock()
	if c.activationCount == ac && c.holdCount > 0 {
		c.holdCount--
	}
	r, handler, ctx, duringActivation, ok := c.popWithContextLocked()
	c.mu.Unlock()

	if !ok {
		return
	}
	if isAsynchronousContext(ctx.Kind()) {
		ctx.InvokeAsync(func() { c.deliverAndDrain(ctx, handler, r, duringActivation) })
		return
	}
	c.deliverAndDrainSync(ctx, handler, r, duringActivation)
}

// Logger returns the channel's configured logger (never nil).
func (c *Channel[T]) Logger() Logger { return c.logger }

// logRejected reports one rejected Send at LevelWarn, outside any lock.
func (c *Channel[T]) logRejected(reason string) {
	if c.logger.IsEnabled(LevelWarn) {
		c.logger.Log(LogEntry{Level: LevelWarn, Category: "send", ChannelID: c.idVal, Message: reason})
	}
}
