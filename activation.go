package signalgraph

// This file implements the activation protocol of spec §4.2: a channel
// becomes reachable through activation, initiated by a sink and
// propagated to predecessors in insertion-timestamp order, and torn down
// symmetrically through deactivation when a channel's last successor
// detaches.
//
// Simplification versus the conceptual model: propagation here is a
// synchronous recursive walk rather than a barrier/completion state
// machine with per-predecessor async callbacks. Every ExecutionContext
// this package or its tests construct completes Invoke before returning
// (or, for asynchronous kinds, the handler being activated is a source
// with no further predecessors, so there is nothing to wait on). A
// fully general implementation supporting async activation completion
// across an arbitrary predecessor DAG is out of scope; see DESIGN.md.

// id, activateFromSuccessor, deactivateFromSuccessor, and loopCheckWalk
// make *Channel[T] satisfy predecessorNode, letting a channel of any
// element type sit in another channel's predecessor set.
var _ predecessorNode = (*Channel[int])(nil)

// activateFromSuccessor implements one successor's activation request.
// The first caller (successorCount 0->1) drives the Disabled transition;
// subsequent concurrent successors just bump the refcount and observe
// the channel already active or activating.
func (c *Channel[T]) activateFromSuccessor(d *deferredWork) {
	c.mu.Lock()
	c.successorCount++
	if c.successorCount > 1 {
		c.mu.Unlock()
		return
	}

	c.phase = synchronousPhase(0)
	// No activationCount bump here: activation alone doesn't invalidate an
	// Input snapshot taken before any successor ever attached (spec's
	// basic-pipeline walk depends on construct-then-subscribe-then-send
	// working). The counter still advances on deactivation and on any
	// predecessor-set change, so a superseded or rewired Input is still
	// caught.
	preds := append([]predecessorEntry(nil), c.predecessors.entries...)
	handler := c.handler
	c.mu.Unlock()

	if c.logger.IsEnabled(LevelDebug) {
		c.logger.Log(LogEntry{Level: LevelDebug, Category: "activation", ChannelID: c.idVal, Message: "channel activating"})
	}

	for _, p := range preds {
		p.node.activateFromSuccessor(d)
	}

	if handler != nil {
		d.add(func() {
			inner := &deferredWork{}
			handler.onActivated(c, inner)
			inner.run()
			c.completeActivation()
		})
	} else {
		d.add(c.completeActivation)
	}
}

// completeActivation flips a channel from Synchronous to Normal once its
// handler's onActivated hook (which may have seeded the queue with an
// activation-prefix replay) has run, then drains whatever is now
// dispatchable.
func (c *Channel[T]) completeActivation() {
	c.mu.Lock()
	if c.phase.phase == phaseSynchronous {
		c.phase = normalPhase()
		globalMetrics.recordActivation()
	}
	result, handler, ctx, duringActivation, ok := c.popWithContextLocked()
	c.mu.Unlock()

	if !ok {
		return
	}
	if isAsynchronousContext(ctx.Kind()) {
		ctx.InvokeAsync(func() { c.deliverAndDrain(ctx, handler, result, duringActivation) })
		return
	}
	c.deliverAndDrainSync(ctx, handler, result, duringActivation)
}

// deactivateFromSuccessor implements one successor's detach. The last
// caller (successorCount 1->0) transitions the channel to Disabled,
// drops its queue (an invalidation per §4.2), propagates deactivation to
// its own predecessors, and invokes the handler's onDeactivated hook.
func (c *Channel[T]) deactivateFromSuccessor(d *deferredWork) {
	c.mu.Lock()
	if c.successorCount == 0 {
		c.mu.Unlock()
		return
	}
	c.successorCount--
	if c.successorCount > 0 {
		c.mu.Unlock()
		return
	}

	c.phase = disabledPhase()
	c.activationCount++
	c.queue = nil
	c.itemProcessing = false
	preds := append([]predecessorEntry(nil), c.predecessors.entries...)
	handler := c.handler
	c.mu.Unlock()
	globalMetrics.recordDeactivation()

	if c.logger.IsEnabled(LevelDebug) {
		c.logger.Log(LogEntry{Level: LevelDebug, Category: "activation", ChannelID: c.idVal, Message: "channel deactivating"})
	}

	for _, p := range preds {
		p.node.deactivateFromSuccessor(d)
	}
	if handler != nil {
		d.add(func() {
			inner := &deferredWork{}
			handler.onDeactivated(inner)
			inner.run()
		})
	}
}

// loopCheckWalk reports whether candidate is this channel or any of its
// (transitive) predecessors, per §4.2's loop-prevention rule.
func (c *Channel[T]) loopCheckWalk(candidate uint64) bool {
	if c.idVal == candidate {
		return true
	}
	c.mu.Lock()
	preds := append([]predecessorEntry(nil), c.predecessors.entries...)
	c.mu.Unlock()
	for _, p := range preds {
		if p.node.loopCheckWalk(candidate) {
			return true
		}
	}
	return false
}

// addPredecessor wires pred in as a new predecessor of c, bumping c's
// activation counter (an invalidation, since the predecessor set
// changed) and, if c is already active, immediately activating pred and
// replaying nothing further (pred's own onActivated seeds whatever
// prefix it owes). loopCheck marks the addition as subject to the
// loop-prevention walk; ordinary processor wiring passes false.
//
// Returns ErrLoop without modifying c if loopCheck is true and c already
// appears in pred's own predecessor DAG (including pred itself): adding
// pred as a new direct predecessor of c in that situation would close a
// cycle, since c would then be reachable from pred on both the new edge
// and the pre-existing path.
func (c *Channel[T]) addPredecessor(pred predecessorNode, loopCheck bool) error {
	if loopCheck && pred.loopCheckWalk(c.idVal) {
		globalMetrics.recordLoopRejection()
		if c.logger.IsEnabled(LevelWarn) {
			c.logger.Log(LogEntry{Level: LevelWarn, Category: "activation", ChannelID: c.idVal, Message: "join rejected: would create a loop", Err: ErrLoop})
		}
		return ErrLoop
	}

	c.mu.Lock()
	c.predSeq++
	ts := c.predSeq
	c.predecessors.add(pred, ts, loopCheck)
	c.activationCount++
	active := c.successorCount > 0
	c.mu.Unlock()

	if active {
		d := &deferredWork{}
		pred.activateFromSuccessor(d)
		d.run()
	}
	return nil
}

// removePredecessor detaches pred from c's predecessor set, bumping the
// activation counter and, if c is currently active, deactivating pred's
// side of the edge (pred no longer has c as a successor).
func (c *Channel[T]) removePredecessor(predID uint64) {
	c.mu.Lock()
	node, removed := c.predecessors.remove(predID)
	if removed {
		c.activationCount++
	}
	active := c.successorCount > 0
	c.mu.Unlock()

	if removed && active {
		d := &deferredWork{}
		node.deactivateFromSuccessor(d)
		d.run()
	}
}

// activate is the public entry point a sink-side constructor uses to
// begin activating the graph rooted at c (i.e. c itself has no
// successor channel of its own; it IS the successor, the terminal
// consumer). It is equivalent to calling activateFromSuccessor directly
// but reads better at call sites that are not themselves channels.
func (c *Channel[T]) activate() {
	d := &deferredWork{}
	c.activateFromSuccessor(d)
	d.run()
}

// deactivate is activate's symmetric counterpart.
func (c *Channel[T]) deactivate() {
	d := &deferredWork{}
	c.deactivateFromSuccessor(d)
	d.run()
}
