package signalgraph

import "sync/atomic"

// Continuation is the escapable handle a transform callback uses to
// emit zero or more results downstream, on whatever schedule it likes.
// It is valid for the duration of the callback and, if retained past the
// callback's return (Retain), remains valid until dropped (Release).
// Retaining it blocks the transform's own input channel's dispatch
// queue (via block/unblock) until it is released, so the next upstream
// item is not delivered out from under a transform that is still
// composing its response, per spec §4.4/§5.
type Continuation[U any] struct {
	out      *Channel[U]
	predID   uint64
	ac       uint64
	released atomic.Bool
	blocked  bool
	hold     func()
	release  func()
}

// Send forwards r to the transform's output channel.
func (c *Continuation[U]) Send(r Result[U]) error {
	if c.out == nil {
		return Cancelled
	}
	return c.out.Send(r, c.predID, c.ac, true)
}

// Release drops the continuation's hold on the input channel's dispatch
// queue, if it had taken one. Safe to call more than once; subsequent
// calls are no-ops. Must be called outside any channel mutex.
func (c *Continuation[U]) Release() {
	if c == nil || !c.blocked {
		return
	}
	if c.released.CompareAndSwap(false, true) {
		c.release()
	}
}

// Retain marks the continuation as escaping its callback: it takes a
// hold on the transform's input channel so no further item is
// delivered to this transform's handler until Release runs. Call it
// from within fn, before fn returns, when the continuation will be used
// (Send'd through, or Release'd) later, from another goroutine or
// callback. Safe to call more than once.
func (c *Continuation[U]) Retain() {
	if c.blocked {
		return
	}
	c.blocked = true
	c.hold()
}

// transformHandler is the channelHandler installed on a transform's
// input channel: its deliver is invoked once per upstream Result, and it
// calls the user function with a Continuation targeting the transform's
// own output channel.
type transformHandler[T, U any] struct {
	noopLifecycle[T]
	in  *Channel[T]
	out *Channel[U]
	fn  func(Result[T], *Continuation[U])
}

func (h transformHandler[T, U]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	inAc := h.in.currentActivationCount()
	cont := &Continuation[U]{
		out: h.out, predID: h.in.id(), ac: h.out.currentActivationCount(),
		hold:    func() { h.in.block(inAc) },
		release: func() { h.in.unblock(inAc) },
	}
	h.fn(r, cont)
	// Only auto-release an untouched continuation: one fn retained stays
	// held until its own, later Release call, which is the whole point
	// of escaping past fn's return.
	if !cont.blocked {
		cont.Release()
	}
	if r.Err() != nil {
		d.add(h.out.deactivate)
	}
}

// statefulTransformHandler wraps transformHandler with an S value reset
// to a fresh initial() on every deactivation/reactivation cycle, per
// §4.4's stateful variant.
type statefulTransformHandler[T, U, S any] struct {
	in      *Channel[T]
	out     *Channel[U]
	fn      func(*S, Result[T], *Continuation[U])
	initial func() S
	state   S
}

func (h *statefulTransformHandler[T, U, S]) onActivated(*Channel[T], *deferredWork) {
	h.state = h.initial()
}

func (h *statefulTransformHandler[T, U, S]) onDeactivated(*deferredWork) {}

func (h *statefulTransformHandler[T, U, S]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	inAc := h.in.currentActivationCount()
	cont := &Continuation[U]{
		out: h.out, predID: h.in.id(), ac: h.out.currentActivationCount(),
		hold:    func() { h.in.block(inAc) },
		release: func() { h.in.unblock(inAc) },
	}
	h.fn(&h.state, r, cont)
	if !cont.blocked {
		cont.Release()
	}
	if r.Err() != nil {
		d.add(h.out.deactivate)
	}
}

// newTransformChannels builds the (in, out) channel pair for a
// transform: out shares in's mutex, per §5's "Shared resources" rule for
// an immediate-context processor, when ctx.Kind() is Immediate.
func newTransformChannels[T, U any](in *Channel[T], ctx ExecutionContext, logger Logger) *Channel[U] {
	if ctx.Kind() == Immediate {
		return newChannelSharingMutex[U](in.mu, ctx, logger)
	}
	return newChannel[U](ctx, logger)
}
