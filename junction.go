package signalgraph

import "sync"

// Junction is a splice point: a place in the graph whose upstream can be
// disconnected and reattached without disturbing whatever is wired
// downstream of it. Disconnect yields a fresh Input for the downstream
// channel (atomically invalidating the prior one), so anything still
// reading from the junction's output observes a clean Cancelled/rewire
// rather than a dangling edge. Junctions do not share a mutex with their
// successor — the whole point is that the successor may migrate between
// graphs — and Join runs the loop-prevention walk of §4.2.
type Junction[T any] struct {
	mu  sync.Mutex
	out *Channel[T]

	upstream *Channel[T]
}

// NewJunction creates a disconnected junction with its own output
// channel, ready to Join an upstream Signal.
func NewJunction[T any](opts ...Option) (*Junction[T], Signal[T]) {
	cfg := resolveOptions(opts)
	out := newChannel[T](cfg.ctx, cfg.logger)
	j := &Junction[T]{out: out}
	return j, Signal[T]{ch: out}
}

// junctionForwardHandler is installed on the upstream channel a
// Junction is currently joined to; it forwards every delivery straight
// to the junction's output.
type junctionForwardHandler[T any] struct {
	noopLifecycle[T]
	in  *Channel[T]
	out *Channel[T]
}

func (h junctionForwardHandler[T]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	d.add(func() {
		_ = h.out.sendFromPredecessor(h.in.id(), r, !duringActivation)
	})
}

// Join attaches sig as the junction's upstream, rejecting with ErrLoop
// (and leaving the junction disconnected) if the junction's output
// channel already appears in sig's own predecessor DAG — i.e. joining
// the junction's own downstream back into itself. onError, if non-nil,
// intercepts a terminal failure from this upstream instead of letting it
// propagate to the junction's output.
func (j *Junction[T]) Join(sig Signal[T], onError func(error)) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.out.addPredecessor(sig.ch, true); err != nil {
		return err
	}
	handler := junctionForwardHandler[T]{in: sig.ch, out: j.out}
	if onError != nil {
		sig.ch.setHandler(errorInterceptHandler[T]{inner: handler, onError: onError})
	} else {
		sig.ch.setHandler(handler)
	}
	j.upstream = sig.ch
	return nil
}

// errorInterceptHandler wraps another channelHandler, routing Failure
// deliveries to onError instead of forwarding them, per Junction.Join
// and Capture.Join's onError parameter.
type errorInterceptHandler[T any] struct {
	inner   channelHandler[T]
	onError func(error)
}

func (h errorInterceptHandler[T]) onActivated(ch *Channel[T], d *deferredWork) {
	h.inner.onActivated(ch, d)
}

func (h errorInterceptHandler[T]) onDeactivated(d *deferredWork) {
	h.inner.onDeactivated(d)
}

func (h errorInterceptHandler[T]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	if err := r.Err(); err != nil {
		d.add(func() { h.onError(err) })
		return
	}
	h.inner.deliver(d, r, duringActivation)
}

// Disconnect detaches the junction's current upstream, if any, returning
// a fresh Input for the junction's own output channel so a caller can
// feed it manually until the next Join. The prior upstream's Input (if
// the caller held one) becomes Cancelled on its next Send.
func (j *Junction[T]) Disconnect() Input[T] {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.upstream != nil {
		j.out.removePredecessor(j.upstream.id())
		j.upstream = nil
	}
	return newInput(j.out)
}

// Rejoin disconnects and rejoins the same upstream, forcing a reset of
// the junction output's activation state (a fresh activation counter)
// without the caller needing to resupply the Signal.
func (j *Junction[T]) Rejoin(onError func(error)) error {
	j.mu.Lock()
	upstream := j.upstream
	j.mu.Unlock()
	if upstream == nil {
		return nil
	}
	j.Disconnect()
	return j.Join(Signal[T]{ch: upstream}, onError)
}
