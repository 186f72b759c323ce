package signalgraph

import "sync"

// Capture freezes the activation prefix (every value, and the terminal
// error if any, delivered while its upstream was still completing
// activation) from a Signal, and holds its upstream channel active
// (hold count >= 1) until Join reattaches a downstream
// consumer. Values arriving between Capture and Join are buffered, not
// lost, per spec §4.7.
type Capture[T any] struct {
	mu sync.Mutex

	in   *Channel[T]
	ac   uint64
	held bool

	prefixValues []T
	prefixErr    error
	prefixDone   bool

	postValues []T
	postErr    error

	joined bool
	out    *Channel[T]
}

type captureHandler[T any] struct {
	c *Capture[T]
}

func (h captureHandler[T]) onActivated(*Channel[T], *deferredWork) {}

func (h captureHandler[T]) onDeactivated(*deferredWork) {}

func (h captureHandler[T]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	c := h.c
	c.mu.Lock()

	if duringActivation && !c.prefixDone {
		if v, ok := r.Value(); ok {
			c.prefixValues = append(c.prefixValues, v)
			c.mu.Unlock()
			return
		}
		c.prefixErr = r.Err()
		c.prefixDone = true
		c.mu.Unlock()
		return
	}
	c.prefixDone = true

	// Once Join has reattached a live downstream, further deliveries
	// forward straight through to it instead of piling up in
	// postValues: that buffer only exists to bridge the gap between
	// Capture and Join, not to replace the live channel going forward.
	if c.joined {
		out := c.out
		c.mu.Unlock()
		d.add(func() {
			_ = out.sendFromPredecessor(c.in.id(), r, !duringActivation)
		})
		return
	}

	if v, ok := r.Value(); ok {
		c.postValues = append(c.postValues, v)
		c.mu.Unlock()
		return
	}
	c.postErr = r.Err()
	c.mu.Unlock()
}

// NewCapture attaches a Capture to sig, taking over its channel as the
// capture's upstream. The returned Capture immediately starts buffering;
// call Activation to read what was captured synchronously during
// activation, and Join to reattach a live downstream.
func NewCapture[T any](sig Signal[T]) *Capture[T] {
	c := &Capture[T]{in: sig.ch}
	sig.ch.setHandler(captureHandler[T]{c: c})
	ac := sig.ch.currentActivationCount()
	c.ac = ac
	sig.ch.activate()
	sig.ch.block(sig.ch.currentActivationCount())
	c.held = true
	return c
}

// Activation returns the values observed during the upstream's
// activation prefix, and the terminal error if activation itself was
// terminated by one.
func (c *Capture[T]) Activation() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.prefixValues...), c.prefixErr
}

// Join reattaches out as the capture's live downstream: it first
// delivers the buffered post-capture values (and, with resend=true, the
// captured prefix too) before releasing the hold, so out sees a
// continuous, gap-free stream. onError, if non-nil, replaces a terminal
// failure with a Join to a fresh Input for the successor instead of
// propagating the failure, enabling retry/fallback without losing the
// upstream topology above the capture.
func (c *Capture[T]) Join(out Signal[T], resend bool, onError func(error) Input[T]) {
	c.mu.Lock()
	var replay []Result[T]
	if resend {
		for _, v := range c.prefixValues {
			replay = append(replay, Success(v))
		}
		if c.prefixErr != nil {
			replay = append(replay, Failure[T](c.prefixErr))
		}
	}
	for _, v := range c.postValues {
		replay = append(replay, Success(v))
	}
	postErr := c.postErr
	c.postValues = nil
	c.postErr = nil
	c.joined = true
	c.out = out.ch
	wasHeld := c.held
	c.held = false
	ac := c.ac
	c.mu.Unlock()

	_ = out.ch.addPredecessor(c.in, false)

	// Swap the dead upstream out for whatever fresh Input the caller
	// hands back, so out keeps flowing from that manual source instead
	// of seeing the failure.
	swap := func(err error) {
		if fresh := onError(err); fresh.ch != nil {
			out.ch.removePredecessor(c.in.id())
			_ = out.ch.addPredecessor(fresh.ch, false)
			// fresh.ch still carries its plain inputSourceHandler, whose
			// deliver is a no-op: install a forwarder so sends through
			// fresh actually reach out, the same way Junction.Join wires
			// a freshly joined upstream.
			fresh.ch.setHandler(junctionForwardHandler[T]{in: fresh.ch, out: out.ch})
		}
	}
	if onError != nil {
		// A failure still queued behind the hold, or arriving after
		// Join, goes to swap instead of being forwarded to out.
		c.in.setHandler(errorInterceptHandler[T]{inner: captureHandler[T]{c: c}, onError: swap})
	}

	for _, r := range replay {
		_ = out.ch.sendFromPredecessor(c.in.id(), r, true)
	}
	if postErr != nil && onError != nil {
		swap(postErr)
	} else if postErr != nil {
		_ = out.ch.sendFromPredecessor(c.in.id(), Failure[T](postErr), true)
	}

	if wasHeld {
		c.in.unblock(ac)
	}
}
