package signalgraph

import "sync"

// multiVariant selects one of the fan-out replay policies of spec §4.6.
type multiVariant int

const (
	variantMulticast multiVariant = iota
	variantContinuous
	variantContinuousInitial
	variantPlayback
	variantCacheUntilActive
)

// multiHandler is the channelHandler installed on a multi-output
// processor's input channel. It fans every delivered Result out to all
// live successor channels, applying the variant's cache/replay policy on
// new attachment.
type multiHandler[T any] struct {
	mu      sync.Mutex
	variant multiVariant
	in      *Channel[T]

	// cache holds accumulated state per variant:
	//   continuous / continuous(initial): cache[0] is the last value (if hasCache)
	//   playback / cacheUntilActive (pre-attach): the full ordered history
	cache      []Result[T]
	hasCache   bool
	terminated bool
	attached   bool // cacheUntilActive: true once any successor has attached

	successors []*Channel[T]
	predSeq    uint64
}

func newMultiHandler[T any](variant multiVariant, in *Channel[T], initial func() (T, bool)) *multiHandler[T] {
	h := &multiHandler[T]{variant: variant, in: in}
	if variant == variantContinuousInitial {
		if v, ok := initial(); ok {
			h.cache = []Result[T]{Success(v)}
			h.hasCache = true
		}
	}
	return h
}

func (h *multiHandler[T]) onActivated(*Channel[T], *deferredWork) {}

func (h *multiHandler[T]) onDeactivated(*deferredWork) {}

// attach adds out as a new successor of the multi-output handler,
// replaying whatever the variant owes a fresh subscriber before any live
// forwarded value. Must be called before out is wired as a predecessor
// of anything downstream of it so the replay lands first.
func (h *multiHandler[T]) attach(out *Channel[T]) {
	h.mu.Lock()
	h.attached = true

	var replay []Result[T]
	switch h.variant {
	case variantContinuous, variantContinuousInitial:
		if h.hasCache {
			replay = append(replay, h.cache[0])
		}
	case variantPlayback, variantCacheUntilActive:
		replay = append(replay, h.cache...)
	}
	terminated := h.terminated
	if !terminated {
		h.successors = append(h.successors, out)
	}
	h.mu.Unlock()

	for _, r := range replay {
		out.pushLocked(r) // seeded before activation flips the channel to Normal; see onActivated callers
	}
}

func (h *multiHandler[T]) detach(out *Channel[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.successors {
		if s == out {
			h.successors = append(h.successors[:i], h.successors[i+1:]...)
			return
		}
	}
}

func (h *multiHandler[T]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	h.mu.Lock()
	if r.IsSuccess() {
		switch h.variant {
		case variantContinuous:
			h.cache = []Result[T]{r}
			h.hasCache = true
		case variantContinuousInitial:
			h.cache = []Result[T]{r}
			h.hasCache = true
		case variantPlayback:
			h.cache = append(h.cache, r)
		case variantCacheUntilActive:
			if !h.attached {
				h.cache = append(h.cache, r)
			}
		}
	} else {
		switch h.variant {
		case variantContinuous:
			h.cache = []Result[T]{r}
			h.hasCache = true
		case variantContinuousInitial:
			// §4.6: error forwarded, cache cleared on the next value,
			// but the error itself is preserved for replay until then.
			h.cache = []Result[T]{r}
			h.hasCache = true
		case variantPlayback:
			h.cache = append(h.cache, r)
		case variantCacheUntilActive:
			if !h.attached {
				h.cache = append(h.cache, r)
			}
		}
		h.terminated = true
	}
	successors := append([]*Channel[T](nil), h.successors...)
	if h.terminated {
		h.successors = nil
	}
	h.mu.Unlock()

	for _, out := range successors {
		out := out
		d.add(func() {
			_ = out.sendFromPredecessor(h.in.id(), r, !duringActivation)
		})
	}
	if h.terminated {
		for _, out := range successors {
			out := out
			d.add(func() { out.deactivate() })
		}
	}
}

// multiOutputChannel is the shared out-channel-per-subscriber plumbing
// used by Signal's Multicast/Continuous/Playback/CacheUntilActive.
type multiOutputChannel[T any] struct {
	handler *multiHandler[T]
	ctx     ExecutionContext
	logger  Logger
	eager   bool // activates the upstream on construction rather than on first attach
	parent  *Channel[T]
}

func newMultiOutput[T any](parent *Channel[T], variant multiVariant, ctx ExecutionContext, logger Logger, initial func() (T, bool)) *multiOutputChannel[T] {
	h := newMultiHandler[T](variant, parent, initial)
	parent.setHandler(h)
	eager := variant != variantMulticast && variant != variantCacheUntilActive
	m := &multiOutputChannel[T]{handler: h, ctx: ctx, logger: logger, eager: eager, parent: parent}
	if eager {
		parent.activate()
	}
	return m
}

// subscribe creates a new output channel wired as a successor of the
// fan-out and registers it for cache replay. Ordinary fan-out attachment
// is not loop-checked; activation propagates subscriber->parent when the
// subscriber (or whatever consumes it next) activates. The returned
// Signal's channel has no handler yet — that is set by whichever Signal
// method is called on it next (Transform, Subscribe, Combine, ...).
func (m *multiOutputChannel[T]) subscribe() Signal[T] {
	out := newChannel[T](m.ctx, m.logger)
	_ = out.addPredecessor(m.parent, false)
	m.handler.attach(out)
	return Signal[T]{ch: out}
}

// preclosedHandler is the source handler backing NewPreclosed: on
// activation it seeds every value, then the terminal error if any, into
// its own internal channel's queue, and deliver forwards each one in
// order to the channel NewPreclosed returns. As with Generator, the
// returned channel is kept separate so that the composition call which
// consumes the signal installs its handler there, not over this one.
type preclosedHandler[T any] struct {
	noopLifecycle[T]
	values []T
	err    error
	in     *Channel[T]
	out    *Channel[T]
}

func (h preclosedHandler[T]) onActivated(ch *Channel[T], d *deferredWork) {
	for _, v := range h.values {
		ch.pushLocked(Success(v))
	}
	if h.err != nil {
		ch.pushLocked(Failure[T](h.err))
	}
}

func (h preclosedHandler[T]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	d.add(func() {
		_ = h.out.sendFromPredecessor(h.in.id(), r, !duringActivation)
	})
}

// NewPreclosed constructs a Signal that, once subscribed to, replays
// values in order followed by err (if non-nil). With err == nil the
// signal stays open and silent after its values. subscribeOrDuplicate
// uses it to hand a rejected second subscriber a Duplicate failure.
func NewPreclosed[T any](values []T, err error, opts ...Option) Signal[T] {
	cfg := resolveOptions(opts)
	ch := newChannel[T](cfg.ctx, cfg.logger)
	out := newChannel[T](cfg.ctx, cfg.logger)
	ch.setHandler(preclosedHandler[T]{values: values, err: err, in: ch, out: out})
	_ = out.addPredecessor(ch, false)
	return Signal[T]{ch: out}
}

// bufferHandler backs Signal.Buffer: it holds a live slice of cached
// Results (the "array") that updater is given direct mutable access to,
// outside the channel mutex, on every delivered value; the mutated slice
// becomes the replay an attaching subscriber receives.
type bufferHandler[T any] struct {
	mu      sync.Mutex
	in      *Channel[T]
	array   []Result[T]
	updater func(*[]Result[T], Result[T])

	successors []*Channel[T]
}

func (h *bufferHandler[T]) onActivated(*Channel[T], *deferredWork) {}

func (h *bufferHandler[T]) onDeactivated(*deferredWork) {}

func (h *bufferHandler[T]) attach(out *Channel[T]) {
	h.mu.Lock()
	replay := append([]Result[T](nil), h.array...)
	h.successors = append(h.successors, out)
	h.mu.Unlock()
	for _, r := range replay {
		out.pushLocked(r)
	}
}

func (h *bufferHandler[T]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	h.mu.Lock()
	h.updater(&h.array, r)
	successors := append([]*Channel[T](nil), h.successors...)
	h.mu.Unlock()

	for _, out := range successors {
		out := out
		d.add(func() {
			_ = out.sendFromPredecessor(h.in.id(), r, !duringActivation)
		})
	}
}

// subscribeOrDuplicate is attach's entry point for single-output
// channels (ordinary Transform/Combine/Endpoint outputs), which are not
// multi-output: a second subscriber is rejected with a synthetic
// pre-closed Duplicate signal rather than being wired in, per §4.6's
// closing rule.
func subscribeOrDuplicate[T any](ch *Channel[T]) Signal[T] {
	ch.mu.Lock()
	already := ch.subscribed
	ch.subscribed = true
	ch.mu.Unlock()
	if already {
		return NewPreclosed[T](nil, Duplicate)
	}
	return Signal[T]{ch: ch}
}
