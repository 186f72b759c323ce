package signalgraph

// Signal is the public handle to one node's output: a typed,
// composable description of values that will flow once something
// downstream activates it. A freshly returned Signal's channel carries
// whatever predecessor wiring produced it but has not yet been given a
// handler for its own output — that happens when the next composition
// method (Subscribe, Transform, Combine, Multicast, ...) is called on
// it, mirroring the "keep assembling until a sink demands delivery"
// shape of the engine's activation protocol (§4.2).
type Signal[T any] struct {
	ch *Channel[T]
}

// Transform creates a successor Signal of sig by calling fn once per
// delivered Result, with an escapable Continuation targeting the new
// output. If fn calls the Continuation's Retain method before
// returning, sig's dispatch queue is blocked until that Continuation's
// Release is called — letting fn finish composing its response
// asynchronously without a later item jumping ahead of it.
func Transform[T, U any](sig Signal[T], fn func(Result[T], *Continuation[U]), opts ...Option) Signal[U] {
	cfg := resolveOptions(opts)
	out := newTransformChannels[T, U](sig.ch, cfg.ctx, cfg.logger)
	sig.ch.setHandler(transformHandler[T, U]{in: sig.ch, out: out, fn: fn})
	_ = out.addPredecessor(sig.ch, false)
	return Signal[U]{ch: out}
}

// TransformWithState is Transform's stateful variant: state is produced
// fresh by initial on every activation (including reactivation after a
// deactivate/reactivate cycle) and threaded through every fn call until
// the next deactivation, per spec §4.4.
func TransformWithState[T, U, S any](sig Signal[T], initial func() S, fn func(*S, Result[T], *Continuation[U]), opts ...Option) Signal[U] {
	cfg := resolveOptions(opts)
	out := newTransformChannels[T, U](sig.ch, cfg.ctx, cfg.logger)
	h := &statefulTransformHandler[T, U, S]{in: sig.ch, out: out, fn: fn, initial: initial}
	sig.ch.setHandler(h)
	_ = out.addPredecessor(sig.ch, false)
	return Signal[U]{ch: out}
}

// Multicast fans sig out to any number of subscribers, none of which is
// pre-activated: a subscriber attaching after values have already been
// forwarded sees only what arrives after it attaches. The upstream is
// not eagerly activated; it activates only once a subscriber exists.
func (sig Signal[T]) Multicast(opts ...Option) MultiSignal[T] {
	cfg := resolveOptions(opts)
	m := newMultiOutput[T](sig.ch, variantMulticast, cfg.ctx, cfg.logger, nil)
	return MultiSignal[T]{m: m}
}

// Continuous fans sig out, caching the last delivered value (if any) so
// each new subscriber immediately observes it before any subsequently
// forwarded value. The upstream activates eagerly on construction.
func (sig Signal[T]) Continuous(opts ...Option) MultiSignal[T] {
	cfg := resolveOptions(opts)
	m := newMultiOutput[T](sig.ch, variantContinuous, cfg.ctx, cfg.logger, nil)
	return MultiSignal[T]{m: m}
}

// ContinuousInitial is Continuous seeded with an initial cached value
// before anything has been delivered.
func (sig Signal[T]) ContinuousInitial(initial T, opts ...Option) MultiSignal[T] {
	cfg := resolveOptions(opts)
	m := newMultiOutput[T](sig.ch, variantContinuousInitial, cfg.ctx, cfg.logger, func() (T, bool) { return initial, true })
	return MultiSignal[T]{m: m}
}

// Playback fans sig out, caching every value ever seen (and the
// terminal error, if any) so each new subscriber replays the full
// history before anything forwarded live. The upstream activates
// eagerly on construction.
func (sig Signal[T]) Playback(opts ...Option) MultiSignal[T] {
	cfg := resolveOptions(opts)
	m := newMultiOutput[T](sig.ch, variantPlayback, cfg.ctx, cfg.logger, nil)
	return MultiSignal[T]{m: m}
}

// CacheUntilActive stops caching once the first subscriber attaches and
// passes values straight through. The upstream is not eagerly activated:
// it stays inactive until that first subscriber activates it, and sends
// before then return Inactive, so nothing reaches the cache and nothing
// is replayed.
func (sig Signal[T]) CacheUntilActive(opts ...Option) MultiSignal[T] {
	cfg := resolveOptions(opts)
	m := newMultiOutput[T](sig.ch, variantCacheUntilActive, cfg.ctx, cfg.logger, nil)
	return MultiSignal[T]{m: m}
}

// Buffer fans sig out through a user-maintained cache array: updater is
// called outside any channel mutex with a pointer to the current array
// and each delivered Result, and whatever it leaves the array holding is
// what a newly attaching subscriber replays.
func (sig Signal[T]) Buffer(initial []Result[T], updater func(*[]Result[T], Result[T]), opts ...Option) MultiSignal[T] {
	cfg := resolveOptions(opts)
	h := &bufferHandler[T]{in: sig.ch, array: append([]Result[T](nil), initial...), updater: updater}
	sig.ch.setHandler(h)
	sig.ch.activate()
	return MultiSignal[T]{bufferHandler: h, ctx: cfg.ctx, logger: cfg.logger, parent: sig.ch}
}

// MultiSignal is a multi-output node's un-subscribed handle: each call
// to Subscribe mints an independent successor Signal with its own
// replay of whatever cache policy the originating method selected.
type MultiSignal[T any] struct {
	m             *multiOutputChannel[T]
	bufferHandler *bufferHandler[T]
	ctx           ExecutionContext
	logger        Logger
	parent        *Channel[T]
}

// Subscribe attaches a new output Signal to the multi-output node.
func (ms MultiSignal[T]) Subscribe() Signal[T] {
	if ms.bufferHandler != nil {
		out := newChannel[T](ms.ctx, ms.logger)
		_ = out.addPredecessor(ms.parent, false)
		ms.bufferHandler.attach(out)
		return Signal[T]{ch: out}
	}
	return ms.m.subscribe()
}

// Merge folds sources into a single Signal via a MergeSet where every
// source both closes the output on failure and is removed when the
// output deactivates — the common case. For finer per-source control,
// construct a MergeSet directly.
func Merge[T any](sources []Signal[T], opts ...Option) Signal[T] {
	m, out := NewMergeSet[T](opts...)
	for _, s := range sources {
		m.Add(s, true, true)
	}
	return out
}
