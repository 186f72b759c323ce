package signalgraph

// Input is a manual source: the one handler in this package driven
// entirely from outside the graph rather than by an upstream channel or
// a user callback. Send pushes one Result to its channel's successors.
//
// Input holds an ordinary pointer to its channel, which keeps the channel
// reachable while the Input is held, and a snapshot of the activation
// counter taken at construction (or at re-issue, for the fresh input
// Junction.Disconnect hands back or a Generator receives on activation;
// a Join rejected with ErrLoop hands back no Input). Once the channel
// has moved on — rewired, torn down, or superseded by a fresh Input —
// Send returns Cancelled rather than silently discarding the value.
type Input[T any] struct {
	ch *Channel[T]
	ac uint64
}

// newInput wraps ch with an Input snapshot of its current activation
// counter. Junction.Disconnect and Generator activation call this again
// to mint the replacement handed to the caller.
func newInput[T any](ch *Channel[T]) Input[T] {
	return Input[T]{ch: ch, ac: ch.currentActivationCount()}
}

// Send delivers r to the input's channel as if from the manual source.
// Returns Inactive if the channel has no active sink downstream,
// Cancelled if this Input has been superseded (the channel rewired or
// torn down since construction).
func (in Input[T]) Send(r Result[T]) error {
	if in.ch == nil {
		return Cancelled
	}
	// activatedFlag true: a manual Send is always a real-time, external
	// call arriving from outside any onActivated replay, so per §4.2's
	// insertion discipline it belongs at the tail, never spliced into
	// the activation prefix.
	return in.ch.Send(r, 0, in.ac, true)
}

// Close sends Failure(Closed), the conventional clean end-of-stream.
func (in Input[T]) Close() error {
	return in.Send(Failure[T](Closed))
}

// inputSourceHandler is the channelHandler installed on a freshly
// constructed Input's channel. It never forwards anything on its own;
// Send always targets the channel directly with predecessorID 0.
type inputSourceHandler[T any] struct {
	noopLifecycle[T]
}

func (inputSourceHandler[T]) deliver(*deferredWork, Result[T], bool) {}

// NewInput constructs a fresh manual source channel and returns both the
// Input handle used to push values and the Signal wrapping its output.
func NewInput[T any](opts ...Option) (Input[T], Signal[T]) {
	cfg := resolveOptions(opts)
	ch := newChannel[T](cfg.ctx, cfg.logger)
	ch.setHandler(inputSourceHandler[T]{})
	return newInput(ch), Signal[T]{ch: ch}
}
