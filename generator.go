package signalgraph

import "sync"

// Generator is a source driven by a user callback rather than external
// Send calls. On first activation the callback receives a fresh Input;
// on deactivation it receives the zero Input (Input.ch == nil) so it can
// release resources; on re-activation it receives a new Input. The
// callback runs directly on the goroutine that activates or deactivates
// the generator, not through the configured ExecutionContext; a
// per-generator mutex keeps exactly one invocation in flight.
//
// The callback's Input targets an internal source channel kept as the
// sole predecessor of the Signal this constructor returns, mirroring
// Transform's in/out split: whatever composition call comes next
// (Subscribe, Transform, Join, ...) installs its own handler on the
// returned channel without disturbing the generator's own activation
// hooks.
type Generator[T any] struct {
	mu       sync.Mutex
	callback func(Input[T])
	ch       *Channel[T]
	out      *Channel[T]
}

type generatorHandler[T any] struct {
	g *Generator[T]
}

func (h generatorHandler[T]) onActivated(ch *Channel[T], d *deferredWork) {
	g := h.g
	in := newInput(ch)
	d.add(func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.callback(in)
	})
}

func (h generatorHandler[T]) onDeactivated(d *deferredWork) {
	g := h.g
	d.add(func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.callback(Input[T]{})
	})
}

// deliver forwards whatever the generator's own callback pushed through
// its minted Input on to the returned Signal's channel.
func (h generatorHandler[T]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	g := h.g
	d.add(func() {
		_ = g.out.sendFromPredecessor(g.ch.id(), r, !duringActivation)
	})
}

// NewGenerator constructs a Generator-backed Signal. callback must not
// block on anything downstream of the returned Signal; doing so under a
// synchronous ExecutionContext would deadlock the activation that
// invoked it.
func NewGenerator[T any](callback func(Input[T]), opts ...Option) Signal[T] {
	cfg := resolveOptions(opts)
	ch := newChannel[T](cfg.ctx, cfg.logger)
	out := newChannel[T](cfg.ctx, cfg.logger)
	g := &Generator[T]{callback: callback, ch: ch, out: out}
	ch.setHandler(generatorHandler[T]{g: g})
	_ = out.addPredecessor(ch, false)
	return Signal[T]{ch: out}
}
