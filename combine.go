package signalgraph

// Combined2 through Combined5 are the tagged-union values a Combine
// fan-in delivers: Index identifies which upstream branch produced this
// delivery (0-based), and only the correspondingly-named field is
// meaningful for that delivery. Ordering: results from the same branch
// arrive in source order; across branches, ordering is arrival order at
// the combined channel, per spec §4.5.
type Combined2[A, B any] struct {
	Index int
	A     Result[A]
	B     Result[B]
}

type Combined3[A, B, C any] struct {
	Index int
	A     Result[A]
	B     Result[B]
	C     Result[C]
}

type Combined4[A, B, C, D any] struct {
	Index int
	A     Result[A]
	B     Result[B]
	C     Result[C]
	D     Result[D]
}

type Combined5[A, B, C, D, E any] struct {
	Index int
	A     Result[A]
	B     Result[B]
	C     Result[C]
	D     Result[D]
	E     Result[E]
}

// combineBranchHandler is the channelHandler installed on one combined
// upstream channel. It tags every delivered Result with its branch index
// via wrap and forwards it to the shared combine output. Each branch has
// its own handler instance operating on its own upstream channel's
// mutex — combiners never share mutexes across branches, per §4.5.
type combineBranchHandler[T, Tagged any] struct {
	noopLifecycle[T]
	in   *Channel[T]
	out  *Channel[Tagged]
	wrap func(Result[T]) Tagged
}

func (h combineBranchHandler[T, Tagged]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	tagged := h.wrap(r)
	d.add(func() {
		_ = h.out.sendFromPredecessor(h.in.id(), Success(tagged), !duringActivation)
	})
}

// wireCombineBranch installs a combineBranchHandler on in and registers
// in as a predecessor of out, completing one branch's wiring.
func wireCombineBranch[T, Tagged any](in *Channel[T], out *Channel[Tagged], wrap func(Result[T]) Tagged) {
	in.setHandler(combineBranchHandler[T, Tagged]{in: in, out: out, wrap: wrap})
	_ = out.addPredecessor(in, false)
}

// Combine2 fans two Signals into one stream of Combined2, tagging each
// delivery with which branch produced it.
func Combine2[A, B any](a Signal[A], b Signal[B], opts ...Option) Signal[Combined2[A, B]] {
	cfg := resolveOptions(opts)
	out := newChannel[Combined2[A, B]](cfg.ctx, cfg.logger)
	wireCombineBranch(a.ch, out, func(r Result[A]) Combined2[A, B] { return Combined2[A, B]{Index: 0, A: r} })
	wireCombineBranch(b.ch, out, func(r Result[B]) Combined2[A, B] { return Combined2[A, B]{Index: 1, B: r} })
	return Signal[Combined2[A, B]]{ch: out}
}

// Combine3 fans three Signals into one stream of Combined3.
func Combine3[A, B, C any](a Signal[A], b Signal[B], c Signal[C], opts ...Option) Signal[Combined3[A, B, C]] {
	cfg := resolveOptions(opts)
	out := newChannel[Combined3[A, B, C]](cfg.ctx, cfg.logger)
	wireCombineBranch(a.ch, out, func(r Result[A]) Combined3[A, B, C] { return Combined3[A, B, C]{Index: 0, A: r} })
	wireCombineBranch(b.ch, out, func(r Result[B]) Combined3[A, B, C] { return Combined3[A, B, C]{Index: 1, B: r} })
	wireCombineBranch(c.ch, out, func(r Result[C]) Combined3[A, B, C] { return Combined3[A, B, C]{Index: 2, C: r} })
	return Signal[Combined3[A, B, C]]{ch: out}
}

// Combine4 fans four Signals into one stream of Combined4.
func Combine4[A, B, C, D any](a Signal[A], b Signal[B], c Signal[C], d Signal[D], opts ...Option) Signal[Combined4[A, B, C, D]] {
	cfg := resolveOptions(opts)
	out := newChannel[Combined4[A, B, C, D]](cfg.ctx, cfg.logger)
	wireCombineBranch(a.ch, out, func(r Result[A]) Combined4[A, B, C, D] { return Combined4[A, B, C, D]{Index: 0, A: r} })
	wireCombineBranch(b.ch, out, func(r Result[B]) Combined4[A, B, C, D] { return Combined4[A, B, C, D]{Index: 1, B: r} })
	wireCombineBranch(c.ch, out, func(r Result[C]) Combined4[A, B, C, D] { return Combined4[A, B, C, D]{Index: 2, C: r} })
	wireCombineBranch(d.ch, out, func(r Result[D]) Combined4[A, B, C, D] { return Combined4[A, B, C, D]{Index: 3, D: r} })
	return Signal[Combined4[A, B, C, D]]{ch: out}
}

// Combine5 fans five Signals into one stream of Combined5.
func Combine5[A, B, C, D, E any](a Signal[A], b Signal[B], c Signal[C], d Signal[D], e Signal[E], opts ...Option) Signal[Combined5[A, B, C, D, E]] {
	cfg := resolveOptions(opts)
	out := newChannel[Combined5[A, B, C, D, E]](cfg.ctx, cfg.logger)
	wireCombineBranch(a.ch, out, func(r Result[A]) Combined5[A, B, C, D, E] { return Combined5[A, B, C, D, E]{Index: 0, A: r} })
	wireCombineBranch(b.ch, out, func(r Result[B]) Combined5[A, B, C, D, E] { return Combined5[A, B, C, D, E]{Index: 1, B: r} })
	wireCombineBranch(c.ch, out, func(r Result[C]) Combined5[A, B, C, D, E] { return Combined5[A, B, C, D, E]{Index: 2, C: r} })
	wireCombineBranch(d.ch, out, func(r Result[D]) Combined5[A, B, C, D, E] { return Combined5[A, B, C, D, E]{Index: 3, D: r} })
	wireCombineBranch(e.ch, out, func(r Result[E]) Combined5[A, B, C, D, E] { return Combined5[A, B, C, D, E]{Index: 4, E: r} })
	return Signal[Combined5[A, B, C, D, E]]{ch: out}
}
