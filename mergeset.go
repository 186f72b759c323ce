package signalgraph

import "sync"

// MergeSet is a dynamic many-to-one fan-in: sources can be added and
// removed at any time. Add's flags control, per source, whether a
// failure on that source closes the whole aggregate output (closesOutput)
// or just detaches that source, and whether the output's own
// deactivation detaches the source (removeOnDeactivate: true drops it
// permanently, false leaves it wired for the next reactivation).
// Dropping the merge set itself sends Cancelled to the output, per
// spec §4.9.
type MergeSet[T any] struct {
	mu       sync.Mutex
	internal *Channel[T]
	external *Channel[T]

	sources map[uint64]*mergeSource[T]
}

type mergeSource[T any] struct {
	ch                 *Channel[T]
	closesOutput       bool
	removeOnDeactivate bool
}

// NewMergeSet creates an empty merge set feeding a fresh output Signal.
//
// The returned Signal's channel is never the one Add/Remove wire
// sources against directly: an internal channel carries the set's own
// onDeactivated hook (the removeOnDeactivate logic below), with the
// external channel as its sole successor. Whatever composition call
// the caller makes next on the Signal installs its own handler on the
// external channel without disturbing the merge set's bookkeeping,
// the same in/out split Generator and Transform use.
func NewMergeSet[T any](opts ...Option) (*MergeSet[T], Signal[T]) {
	cfg := resolveOptions(opts)
	internal := newChannel[T](cfg.ctx, cfg.logger)
	external := newChannel[T](cfg.ctx, cfg.logger)
	m := &MergeSet[T]{internal: internal, external: external, sources: make(map[uint64]*mergeSource[T])}
	internal.setHandler(mergeOutputHandler[T]{m: m})
	_ = external.addPredecessor(internal, false)
	return m, Signal[T]{ch: external}
}

type mergeOutputHandler[T any] struct {
	noopLifecycle[T]
	m *MergeSet[T]
}

// onDeactivated runs once external's last successor detaches, after
// deactivation has already propagated to every source (internal's own
// predecessors). Sources added with removeOnDeactivate=true are
// forgotten here, so a later reactivation of external doesn't reach
// them; sources added with removeOnDeactivate=false stay registered
// and come back with the next activation.
func (h mergeOutputHandler[T]) onDeactivated(d *deferredWork) {
	m := h.m
	m.mu.Lock()
	var drop []uint64
	for id, src := range m.sources {
		if src.removeOnDeactivate {
			drop = append(drop, id)
			delete(m.sources, id)
		}
	}
	m.mu.Unlock()
	for _, id := range drop {
		id := id
		d.add(func() { m.internal.removePredecessor(id) })
	}
}

func (h mergeOutputHandler[T]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	m := h.m
	d.add(func() {
		_ = m.external.sendFromPredecessor(m.internal.id(), r, !duringActivation)
	})
}

type mergeSourceHandler[T any] struct {
	noopLifecycle[T]
	m  *MergeSet[T]
	in *Channel[T]
}

func (h mergeSourceHandler[T]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	m := h.m
	if err := r.Err(); err != nil {
		m.mu.Lock()
		src, ok := m.sources[h.in.id()]
		m.mu.Unlock()
		if ok && src.closesOutput {
			d.add(func() {
				_ = m.internal.sendFromPredecessor(h.in.id(), r, !duringActivation)
				m.internal.deactivate()
			})
		} else {
			d.add(func() { m.Remove(h.in) })
		}
		return
	}
	d.add(func() {
		_ = m.internal.sendFromPredecessor(h.in.id(), r, !duringActivation)
	})
}

// Add wires source into the merge set. closesOutput controls whether a
// failure on this particular source terminates the aggregate output;
// removeOnDeactivate controls whether the output's own deactivation
// detaches this source (false keeps it merged for a future
// reactivation).
func (m *MergeSet[T]) Add(source Signal[T], closesOutput, removeOnDeactivate bool) {
	m.mu.Lock()
	m.sources[source.ch.id()] = &mergeSource[T]{ch: source.ch, closesOutput: closesOutput, removeOnDeactivate: removeOnDeactivate}
	m.mu.Unlock()

	source.ch.setHandler(mergeSourceHandler[T]{m: m, in: source.ch})
	_ = m.internal.addPredecessor(source.ch, false)
}

// Remove detaches source without closing the aggregate output.
func (m *MergeSet[T]) Remove(source *Channel[T]) {
	m.mu.Lock()
	_, ok := m.sources[source.id()]
	delete(m.sources, source.id())
	m.mu.Unlock()
	if ok {
		m.internal.removePredecessor(source.id())
	}
}

// Drop tears down the merge set, sending Cancelled to the output.
func (m *MergeSet[T]) Drop() {
	m.mu.Lock()
	srcs := m.sources
	m.sources = nil
	m.mu.Unlock()
	for id := range srcs {
		m.internal.removePredecessor(id)
	}
	_ = m.internal.sendFromPredecessor(0, Failure[T](Cancelled), true)
}
