package signalgraph

import "sync/atomic"

// Metrics tracks low-overhead, thread-safe counters for one process's
// worth of channels. It is entirely optional instrumentation: nothing in
// the dispatch path depends on a Metrics value existing, and reading one
// costs a handful of atomic loads.
type Metrics struct {
	activations    atomic.Uint64
	deactivations  atomic.Uint64
	dispatched     atomic.Uint64
	rejected       atomic.Uint64 // Cancelled/Inactive returned from Send
	loopRejections atomic.Uint64
}

// globalMetrics is the process-wide default, wired through by the
// channel/activation code paths below. User code reads it via
// DefaultMetrics; nothing requires using it, since a *Metrics zero value
// is also directly usable.
var globalMetrics Metrics

// DefaultMetrics returns the package-wide counters.
func DefaultMetrics() *Metrics { return &globalMetrics }

// Snapshot is a point-in-time copy of a Metrics' counters.
type Snapshot struct {
	Activations    uint64
	Deactivations  uint64
	Dispatched     uint64
	Rejected       uint64
	LoopRejections uint64
}

// Snapshot reads every counter into a plain struct, safe to log or
// compare without further synchronization.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Activations:    m.activations.Load(),
		Deactivations:  m.deactivations.Load(),
		Dispatched:     m.dispatched.Load(),
		Rejected:       m.rejected.Load(),
		LoopRejections: m.loopRejections.Load(),
	}
}

func (m *Metrics) recordActivation()    { m.activations.Add(1) }
func (m *Metrics) recordDeactivation()  { m.deactivations.Add(1) }
func (m *Metrics) recordDispatch()      { m.dispatched.Add(1) }
func (m *Metrics) recordRejected()      { m.rejected.Add(1) }
func (m *Metrics) recordLoopRejection() { m.loopRejections.Add(1) }
