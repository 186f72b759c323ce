package signalgraph

// deferredWork is a stack-allocated, append-only list of closures that
// must run outside any channel mutex. Every public entry point constructs
// one on its stack; every internal mutex-holding function takes it by
// pointer and appends to it; the entry point runs it on exit, after all
// locks it took have been released.
//
// This is the mechanism behind the engine's one inviolable rule: no
// user-supplied closure, and no destructor of a user-owned value, ever
// runs while a [Channel] mutex is held.
type deferredWork struct {
	work []func()
}

// add appends fn to the ledger. Safe to call only while the owning
// deferredWork is reachable solely from the current goroutine (i.e. while
// a channel mutex guarding its construction is held).
func (d *deferredWork) add(fn func()) {
	if fn != nil {
		d.work = append(d.work, fn)
	}
}

// run executes every queued closure in the order it was added, then
// clears the ledger. Must be called only after every mutex the ledger was
// threaded through has been released.
func (d *deferredWork) run() {
	work := d.work
	d.work = nil
	for _, fn := range work {
		fn()
	}
}
