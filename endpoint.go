package signalgraph

// Endpoint is a terminal handler wrapping a user callback: it is invoked
// once per delivered Result until the first Failure, at which point the
// endpoint deactivates and releases its callback closure. Optional
// keep-alive stores a self-reference broken only on deactivation, so an
// Endpoint with no other owner stays alive purely because the graph is
// still delivering to it.
type Endpoint[T any] struct {
	ch       *Channel[T]
	keepSelf *Endpoint[T]
}

type endpointHandler[T any] struct {
	noopLifecycle[T]
	ep *Endpoint[T]
	fn func(Result[T])
}

func (h endpointHandler[T]) deliver(d *deferredWork, r Result[T], duringActivation bool) {
	h.fn(r)
	if r.Err() != nil {
		d.add(func() {
			h.ep.ch.deactivate()
			h.ep.ch.setHandler(nil)
			h.ep.keepSelf = nil
		})
	}
}

// Subscribe installs fn as sig's terminal consumer and activates the
// graph rooted at sig. keepAlive, if true, has the returned Endpoint
// hold a self-reference so the caller may discard it immediately and
// the subscription still runs to completion.
func (sig Signal[T]) Subscribe(fn func(Result[T]), keepAlive bool, opts ...Option) *Endpoint[T] {
	target := subscribeOrDuplicate(sig.ch)
	ep := &Endpoint[T]{ch: target.ch}
	target.ch.setHandler(endpointHandler[T]{ep: ep, fn: fn})
	if keepAlive {
		ep.keepSelf = ep
	}
	target.ch.activate()
	return ep
}

// Close deactivates the endpoint early, before any upstream failure.
func (ep *Endpoint[T]) Close() {
	ep.ch.deactivate()
	ep.keepSelf = nil
}
