package signalgraph

// noopLifecycle provides default no-op onActivated/onDeactivated hooks
// for handlers that only care about deliver, via embedding.
type noopLifecycle[T any] struct{}

func (noopLifecycle[T]) onActivated(*Channel[T], *deferredWork) {}

func (noopLifecycle[T]) onDeactivated(*deferredWork) {}
