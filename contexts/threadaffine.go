package contexts

import (
	"runtime"
	"sync"

	"github.com/joeycumines/go-signalgraph"
)

// ThreadAffine binds its handler invocations to one OS thread, locked via
// runtime.LockOSThread for the lifetime of the context. Invoke runs fn
// inline when the caller is already on the bound thread; otherwise it
// hands fn to the bound thread's queue and blocks until that thread has
// run it, matching the "suspend only if not on target" semantics of
// signalgraph.ThreadAffine.
//
// Use this to drive handlers that must call a thread-affine API (a GUI
// toolkit, a graphics context, a non-thread-safe C library binding).
type ThreadAffine struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	started bool
	tid     int64 // goroutine id of the bound worker, once started
}

// NewThreadAffine constructs a ThreadAffine context. The bound worker
// goroutine is started lazily on first use.
func NewThreadAffine() *ThreadAffine {
	t := &ThreadAffine{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (*ThreadAffine) Kind() signalgraph.ContextKind { return signalgraph.ThreadAffine }

func (t *ThreadAffine) ensureStarted() {
	t.mu.Lock()
	if !t.started {
		t.started = true
		ready := make(chan struct{})
		go t.run(ready)
		t.mu.Unlock()
		<-ready
		return
	}
	t.mu.Unlock()
}

func (t *ThreadAffine) run(ready chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	t.mu.Lock()
	t.tid = goroutineID()
	t.mu.Unlock()
	close(ready)

	for {
		t.mu.Lock()
		for len(t.queue) == 0 {
			t.cond.Wait()
		}
		fn := t.queue[0]
		t.queue = t.queue[1:]
		t.mu.Unlock()
		fn()
	}
}

func (t *ThreadAffine) Invoke(fn func()) {
	if fn == nil {
		return
	}
	t.ensureStarted()

	t.mu.Lock()
	onThread := goroutineID() == t.tid
	t.mu.Unlock()
	if onThread {
		fn()
		return
	}

	done := make(chan struct{})
	t.mu.Lock()
	t.queue = append(t.queue, func() {
		defer close(done)
		fn()
	})
	t.cond.Signal()
	t.mu.Unlock()
	<-done
}

func (t *ThreadAffine) InvokeAsync(fn func()) {
	if fn == nil {
		return
	}
	t.ensureStarted()
	t.mu.Lock()
	t.queue = append(t.queue, fn)
	t.cond.Signal()
	t.mu.Unlock()
}

// ThreadAffineAsync is ThreadAffine's always-asynchronous counterpart:
// Invoke panics, every delivery goes through the bound thread's queue.
type ThreadAffineAsync struct {
	*ThreadAffine
}

// NewThreadAffineAsync constructs a ThreadAffineAsync context.
func NewThreadAffineAsync() *ThreadAffineAsync {
	return &ThreadAffineAsync{ThreadAffine: NewThreadAffine()}
}

func (*ThreadAffineAsync) Kind() signalgraph.ContextKind { return signalgraph.ThreadAffineAsync }

func (t *ThreadAffineAsync) Invoke(fn func()) {
	panic("signalgraph/contexts: Invoke called on asynchronous context")
}
