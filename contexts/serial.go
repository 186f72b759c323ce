package contexts

import (
	"sync"

	"github.com/joeycumines/go-signalgraph"
)

// SerialAsync is a single-worker asynchronous context: InvokeAsync
// appends fn to an internal FIFO queue and returns immediately; one
// background goroutine drains the queue, so deliveries handed to the
// same SerialAsync value are serialized but always run off the calling
// goroutine. Invoke panics: the dispatch loop never calls Invoke on an
// asynchronous-kind context, so a direct caller doing so is a bug.
type SerialAsync struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	started bool
}

// NewSerialAsync constructs a ready-to-use SerialAsync.
func NewSerialAsync() *SerialAsync {
	s := &SerialAsync{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (*SerialAsync) Kind() signalgraph.ContextKind { return signalgraph.SerialAsync }

func (s *SerialAsync) Invoke(fn func()) {
	panic("signalgraph/contexts: Invoke called on asynchronous context")
}

func (s *SerialAsync) InvokeAsync(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	if !s.started {
		s.started = true
		go s.run()
	}
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *SerialAsync) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			s.cond.Wait()
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		fn()
	}
}

// ConcurrentAsync is a fire-and-forget asynchronous context: every
// InvokeAsync call spawns its own goroutine, so deliveries handed to the
// same ConcurrentAsync value may run concurrently with one another and
// in any relative order. The dispatch loop relies on this only where the
// graph itself is already single-delivery-at-a-time per channel; using
// ConcurrentAsync on a handler that is not itself safe for concurrent
// invocation is a caller error.
type ConcurrentAsync struct{}

func (ConcurrentAsync) Kind() signalgraph.ContextKind { return signalgraph.ConcurrentAsync }

func (ConcurrentAsync) Invoke(fn func()) {
	panic("signalgraph/contexts: Invoke called on asynchronous context")
}

func (ConcurrentAsync) InvokeAsync(fn func()) {
	if fn != nil {
		go fn()
	}
}
