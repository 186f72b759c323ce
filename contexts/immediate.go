// Package contexts supplies small reference implementations of
// signalgraph.ExecutionContext. It is not a scheduler; production users
// are expected to adapt their own event loop, actor mailbox, or worker
// pool by implementing the three-method interface directly. These exist so
// the basic examples and tests have something concrete to run against.
package contexts

import (
	"sync"

	"github.com/joeycumines/go-signalgraph"
)

// Immediate is the trivial ExecutionContext: Invoke runs fn on the
// calling goroutine before returning, and is safe to call reentrantly —
// a handler invoked under Invoke may itself trigger another Invoke on
// the same or a different Immediate value without deadlocking, since no
// lock is held across the call. InvokeAsync spawns fn on its own
// goroutine, since Immediate has no queue of its own to serialize onto.
type Immediate struct{}

func (Immediate) Kind() signalgraph.ContextKind { return signalgraph.Immediate }

func (Immediate) Invoke(fn func()) {
	if fn != nil {
		fn()
	}
}

func (Immediate) InvokeAsync(fn func()) {
	if fn != nil {
		go fn()
	}
}

// Serial is a strictly-ordered, non-reentrant synchronous context: every
// Invoke takes a mutex, so a handler that (directly or transitively)
// triggers another Invoke on the same Serial value deadlocks. This
// models signalgraph.Mutex: synchronous, non-reentrant, serial.
type Serial struct {
	mu sync.Mutex
}

func (*Serial) Kind() signalgraph.ContextKind { return signalgraph.Mutex }

func (s *Serial) Invoke(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Serial) InvokeAsync(fn func()) {
	go s.Invoke(fn)
}

// RecursiveSerial models signalgraph.RecursiveMutex: synchronous,
// reentrant, serial. A goroutine already holding the lock may call
// Invoke again without deadlocking; other goroutines still serialize.
type RecursiveSerial struct {
	mu     sync.Mutex
	holder struct {
		sync.Mutex
		id int64
		n  int
	}
}

func (*RecursiveSerial) Kind() signalgraph.ContextKind { return signalgraph.RecursiveMutex }

func (s *RecursiveSerial) Invoke(fn func()) {
	gid := goroutineID()

	s.holder.Lock()
	if s.holder.id == gid && s.holder.n > 0 {
		s.holder.n++
		s.holder.Unlock()
		defer func() {
			s.holder.Lock()
			s.holder.n--
			s.holder.Unlock()
		}()
		if fn != nil {
			fn()
		}
		return
	}
	s.holder.Unlock()

	s.mu.Lock()
	s.holder.Lock()
	s.holder.id = gid
	s.holder.n = 1
	s.holder.Unlock()
	defer func() {
		s.holder.Lock()
		s.holder.n = 0
		s.holder.Unlock()
		s.mu.Unlock()
	}()
	if fn != nil {
		fn()
	}
}

func (s *RecursiveSerial) InvokeAsync(fn func()) {
	go s.Invoke(fn)
}
