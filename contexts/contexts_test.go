package contexts

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joeycumines/go-signalgraph"
)

func TestImmediateRunsInline(t *testing.T) {
	var ctx Immediate
	assert.Equal(t, signalgraph.Immediate, ctx.Kind())

	ran := false
	ctx.Invoke(func() { ran = true })
	assert.True(t, ran)
}

func TestImmediateReentrantInvokeDoesNotDeadlock(t *testing.T) {
	var ctx Immediate
	inner := false
	ctx.Invoke(func() {
		ctx.Invoke(func() { inner = true })
	})
	assert.True(t, inner)
}

func TestSerialSerializesAndMatchesMutexKind(t *testing.T) {
	s := &Serial{}
	assert.Equal(t, signalgraph.Mutex, s.Kind())

	var mu sync.Mutex
	concurrent := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Invoke(func() {
				mu.Lock()
				concurrent++
				n := concurrent
				mu.Unlock()
				assert.LessOrEqual(t, n, 1)
				mu.Lock()
				concurrent--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
}

func TestRecursiveSerialAllowsReentrantInvoke(t *testing.T) {
	s := &RecursiveSerial{}
	assert.Equal(t, signalgraph.RecursiveMutex, s.Kind())

	depth := 0
	s.Invoke(func() {
		depth++
		s.Invoke(func() {
			depth++
		})
	})
	assert.Equal(t, 2, depth)
}

func TestRecursiveSerialSerializesAcrossGoroutines(t *testing.T) {
	s := &RecursiveSerial{}

	var mu sync.Mutex
	concurrent := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Invoke(func() {
				mu.Lock()
				concurrent++
				n := concurrent
				mu.Unlock()
				assert.LessOrEqual(t, n, 1)
				mu.Lock()
				concurrent--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
}

func TestSerialAsyncRunsOffCallerGoroutineInOrder(t *testing.T) {
	s := NewSerialAsync()
	assert.Equal(t, signalgraph.SerialAsync, s.Kind())

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		s.InvokeAsync(func() {
			mu.Lock()
			order = append(order, i)
			n := len(order)
			mu.Unlock()
			if n == 5 {
				close(done)
			}
		})
	}
	<-done
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestSerialAsyncInvokePanics(t *testing.T) {
	s := NewSerialAsync()
	assert.Panics(t, func() { s.Invoke(func() {}) })
}

func TestConcurrentAsyncRunsEachOnItsOwnGoroutine(t *testing.T) {
	var ctx ConcurrentAsync
	assert.Equal(t, signalgraph.ConcurrentAsync, ctx.Kind())
	assert.Panics(t, func() { ctx.Invoke(func() {}) })

	var wg sync.WaitGroup
	var count sync.WaitGroup
	count.Add(3)
	wg.Add(3)
	for i := 0; i < 3; i++ {
		ctx.InvokeAsync(func() {
			defer wg.Done()
			count.Done()
		})
	}
	wg.Wait()
}

func TestThreadAffineRunsInlineWhenAlreadyOnBoundThread(t *testing.T) {
	ta := NewThreadAffine()
	assert.Equal(t, signalgraph.ThreadAffine, ta.Kind())

	var outerTid, innerTid int64
	ta.Invoke(func() {
		outerTid = goroutineID()
		ta.Invoke(func() {
			innerTid = goroutineID()
		})
	})
	assert.Equal(t, outerTid, innerTid)
}

func TestThreadAffineAsyncInvokePanics(t *testing.T) {
	ta := NewThreadAffineAsync()
	assert.Equal(t, signalgraph.ThreadAffineAsync, ta.Kind())
	assert.Panics(t, func() { ta.Invoke(func() {}) })

	done := make(chan struct{})
	ta.InvokeAsync(func() { close(done) })
	<-done
}
