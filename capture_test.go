package signalgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureBuffersUntilJoin(t *testing.T) {
	in, sig := NewInput[int]()
	captured := NewCapture(sig)

	require.NoError(t, in.Send(Success(10)))
	require.NoError(t, in.Send(Success(20)))

	prefix, err := captured.Activation()
	assert.Empty(t, prefix) // these arrived post-activation, not during it
	assert.NoError(t, err)

	_, out := NewJunction[int]()
	var got []int
	done := make(chan struct{})
	out.Subscribe(func(r Result[int]) {
		if v, ok := r.Value(); ok {
			got = append(got, v)
			return
		}
		close(done)
	}, true)

	captured.Join(out, true, nil)

	require.NoError(t, in.Send(Success(30)))
	require.NoError(t, in.Close())
	<-done

	assert.Equal(t, []int{10, 20, 30}, got)
}

func TestCaptureExactReplayScenario(t *testing.T) {
	var in Input[int]
	sig := NewGenerator(func(i Input[int]) {
		if i.ch == nil {
			return
		}
		in = i
		require.NoError(t, in.Send(Success(1)))
	})

	captured := NewCapture(sig)

	prefix, err := captured.Activation()
	assert.Equal(t, []int{1}, prefix)
	assert.NoError(t, err)

	require.NoError(t, in.Send(Success(5)))

	_, joinOut := NewJunction[int]()
	var got []int
	var endErr error
	done := make(chan struct{})
	joinOut.Subscribe(func(r Result[int]) {
		if v, ok := r.Value(); ok {
			got = append(got, v)
			return
		}
		endErr = r.Err()
		close(done)
	}, true)

	captured.Join(joinOut, false, nil)

	require.NoError(t, in.Send(Success(3)))
	require.NoError(t, in.Close())
	<-done

	assert.Equal(t, []int{5, 3}, got)
	assert.ErrorIs(t, endErr, Closed)
}

func TestCaptureJoinOnErrorSwapsInFreshUpstream(t *testing.T) {
	in, sig := NewInput[int]()
	captured := NewCapture(sig)

	require.NoError(t, in.Close()) // terminal failure captured as the post-activation error

	fallback, _ := NewInput[int]()

	_, out := NewJunction[int]()
	var got []int
	var endErr error
	done := make(chan struct{})
	out.Subscribe(func(r Result[int]) {
		if v, ok := r.Value(); ok {
			got = append(got, v)
			return
		}
		endErr = r.Err()
		close(done)
	}, true)

	captured.Join(out, true, func(error) Input[int] { return fallback })

	// The original upstream's failure never reached out: instead, out is
	// now fed by fallback, the Input onError handed back.
	require.NoError(t, fallback.Send(Success(99)))
	require.NoError(t, fallback.Close())
	<-done

	assert.Equal(t, []int{99}, got)
	assert.ErrorIs(t, endErr, Closed)
}
