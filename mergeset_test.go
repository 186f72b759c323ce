package signalgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSetFansInMultipleSources(t *testing.T) {
	m, out := NewMergeSet[int]()

	inA, sigA := NewInput[int]()
	inB, sigB := NewInput[int]()

	var got []int
	done := make(chan struct{})
	out.Subscribe(func(r Result[int]) {
		if v, ok := r.Value(); ok {
			got = append(got, v)
			if len(got) == 3 {
				close(done)
			}
			return
		}
	}, true)

	m.Add(sigA, false, true)
	m.Add(sigB, false, true)

	require.NoError(t, inA.Send(Success(1)))
	require.NoError(t, inB.Send(Success(2)))
	require.NoError(t, inA.Send(Success(3)))
	<-done

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestMergeSetClosesOutputOnFlaggedSourceFailure(t *testing.T) {
	m, out := NewMergeSet[int]()

	inA, sigA := NewInput[int]()
	inB, sigB := NewInput[int]()

	var endErr error
	done := make(chan struct{})
	out.Subscribe(func(r Result[int]) {
		if err := r.Err(); err != nil {
			endErr = err
			close(done)
		}
	}, true)

	m.Add(sigA, true, true)
	m.Add(sigB, false, true)

	require.NoError(t, inA.Close())
	<-done

	assert.ErrorIs(t, endErr, Closed)

	// The output deactivated, so B's further sends are rejected too.
	assert.ErrorIs(t, inB.Send(Success(1)), Cancelled)
}

func TestMergeSetNonClosingSourceFailureOnlyDetachesThatSource(t *testing.T) {
	m, out := NewMergeSet[int]()

	inA, sigA := NewInput[int]()
	inB, sigB := NewInput[int]()

	var got []int
	done := make(chan struct{})
	out.Subscribe(func(r Result[int]) {
		if v, ok := r.Value(); ok {
			got = append(got, v)
			return
		}
		close(done)
	}, true)

	m.Add(sigA, false, true)
	m.Add(sigB, false, true)

	require.NoError(t, inA.Close())
	require.NoError(t, inB.Send(Success(7)))
	m.Drop()
	<-done

	assert.Equal(t, []int{7}, got)
}

func TestMergeSetRemoveOnDeactivateDropsOnlyFlaggedSourceOnReattach(t *testing.T) {
	m, msig := NewMergeSet[int]()

	inA, sigA := NewInput[int]()
	inB, sigB := NewInput[int]()
	m.Add(sigA, false, false)
	m.Add(sigB, false, true)

	j, jsig := NewJunction[int]()
	require.NoError(t, j.Join(msig, nil))

	var got []int
	jsig.Subscribe(func(r Result[int]) {
		if v, ok := r.Value(); ok {
			got = append(got, v)
		}
	}, true)

	require.NoError(t, inA.Send(Success(1)))
	require.NoError(t, inB.Send(Success(2)))

	require.NoError(t, j.Rejoin(nil))

	// The deactivation advanced A's activation counter, so the Input
	// from before it is stale; mint one for the new activation.
	inA = newInput(sigA.ch)
	require.NoError(t, inA.Send(Success(3)))
	assert.ErrorIs(t, inB.Send(Success(99)), Cancelled)

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestMergeSetRemoveDetachesSourceWithoutClosing(t *testing.T) {
	m, out := NewMergeSet[int]()

	inA, sigA := NewInput[int]()
	_, sigB := NewInput[int]()

	var got []int
	out.Subscribe(func(r Result[int]) {
		if v, ok := r.Value(); ok {
			got = append(got, v)
		}
	}, true)

	m.Add(sigA, false, true)
	m.Add(sigB, false, true)

	m.Remove(sigB.ch)
	require.NoError(t, inA.Send(Success(5)))

	assert.Equal(t, []int{5}, got)
}
