package signalgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscribeCollect(t *testing.T, sig Signal[int]) (*[]int, chan struct{}) {
	t.Helper()
	got := &[]int{}
	done := make(chan struct{})
	sig.Subscribe(func(r Result[int]) {
		if v, ok := r.Value(); ok {
			*got = append(*got, v)
			return
		}
		close(done)
	}, true)
	return got, done
}

func TestMulticastOnlyForwardsLiveValues(t *testing.T) {
	in, sig := NewInput[int]()
	m := sig.Multicast()

	// Multicast isn't eager: with no subscriber yet, the upstream has
	// never activated, so this send is rejected outright.
	assert.ErrorIs(t, in.Send(Success(1)), Inactive)

	got, done := subscribeCollect(t, m.Subscribe())
	require.NoError(t, in.Send(Success(2)))
	require.NoError(t, in.Close())
	<-done

	assert.Equal(t, []int{2}, *got)
}

func TestContinuousReplaysLastValueToLateSubscriber(t *testing.T) {
	in, sig := NewInput[int]()
	m := sig.Continuous()

	require.NoError(t, in.Send(Success(1)))
	require.NoError(t, in.Send(Success(2)))

	got, done := subscribeCollect(t, m.Subscribe())
	require.NoError(t, in.Close())
	<-done

	assert.Equal(t, []int{2}, *got)
}

func TestContinuousInitialSeedsBeforeAnyDelivery(t *testing.T) {
	_, sig := NewInput[int]()
	m := sig.ContinuousInitial(7)

	got, done := subscribeCollect(t, m.Subscribe())
	_ = done
	assert.Equal(t, []int{7}, *got)
}

func TestContinuousInitialBroadcastsSeedThenLiveValueToBothSubscribers(t *testing.T) {
	in, sig := NewInput[int]()
	m := sig.ContinuousInitial(5)

	gotA, _ := subscribeCollect(t, m.Subscribe())
	gotB, _ := subscribeCollect(t, m.Subscribe())

	assert.Equal(t, []int{5}, *gotA)
	assert.Equal(t, []int{5}, *gotB)

	require.NoError(t, in.Send(Success(123)))

	assert.Equal(t, []int{5, 123}, *gotA)
	assert.Equal(t, []int{5, 123}, *gotB)
}

func TestPlaybackOnClosedReplaysHistoryThenClosedToLateSubscriber(t *testing.T) {
	in, sig := NewInput[int]()
	m := sig.Playback()

	require.NoError(t, in.Send(Success(3)))
	require.NoError(t, in.Send(Success(4)))
	require.NoError(t, in.Send(Success(5)))
	require.NoError(t, in.Send(Success(6)))
	require.NoError(t, in.Close())

	var got []int
	var endErr error
	done := make(chan struct{})
	m.Subscribe().Subscribe(func(r Result[int]) {
		if v, ok := r.Value(); ok {
			got = append(got, v)
			return
		}
		endErr = r.Err()
		close(done)
	}, true)
	<-done

	assert.Equal(t, []int{3, 4, 5, 6}, got)
	assert.ErrorIs(t, endErr, Closed)
}

func TestPlaybackReplaysFullHistory(t *testing.T) {
	in, sig := NewInput[int]()
	m := sig.Playback()

	require.NoError(t, in.Send(Success(1)))
	require.NoError(t, in.Send(Success(2)))
	require.NoError(t, in.Send(Success(3)))

	got, done := subscribeCollect(t, m.Subscribe())
	_ = done
	assert.Equal(t, []int{1, 2, 3}, *got)
}

func TestCacheUntilActiveStopsCachingAfterFirstAttach(t *testing.T) {
	in, sig := NewInput[int]()
	m := sig.CacheUntilActive()

	// The first attach flips the handler's "attached" flag immediately,
	// before any value has flowed (CacheUntilActive is not eager, so
	// nothing was active to cache anything beforehand).
	gotA, doneA := subscribeCollect(t, m.Subscribe())

	require.NoError(t, in.Send(Success(1)))
	require.NoError(t, in.Send(Success(2)))

	// A second subscriber attaching after the first gets no retroactive
	// replay: caching stopped the moment the first subscriber attached.
	gotB, doneB := subscribeCollect(t, m.Subscribe())
	require.NoError(t, in.Send(Success(3)))
	require.NoError(t, in.Close())

	<-doneA
	<-doneB

	assert.Equal(t, []int{1, 2, 3}, *gotA)
	assert.Equal(t, []int{3}, *gotB)
}

func TestBufferReplaysUpdaterMaintainedWindow(t *testing.T) {
	in, sig := NewInput[int]()
	const window = 2
	m := sig.Buffer(nil, func(arr *[]Result[int], r Result[int]) {
		*arr = append(*arr, r)
		if len(*arr) > window {
			*arr = (*arr)[len(*arr)-window:]
		}
	})

	require.NoError(t, in.Send(Success(1)))
	require.NoError(t, in.Send(Success(2)))
	require.NoError(t, in.Send(Success(3)))

	got, done := subscribeCollect(t, m.Subscribe())
	_ = done
	assert.Equal(t, []int{2, 3}, *got)
}
