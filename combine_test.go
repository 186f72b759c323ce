package signalgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombine2TagsEachBranch(t *testing.T) {
	inA, sigA := NewInput[string]()
	inB, sigB := NewInput[int]()

	combined := Combine2(sigA, sigB)

	var got []Combined2[string, int]
	done := make(chan struct{})
	count := 0
	combined.Subscribe(func(r Result[Combined2[string, int]]) {
		if v, ok := r.Value(); ok {
			got = append(got, v)
			count++
			if count == 3 {
				close(done)
			}
		}
	}, true)

	require.NoError(t, inA.Send(Success("x")))
	require.NoError(t, inB.Send(Success(1)))
	require.NoError(t, inA.Send(Success("y")))
	<-done

	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Index)
	v0, _ := got[0].A.Value()
	assert.Equal(t, "x", v0)

	assert.Equal(t, 1, got[1].Index)
	v1, _ := got[1].B.Value()
	assert.Equal(t, 1, v1)

	assert.Equal(t, 0, got[2].Index)
	v2, _ := got[2].A.Value()
	assert.Equal(t, "y", v2)
}

func TestCombine3BranchesIndependentMutexes(t *testing.T) {
	inA, sigA := NewInput[int]()
	inB, sigB := NewInput[int]()
	inC, sigC := NewInput[int]()

	combined := Combine3(sigA, sigB, sigC)

	var indices []int
	done := make(chan struct{})
	n := 0
	combined.Subscribe(func(r Result[Combined3[int, int, int]]) {
		if v, ok := r.Value(); ok {
			indices = append(indices, v.Index)
			n++
			if n == 3 {
				close(done)
			}
		}
	}, true)

	require.NoError(t, inC.Send(Success(3)))
	require.NoError(t, inA.Send(Success(1)))
	require.NoError(t, inB.Send(Success(2)))
	<-done

	assert.Equal(t, []int{2, 0, 1}, indices)
}
