package signalgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorReceivesFreshInputPerActivationCycle(t *testing.T) {
	var mintedCount int
	var current Input[int]
	sig := NewGenerator(func(in Input[int]) {
		if in.ch == nil {
			current = Input[int]{}
			return
		}
		mintedCount++
		current = in
	})

	j, jsig := NewJunction[int]()
	require.NoError(t, j.Join(sig, nil))
	jsig.Subscribe(func(Result[int]) {}, true)

	require.NoError(t, current.Send(Success(1)))
	assert.Equal(t, 1, mintedCount)

	minted := current
	j.Disconnect()

	// The generator's own source channel deactivated along with the
	// junction detaching it, so the Input minted for the prior
	// activation cycle is now stale.
	assert.ErrorIs(t, minted.Send(Success(2)), Cancelled)
}

func TestGeneratorDeactivationHandsBackZeroInput(t *testing.T) {
	var sawNilOnDeactivate bool
	var activations int
	sig := NewGenerator(func(in Input[int]) {
		if in.ch == nil {
			sawNilOnDeactivate = true
			return
		}
		activations++
	})

	j, jsig := NewJunction[int]()
	require.NoError(t, j.Join(sig, nil))
	jsig.Subscribe(func(Result[int]) {}, true)

	assert.Equal(t, 1, activations)

	j.Disconnect()
	assert.True(t, sawNilOnDeactivate)
}
