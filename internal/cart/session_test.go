package cart

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ConcurrentAddsSerialise(t *testing.T) {
	s := NewSession()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Apply(AddProduct{Product: p1})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Snapshot().Quantity("P1"))
}

func TestSession_UpdateErrorLeavesState(t *testing.T) {
	s := NewSession()
	s.Apply(AddProduct{Product: p1})

	boom := errors.New("boom")
	state, err := s.Update(func(State) (Action, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, state.ItemCount())
	assert.Equal(t, 1, s.Snapshot().ItemCount())
}

func TestSessions_GetIsStablePerUser(t *testing.T) {
	r := NewSessions()

	a := r.Get("u1")
	a.Apply(AddProduct{Product: p1})

	assert.Same(t, a, r.Get("u1"))
	assert.NotSame(t, a, r.Get("u2"))
	assert.True(t, r.Get("u2").Snapshot().IsEmpty())
	assert.Equal(t, 2, r.Len())
}

func TestSessions_LookupAndPeekDoNotCreate(t *testing.T) {
	r := NewSessions()

	_, ok := r.Lookup("u1")
	assert.False(t, ok)
	assert.True(t, r.Peek("u1").IsEmpty())
	assert.Equal(t, 0, r.Len())

	r.Get("u1").Apply(AddProduct{Product: p1})
	s, ok := r.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, r.Get("u1"), s)
	assert.Equal(t, 1, r.Peek("u1").ItemCount())
}
