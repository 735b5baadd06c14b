package pevent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryPushBackOrdering(t *testing.T) {
	r := newRegistry()
	w0 := &waitRegistration{waitIndex: 0}
	w1 := &waitRegistration{waitIndex: 1}
	r.pushBack(w0)
	r.pushBack(w1)

	require.Equal(t, 2, r.len())
	require.Same(t, w0, r.l.Front().Value)
}

func TestRegistryRemoveExpired(t *testing.T) {
	r := newRegistry()

	live := newCoordinator(1, false)
	dead := newCoordinator(1, false)
	dead.stillWaiting.Store(false)

	r.pushBack(&waitRegistration{coordinator: live})
	r.pushBack(&waitRegistration{coordinator: dead})

	r.removeExpired()

	require.Equal(t, 1, r.len())
	require.Same(t, live, r.l.Front().Value.coordinator)
}

func TestRegistryWalkAndRemoveStopsEarly(t *testing.T) {
	r := newRegistry()
	for i := 0; i < 3; i++ {
		r.pushBack(&waitRegistration{waitIndex: i})
	}

	var visited []int
	r.walkAndRemove(func(w *waitRegistration) (remove, stop bool) {
		visited = append(visited, w.waitIndex)
		return true, w.waitIndex == 1
	})

	require.Equal(t, []int{0, 1}, visited)
	require.Equal(t, 1, r.len())
	require.Equal(t, 2, r.l.Front().Value.waitIndex)
}
