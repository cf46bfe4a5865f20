package multimutex

import (
	"fmt"
	"sync"
)

// cntMutex is a mutex together with the number of goroutines holding or
// waiting for it, which lets the owner map drop entries nobody contends for.
type cntMutex struct {
	cnt int
	sync.Mutex
}

// Mutex tracks a set of mutexes keyed by ID, so callers can serialize work
// per ID without paying for one long lived mutex per possible key. A mutex
// only exists in the map while at least one goroutine holds or waits for it.
type Mutex[T comparable] struct {
	// mutexes maps each currently contended ID to its mutex and waiter
	// count.
	mutexes map[T]*cntMutex

	// mapMtx synchronizes access to the mutexes map itself.
	mapMtx sync.Mutex
}

// NewMutex creates a new per-ID mutex set.
func NewMutex[T comparable]() *Mutex[T] {
	return &Mutex[T]{
		mutexes: make(map[T]*cntMutex),
	}
}

// Lock locks the mutex for the given ID, blocking until it is available if
// another goroutine holds it.
func (m *Mutex[T]) Lock(id T) {
	m.mapMtx.Lock()
	mtx, ok := m.mutexes[id]
	if ok {
		// Another goroutine holds or waits for this ID, record that
		// one more is now waiting.
		mtx.cnt++
	} else {
		mtx = &cntMutex{
			cnt: 1,
		}
		m.mutexes[id] = mtx
	}
	m.mapMtx.Unlock()

	mtx.Lock()
}

// Unlock unlocks the mutex for the given ID. It is a run-time error if the
// mutex is not locked for the ID on entry to Unlock.
func (m *Mutex[T]) Unlock(id T) {
	m.mapMtx.Lock()

	mtx, ok := m.mutexes[id]
	if !ok {
		panic(fmt.Sprintf("double unlock for id %v", id))
	}

	// Drop the entry once the last holder or waiter lets go. Goroutines
	// that come in later will create a fresh entry under mapMtx.
	mtx.cnt--
	if mtx.cnt == 0 {
		delete(m.mutexes, id)
	}
	m.mapMtx.Unlock()

	mtx.Unlock()
}
