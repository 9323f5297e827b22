package compose

import (
	"sync"
	"sync/atomic"
)

// leaf marks where a value sits in a trie node, so that a path and its
// prefixes can all hold values.
type leaf struct{}

// shapeMemo is a bounded memo table keyed by a path of names.
//
// Values live in two trie generations. Stores go to the head generation; once
// it holds maxSize values the older generation is emptied and becomes the new
// head. A value found only in the older generation is copied forward, so
// shapes in use survive rotation. A maxSize of zero never rotates.
type shapeMemo[O any] struct {
	generations [2]atomic.Pointer[sync.Map]
	head        atomic.Uint32
	size        uint32
	maxSize     uint32
	mu          sync.Mutex
}

func newShapeMemo[O any](maxSize uint32) *shapeMemo[O] {
	m := &shapeMemo[O]{maxSize: maxSize}
	m.generations[0].Store(&sync.Map{})
	m.generations[1].Store(&sync.Map{})
	return m
}

// loadOrStore returns the value for path, calling build at most once per
// stored path.
func (m *shapeMemo[O]) loadOrStore(path []string, build func() O) O {
	if v, ok := lookup[O](m.generations[m.head.Load()].Load(), path); ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	head := m.head.Load()
	if v, ok := lookup[O](m.generations[head].Load(), path); ok {
		return v
	}
	v, ok := lookup[O](m.generations[1-head].Load(), path)
	if !ok {
		v = build()
	}
	m.storeLocked(path, v)
	return v
}

func (m *shapeMemo[O]) storeLocked(path []string, value O) {
	if m.maxSize > 0 && m.size >= m.maxSize {
		older := 1 - m.head.Load()
		m.generations[older].Store(&sync.Map{})
		m.head.Store(older)
		m.size = 0
	}
	node := m.generations[m.head.Load()].Load()
	for _, name := range path {
		child, _ := node.LoadOrStore(name, &sync.Map{})
		node = child.(*sync.Map)
	}
	node.Store(leaf{}, value)
	m.size++
}

func lookup[O any](node *sync.Map, path []string) (O, bool) {
	var zero O
	for _, name := range path {
		child, ok := node.Load(name)
		if !ok {
			return zero, false
		}
		node = child.(*sync.Map)
	}
	v, ok := node.Load(leaf{})
	if !ok {
		return zero, false
	}
	return v.(O), true
}
