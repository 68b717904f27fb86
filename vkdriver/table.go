package vkdriver

//table maps the opaque uint64 handles given to the renderer onto Vulkan objects.
//Handles start at 1 and are never reused.
type table[T any] struct {
	next  uint64
	items map[uint64]T
}

func newTable[T any]() *table[T] {
	return &table[T]{items: make(map[uint64]T)}
}

func (t *table[T]) put(v T) uint64 {
	t.next++
	t.items[t.next] = v
	return t.next
}

func (t *table[T]) get(h uint64) (T, bool) {
	v, ok := t.items[h]
	return v, ok
}

//take removes the handle and returns the object it named
func (t *table[T]) take(h uint64) (T, bool) {
	v, ok := t.items[h]
	if ok {
		delete(t.items, h)
	}
	return v, ok
}

func (t *table[T]) len() int {
	return len(t.items)
}

//drain removes every entry, calling fn for each
func (t *table[T]) drain(fn func(T)) {
	for h, v := range t.items {
		fn(v)
		delete(t.items, h)
	}
}
