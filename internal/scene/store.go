package scene

import "sort"

// store is a slot map keyed by monotonically assigned ids. Lookup, insert
// and delete are O(1); ids are never reused.
type store[T any] struct {
	next  int
	index map[int]int // id → position in items
	ids   []int
	items []*T
}

func newStore[T any]() store[T] {
	return store[T]{index: make(map[int]int)}
}

// reserve returns the next id without inserting.
func (s *store[T]) reserve() int {
	s.next++
	return s.next
}

func (s *store[T]) put(id int, v *T) {
	if pos, ok := s.index[id]; ok {
		s.items[pos] = v
		return
	}
	s.index[id] = len(s.items)
	s.ids = append(s.ids, id)
	s.items = append(s.items, v)
}

func (s *store[T]) get(id int) (*T, bool) {
	pos, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.items[pos], true
}

// remove swaps the last element into the freed position.
func (s *store[T]) remove(id int) bool {
	pos, ok := s.index[id]
	if !ok {
		return false
	}
	last := len(s.items) - 1
	if pos != last {
		s.items[pos] = s.items[last]
		s.ids[pos] = s.ids[last]
		s.index[s.ids[pos]] = pos
	}
	s.items[last] = nil
	s.items = s.items[:last]
	s.ids = s.ids[:last]
	delete(s.index, id)
	return true
}

func (s *store[T]) len() int { return len(s.items) }

// sorted returns the live items in ascending id order.
func (s *store[T]) sorted() []*T {
	order := make([]int, s.len())
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return s.ids[order[a]] < s.ids[order[b]] })
	out := make([]*T, len(order))
	for i, pos := range order {
		out[i] = s.items[pos]
	}
	return out
}
