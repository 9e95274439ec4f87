package clustering

// set is a minimal set over comparable keys.
type set[T comparable] map[T]struct{}

// add inserts v and reports whether it was newly added.
func (s set[T]) add(v T) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

func (s set[T]) has(v T) bool {
	_, ok := s[v]
	return ok
}
