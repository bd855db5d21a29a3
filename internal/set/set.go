package set

type Set[T comparable] map[T]struct{}

func New[T comparable](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s.Add(v)
	}

	return s
}

func (s Set[T]) Add(val T) {
	s[val] = struct{}{}
}

func (s Set[T]) Has(val T) bool {
	_, ok := s[val]
	return ok
}

// Difference returns the values of s that are not in other.
func (s Set[T]) Difference(other Set[T]) Set[T] {
	diff := make(Set[T])

	for v := range s {
		if !other.Has(v) {
			diff.Add(v)
		}
	}

	return diff
}

// Values returns the values in no particular order.
func (s Set[T]) Values() []T {
	values := make([]T, 0, len(s))
	for v := range s {
		values = append(values, v)
	}

	return values
}
