package generic

func Filter[T any](s []T, f func(T) bool) []T {
	var res []T
	for _, v := range s {
		if f(v) {
			res = append(res, v)
		}
	}
	return res
}

// CountBy groups the elements by key and returns the size of each group.
func CountBy[T any, K comparable](s []T, key func(T) K) map[K]int {
	counts := make(map[K]int)
	for _, v := range s {
		counts[key(v)]++
	}
	return counts
}
