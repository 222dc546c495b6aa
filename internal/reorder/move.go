// Package reorder applies drag-and-drop moves to the bubble list and the
// panel group order and commits the result to the store in a single write.
package reorder

// Move returns a copy of list with the element at from removed and
// reinserted at to. Out-of-range indices and from == to return list
// unchanged.
func Move[T any](list []T, from, to int) []T {
	n := len(list)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return list
	}

	out := make([]T, 0, n)
	item := list[from]
	for i, v := range list {
		if i == from {
			continue
		}
		if len(out) == to {
			out = append(out, item)
		}
		out = append(out, v)
	}
	if len(out) < n {
		out = append(out, item)
	}
	return out
}
