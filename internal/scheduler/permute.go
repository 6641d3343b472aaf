package scheduler

import "github.com/cryptoagg/orderbookd/internal/domain"

// refreshTask is one (interval, pair) pairing the scheduler runs a
// dedicated refresh loop for.
type refreshTask struct {
	interval float64 // seconds
	pair     domain.Pair
}

// permutationZip reproduces the reference system's startup wiring
// (app.py's start_up): it takes every length-len(pairs) permutation of
// intervals and zips each permutation against the pair list, yielding one
// refreshTask per (permutation-position, pair) combination. The result is
// intentionally redundant — the same pair is refreshed by several
// overlapping loops at different cadences, preserved as observed rather
// than fixed; see DESIGN.md.
func permutationZip(intervals []float64, pairs []domain.Pair) []refreshTask {
	var tasks []refreshTask
	permutations(intervals, len(pairs), func(perm []float64) {
		n := len(perm)
		if len(pairs) < n {
			n = len(pairs)
		}
		for i := 0; i < n; i++ {
			tasks = append(tasks, refreshTask{interval: perm[i], pair: pairs[i]})
		}
	})
	return tasks
}

// permutations calls emit once for every k-permutation of items, in the
// same relative order Python's itertools.permutations(items, k) produces:
// lexicographic by index, not by value.
func permutations(items []float64, k int, emit func([]float64)) {
	n := len(items)
	if k > n {
		return
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	cycles := make([]int, k)
	for i := range cycles {
		cycles[i] = n - i
	}

	out := make([]float64, k)
	for i := 0; i < k; i++ {
		out[i] = items[indices[i]]
	}
	emit(append([]float64(nil), out...))

	for {
		i := k - 1
		for ; i >= 0; i-- {
			cycles[i]--
			if cycles[i] == 0 {
				// rotate indices[i:] left by one
				first := indices[i]
				copy(indices[i:], indices[i+1:])
				indices[n-1] = first
				cycles[i] = n - i
			} else {
				j := n - cycles[i]
				indices[i], indices[j] = indices[j], indices[i]
				for m := 0; m < k; m++ {
					out[m] = items[indices[m]]
				}
				emit(append([]float64(nil), out...))
				break
			}
		}
		if i < 0 {
			return
		}
	}
}
