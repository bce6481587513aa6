package random

// Shuffle permutes n elements with Fisher-Yates: i runs from n-1 down to 1 and
// is swapped with a uniform j in [0, i]. Exactly n-1 draws are consumed (none
// for n < 2).
func Shuffle(src *Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.IntRange(0, i)
		swap(i, j)
	}
}

// Perm returns a shuffled permutation of [0, n).
func Perm(src *Source, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	Shuffle(src, n, func(i, j int) {
		idx[i], idx[j] = idx[j], idx[i]
	})
	return idx
}
