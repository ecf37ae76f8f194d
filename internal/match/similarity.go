package match

// similarity scores how close two normalized strings are: 1.0 for equal
// strings, decreasing by one edit's worth per insertion, deletion, or
// substitution, floored at 0. Both inputs are comparison keys, so case
// and whitespace differences have already been erased.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1.0
	}
	d := levenshtein(ra, rb)
	return 1.0 - float64(d)/float64(longest)
}

// levenshtein computes the edit distance between two rune slices using
// the two-row dynamic-programming form, O(len(a)*len(b)) time and
// O(len(b)) space.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
