package normalize

// Similarity returns the normalized Levenshtein similarity of two strings
// in [0,1]: (maxLen - editDistance) / maxLen. Two empty strings are defined
// as identical (1.0).
//
// The metric is intentionally the classic cost-1 edit distance rather than
// anything embedding-based, so every match decision stays explainable to a
// reviewer looking at the two names.
func Similarity(a, b string) float64 {
	// Rune counts, not byte counts: the edit distance operates on runes,
	// and normalized names are not the only callers.
	maxLen := len([]rune(a))
	if n := len([]rune(b)); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	return float64(maxLen-levenshtein(a, b)) / float64(maxLen)
}

// levenshtein computes the single-character insert/delete/substitute
// edit distance with the standard two-row dynamic program.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j-1]+cost, // substitution
				curr[j-1]+1,    // insertion
				prev[j]+1,      // deletion
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
