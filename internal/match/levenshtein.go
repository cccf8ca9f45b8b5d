package match

// levenshtein returns the edit distance between a and b, counting
// substitutions, insertions and deletions at unit cost.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)

	for j := 0; j <= len(ra); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(rb); i++ {
		curr[0] = i
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				curr[j] = prev[j-1]
			} else {
				sub := prev[j-1] + 1
				ins := curr[j-1] + 1
				del := prev[j] + 1
				curr[j] = sub
				if ins < curr[j] {
					curr[j] = ins
				}
				if del < curr[j] {
					curr[j] = del
				}
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(ra)]
}
