package marginalia

// boundedLevenshtein returns the Levenshtein distance between a and b when it is at
// most bound, and bound+1 otherwise.
// Only the diagonal band of width 2*bound+1 is computed, and the scan stops as soon as
// a whole row exceeds the bound, so the accept/reject decision matches the full
// dynamic program.
func boundedLevenshtein(a, b []rune, bound int) int {
	if bound < 0 {
		return 0
	}
	over := bound + 1

	n, m := len(a), len(b)
	if abs(n-m) > bound {
		return over
	}
	if n == 0 {
		return min(m, over)
	}
	if m == 0 {
		return min(n, over)
	}

	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := 0; j <= m; j++ {
		if j <= bound {
			prev[j] = j
		} else {
			prev[j] = over
		}
	}

	for i := 1; i <= n; i++ {
		lo := max(1, i-bound)
		hi := min(m, i+bound)

		if i <= bound {
			curr[0] = i
		} else {
			curr[0] = over
		}
		if lo > 1 {
			curr[lo-1] = over
		}

		rowMin := curr[0]
		for j := lo; j <= hi; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			v := prev[j-1] + cost
			if d := prev[j] + 1; d < v {
				v = d
			}
			if d := curr[j-1] + 1; d < v {
				v = d
			}
			if v > over {
				v = over
			}
			curr[j] = v
			if v < rowMin {
				rowMin = v
			}
		}
		if hi < m {
			curr[hi+1] = over
		}

		if rowMin > bound {
			return over
		}
		prev, curr = curr, prev
	}

	return min(prev[m], over)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
