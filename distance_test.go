package marginalia

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// levenshtein is the unbounded textbook algorithm.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr := make([]int, len(b)+1)
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j-1]+cost, prev[j]+1, curr[j-1]+1)
		}
		prev = curr
	}
	return prev[len(b)]
}

func TestBoundedLevenshteinMatchesFullDistance(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"", "abc"},
		{"abc", ""},
		{"kitten", "sitting"},
		{"jumps over", "jumps-over"},
		{"jumps over", "umps overj"},
		{"flaw", "lawn"},
		{"abcdef", "fedcba"},
		{"héllo", "hello"},
		{"brown fox", "brown fox"},
		{"aaaa", "aaaaaaaa"},
		{"intention", "execution"},
	}

	for _, p := range pairs {
		a, b := []rune(p[0]), []rune(p[1])
		full := levenshtein(a, b)
		for bound := 0; bound <= 8; bound++ {
			want := min(full, bound+1)
			assert.Equal(t, want, boundedLevenshtein(a, b, bound), "%q vs %q with bound %d", p[0], p[1], bound)
		}
	}
}

func TestBoundedLevenshteinLengthGapShortCircuits(t *testing.T) {
	assert.Equal(t, 3, boundedLevenshtein([]rune("a"), []rune("abcdef"), 2))
}
