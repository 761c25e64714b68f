package index

import (
	"sort"
	"strings"
)

// DefaultGramLength is the fixed substring length used for approximate name
// matching unless configuration overrides it.
const DefaultGramLength = 3

// Grams returns the set of overlapping length-k substrings of value,
// lowercased, sorted and de-duplicated. Values shorter than k produce no
// grams, which makes them unreachable by approximate search but never an
// error.
func Grams(value string, k int) []string {
	value = strings.ToLower(value)
	if k < 1 || len(value) < k {
		return nil
	}
	seen := make(map[string]bool)
	var grams []string
	for i := 0; i+k <= len(value); i++ {
		gram := value[i : i+k]
		if seen[gram] {
			continue
		}
		seen[gram] = true
		grams = append(grams, gram)
	}
	sort.Strings(grams)
	return grams
}
