package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxDistance bounds the edit distance of a "did you mean" hint.
const maxDistance = 4

// Closest returns the candidate most similar to unknown, or "" when nothing
// is close enough. Subsequence matches (e.g. "allw" for "allow") win over
// plain edit distance.
func Closest(unknown string, candidates []string) string {
	if unknown == "" || len(candidates) == 0 {
		return ""
	}

	if ranks := fuzzy.RankFindFold(unknown, candidates); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", maxDistance+1
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(strings.ToLower(unknown), strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Suggest formats a hint for an unknown name. When no candidate is close it
// lists up to five valid names.
func Suggest(unknown string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	if best := Closest(unknown, candidates); best != "" {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}
	if len(candidates) > 5 {
		return fmt.Sprintf("Valid names include: %s, ...", strings.Join(candidates[:5], ", "))
	}
	return fmt.Sprintf("Valid names: %s", strings.Join(candidates, ", "))
}
