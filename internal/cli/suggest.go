package cli

import (
	"sort"

	"github.com/hypergen/hypergen/internal/discover"
)

// suggestFor returns the nearest discovered names to the segment that
// failed to resolve, ranked by edit distance. The resolver itself never
// fabricates suggestions; its NotFoundError carries the deepest matched
// prefix precisely so this CLI-side "did you mean" can pick the right
// level (kit, cookbook, or recipe) to suggest from.
func suggestFor(nf *discover.NotFoundError, kits []discover.Kit) []string {
	depth := len(nf.DeepestMatch)
	if depth >= len(nf.Segments) {
		return nil
	}
	miss := nf.Segments[depth]

	var candidates []string
	switch depth {
	case 0:
		for _, k := range kits {
			candidates = append(candidates, k.Name)
		}
	case 1:
		for _, k := range kits {
			if k.Name != nf.DeepestMatch[0] {
				continue
			}
			for _, c := range k.Cookbooks {
				candidates = append(candidates, c.Name)
			}
		}
	default:
		for _, k := range kits {
			if k.Name != nf.DeepestMatch[0] {
				continue
			}
			for _, c := range k.Cookbooks {
				if c.Name == nf.DeepestMatch[1] {
					candidates = append(candidates, c.Recipes...)
				}
			}
		}
	}

	type scored struct {
		name string
		dist int
	}
	var ranked []scored
	for _, c := range candidates {
		if d := levenshtein(miss, c); d <= 3 {
			ranked = append(ranked, scored{c, d})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].dist < ranked[j].dist })
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.name
	}
	return out
}

// levenshtein is the classic two-row edit distance.
func levenshtein(a, b string) int {
	if a == b {
		return 0
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
			curr[j] = minOf(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minOf(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
