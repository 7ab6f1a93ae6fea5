// Package search filters the converted-file listing by name.
package search

import (
	"sort"
	"strings"

	rankfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
)

// Match is one filtered listing entry.
type Match struct {
	Index          int   // index into the source names
	MatchedIndexes []int // character positions that matched (for highlighting)
}

// nameSource implements fuzzy.Source over the listing names.
type nameSource []string

func (n nameSource) String(i int) string { return strings.ToLower(n[i]) }
func (n nameSource) Len() int            { return len(n) }

// Filter returns the entries of names matching query, best match first. An
// empty query matches everything in source order. Subsequence matching is
// tried first; when it finds nothing, a ranked near-miss pass tolerates
// small typos.
func Filter(query string, names []string) []Match {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		out := make([]Match, len(names))
		for i := range names {
			out[i] = Match{Index: i}
		}
		return out
	}

	matches := fuzzy.FindFrom(query, nameSource(names))
	if len(matches) > 0 {
		out := make([]Match, len(matches))
		for i, m := range matches {
			out[i] = Match{Index: m.Index, MatchedIndexes: m.MatchedIndexes}
		}
		return out
	}

	return nearMiss(query, names)
}

// nearMiss ranks entries by match quality: exact, then prefix, then
// substring, then bounded Levenshtein distance.
func nearMiss(query string, names []string) []Match {
	type ranked struct {
		index int
		score int
	}

	var result []ranked
	for i, name := range names {
		lower := strings.ToLower(name)
		switch {
		case lower == query:
			result = append(result, ranked{i, 0})
		case strings.HasPrefix(lower, query):
			result = append(result, ranked{i, 10})
		case strings.Contains(lower, query):
			result = append(result, ranked{i, 50})
		default:
			distance := rankfuzzy.LevenshteinDistance(query, lower)
			// A third of the query length is as much typo as a filter
			// should forgive.
			if distance <= len(query)/3 {
				result = append(result, ranked{i, 100 + distance})
			}
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].score < result[j].score })

	out := make([]Match, len(result))
	for i, r := range result {
		out[i] = Match{Index: r.index}
	}
	return out
}
