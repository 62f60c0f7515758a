// Package search ranks inlays against a fuzzy query.
package search

import (
	"fmt"
	"log/slog"
	"sort"
	"unicode"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
)

// Match is an inlay that matched a query.
type Match struct {
	Inlay inlays.Inlay
	// MatchedIndexes are the byte offsets in [Match.Target] that matched.
	MatchedIndexes []int
	// Target is the normalized text that was searched.
	Target string
	Score  int
}

type source []string

func (s source) String(i int) string { return s[i] }
func (s source) Len() int            { return len(s) }

// Inlays returns the inlays whose name or URL fuzzily matches query, best
// match first. An empty query matches everything in the original order.
func Inlays(query string, in []inlays.Inlay) []Match {
	targets := make(source, 0, len(in))
	for _, inlay := range in {
		targets = append(targets, filterValue(inlay))
	}

	if query == "" {
		out := make([]Match, 0, len(in))
		for i, inlay := range in {
			out = append(out, Match{Inlay: inlay, Target: targets[i]})
		}

		return out
	}

	q, err := Normalize(query)
	if err != nil {
		q = query
	}

	ranks := fuzzy.FindFrom(q, targets)
	sort.Stable(ranks)

	out := make([]Match, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, Match{
			Inlay:          in[r.Index],
			Target:         r.Str,
			MatchedIndexes: r.MatchedIndexes,
			Score:          r.Score,
		})
	}

	return out
}

// Generate the value we filter against.
func filterValue(inlay inlays.Inlay) string {
	v := inlay.Name + " " + inlay.URL

	out, err := Normalize(v)
	if err != nil {
		slog.Error("error normalizing", slog.String("value", v), slog.Any("error", err))

		return v
	}

	return out
}

// Normalize text to aid in the filtering process. In particular, we remove
// diacritics, "ö" becomes "o". Note that Mn is the unicode key for nonspacing
// marks.
func Normalize(in string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, in)
	if err != nil {
		return "", fmt.Errorf("error normalizing: %w", err)
	}

	return out, nil
}
