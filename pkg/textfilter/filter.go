// Package textfilter holds the pure text helpers the session needs: keyword
// matching for heuristics and NPC name annotation for renderers.
package textfilter

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

var folder = cases.Fold()

// Normalize folds full-width forms to their narrow equivalents and case-folds
// the result, so "ＲＥＳＴ" and "rest" match the same keyword.
func Normalize(text string) string {
	return folder.String(width.Fold.String(strings.TrimSpace(text)))
}

// KeywordSet matches any of a fixed list of keywords against normalized text.
type KeywordSet struct {
	keywords []string
}

// NewKeywordSet normalizes keywords once up front.
func NewKeywordSet(keywords ...string) *KeywordSet {
	ks := &KeywordSet{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		if n := Normalize(k); n != "" {
			ks.keywords = append(ks.keywords, n)
		}
	}
	return ks
}

// Match returns the first keyword, in declaration order, found in text.
func (ks *KeywordSet) Match(text string) (string, bool) {
	normalized := Normalize(text)
	for _, k := range ks.keywords {
		if strings.Contains(normalized, k) {
			return k, true
		}
	}
	return "", false
}

// Contains reports whether any keyword occurs in text.
func (ks *KeywordSet) Contains(text string) bool {
	_, ok := ks.Match(text)
	return ok
}

// Truncate shortens text to at most n runes, marking the cut with "…".
func Truncate(text string, n int) string {
	runes := []rune(strings.TrimSpace(text))
	if n <= 0 || len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "…"
}

// Segment is a run of text; NPC is set when the run is an NPC's name.
type Segment struct {
	Text string `json:"text"`
	NPC  string `json:"npc,omitempty"`
}

// Annotate splits text into plain runs and NPC-name runs. Longer names win
// over names they contain, and matching is exact.
func Annotate(text string, names []string) []Segment {
	if text == "" {
		return nil
	}
	sorted := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" && !slices.Contains(sorted, n) {
			sorted = append(sorted, n)
		}
	}
	if len(sorted) == 0 {
		return []Segment{{Text: text}}
	}
	slices.SortStableFunc(sorted, func(a, b string) int {
		return len(b) - len(a)
	})

	quoted := make([]string, len(sorted))
	for i, n := range sorted {
		quoted[i] = regexp.QuoteMeta(n)
	}
	re := regexp.MustCompile(strings.Join(quoted, "|"))

	var segments []Segment
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segments = append(segments, Segment{Text: text[last:loc[0]]})
		}
		name := text[loc[0]:loc[1]]
		segments = append(segments, Segment{Text: name, NPC: name})
		last = loc[1]
	}
	if last < len(text) {
		segments = append(segments, Segment{Text: text[last:]})
	}
	return segments
}
