package oracle

import (
	"regexp"
	"strings"

	"centrifuge/internal/textutil"
)

var (
	featuringPattern = regexp.MustCompile(`(?i)\s+(?:feat\.?|ft\.?|featuring)\s+.*$`)
	bracketSuffix    = regexp.MustCompile(`\s*(?:\([^()]*\)|\[[^\[\]]*\]|\{[^{}]*\})\s*$`)
)

type query struct {
	artist string
	title  string
}

// Key returns the normalized cache key for a query.
func Key(artist, title string) string {
	return textutil.Fold(artist) + "\x1f" + textutil.Fold(title)
}

// StripFeaturing removes a trailing "feat. X" clause.
func StripFeaturing(value string) string {
	return strings.TrimSpace(featuringPattern.ReplaceAllString(value, ""))
}

// StripBracketSuffix removes trailing bracketed qualifiers such as
// "(Deluxe Edition)" or "[Remastered]".
func StripBracketSuffix(value string) string {
	for {
		next := strings.TrimSpace(bracketSuffix.ReplaceAllString(value, ""))
		if next == value || next == "" {
			return value
		}
		value = next
	}
}

// variants lists the queries to try, original first, without repeats.
func variants(artist, title string) []query {
	artists := []string{artist, StripFeaturing(artist)}
	titles := []string{title, StripBracketSuffix(StripFeaturing(title))}
	seen := map[string]struct{}{}
	var out []query
	for _, a := range artists {
		for _, t := range titles {
			key := Key(a, t)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, query{artist: a, title: t})
		}
	}
	return out
}

// choose picks the candidate best matching q. Full matches beat artist-only
// ones; within a kind an exact folded match wins, otherwise the highest token
// similarity. The boolean is false when there are no candidates.
func choose(q query, candidates []Candidate) (Candidate, bool) {
	var full, artistOnly []Candidate
	for _, c := range candidates {
		if strings.TrimSpace(c.Artist) == "" {
			continue
		}
		if strings.TrimSpace(c.Title) == "" {
			artistOnly = append(artistOnly, c)
		} else {
			full = append(full, c)
		}
	}
	if best, ok := bestOf(full, q.artist+" "+q.title, func(c Candidate) string {
		return c.Artist + " " + c.Title
	}, func(c Candidate) bool {
		return textutil.EqualFold(c.Artist, q.artist) && textutil.EqualFold(c.Title, q.title)
	}); ok {
		return best, true
	}
	return bestOf(artistOnly, q.artist, func(c Candidate) string { return c.Artist }, func(c Candidate) bool {
		return textutil.EqualFold(c.Artist, q.artist)
	})
}

func bestOf(candidates []Candidate, want string, text func(Candidate) string, exact func(Candidate) bool) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	for _, c := range candidates {
		if exact(c) {
			return c, true
		}
	}
	best := candidates[0]
	bestScore := -1.0
	for _, c := range candidates {
		if score := textutil.Similarity(want, text(c)); score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, true
}
