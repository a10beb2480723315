package release

import (
	"regexp"
	"strings"
)

var trailingGroup = regexp.MustCompile(`\s*[\[({]([^\[\](){}]*)[\])}]\s*$`)

// titleGroups splits trailing bracketed groups off a title. groups are in
// title order; each entry keeps its original text including brackets.
func titleGroups(title string) (base string, groups []string, inner []string) {
	base = title
	for {
		loc := trailingGroup.FindStringSubmatchIndex(base)
		if loc == nil || loc[0] == 0 {
			return base, groups, inner
		}
		groups = append([]string{strings.TrimSpace(base[loc[0]:loc[1]])}, groups...)
		inner = append([]string{strings.TrimSpace(base[loc[2]:loc[3]])}, inner...)
		base = base[:loc[0]]
	}
}

func stripMarkers(title string, isMarker func(string) bool) (string, []string) {
	base, groups, inner := titleGroups(title)
	var found []string
	kept := []string{strings.TrimRight(base, " ")}
	for i, g := range groups {
		if isMarker(inner[i]) {
			found = append(found, inner[i])
			continue
		}
		kept = append(kept, g)
	}
	if len(found) == 0 {
		return title, nil
	}
	return strings.Join(kept, " "), found
}

func isCategoryMarker(value string) bool {
	for _, c := range Categories {
		if c != CategoryAlbum && strings.EqualFold(value, string(c)) {
			return true
		}
	}
	return false
}

func isSourceMarker(value string) bool {
	for _, s := range Sources {
		if s != SourceCD && s != SourceUnknown && strings.EqualFold(value, string(s)) {
			return true
		}
	}
	return false
}

// StripCategoryMarker removes trailing bracketed category markers such as
// "(EP)" or "[Single]" from a title. Album is never a marker.
func StripCategoryMarker(title string) (string, []string) {
	return stripMarkers(title, isCategoryMarker)
}

// StripSourceMarker removes trailing bracketed source markers such as "[WEB]"
// or "(Vinyl)". CD is never a marker.
func StripSourceMarker(title string) (string, []string) {
	return stripMarkers(title, isSourceMarker)
}

// StripMarkers removes both kinds of marker.
func StripMarkers(title string) string {
	title, _ = StripCategoryMarker(title)
	title, _ = StripSourceMarker(title)
	return title
}
