package validation

import (
	"context"
	"fmt"
	"strings"

	"centrifuge/internal/release"
	"centrifuge/internal/textutil"
)

// trackField reads one tag field from a track.
type trackField func(release.Track) string

var (
	fieldArtist        trackField = func(t release.Track) string { return t.Artist }
	fieldReleaseArtist trackField = func(t release.Track) string { return t.ReleaseArtist }
	fieldReleaseTitle  trackField = func(t release.Track) string { return t.ReleaseTitle }
	fieldTitle         trackField = func(t release.Track) string { return t.Title }
	fieldDate          trackField = func(t release.Track) string { return t.Date }
	fieldGenre         trackField = func(t release.Track) string { return t.Genre }
)

func unreadableRule() Rule {
	return newCheck(CodeUnreadable, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
		var bad []string
		for _, track := range rel.Tracks {
			if track.Unreadable {
				bad = append(bad, track.Path)
			}
		}
		if len(bad) == 0 {
			return "", false
		}
		return "Unreadable files: " + strings.Join(bad, ", "), true
	})
}

func whitespace(code Code, label string, field trackField) Rule {
	return newCheck(code, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
		for _, track := range rel.Readable() {
			if v := field(track); textutil.HasStrayWhitespace(v) {
				return fmt.Sprintf("%s %q has stray whitespace in %s", label, v, track.Path), true
			}
		}
		return "", false
	})
}

func blank(code Code, label string, field trackField) Rule {
	return newCheck(code, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
		for _, track := range rel.Readable() {
			if strings.TrimSpace(field(track)) == "" {
				return fmt.Sprintf("%s is blank in %s", label, track.Path), true
			}
		}
		return "", false
	})
}

func inconsistent(code Code, label string, field trackField) Rule {
	return newCheck(code, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
		values := release.Distinct(rel.Readable(), func(t release.Track) string {
			return textutil.CollapseSpace(field(t))
		})
		if len(values) <= 1 {
			return "", false
		}
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = fmt.Sprintf("%q", v)
		}
		return fmt.Sprintf("%s differs across tracks: %s", label, strings.Join(quoted, ", ")), true
	})
}

func hygieneRules() []Rule {
	return []Rule{
		whitespace(CodeArtistWhitespace, "Artist", fieldArtist),
		whitespace(CodeReleaseArtistWhitespace, "Release artist", fieldReleaseArtist),
		whitespace(CodeReleaseTitleWhitespace, "Release title", fieldReleaseTitle),
		whitespace(CodeTrackTitleWhitespace, "Track title", fieldTitle),
		whitespace(CodeDateWhitespace, "Date", fieldDate),
		whitespace(CodeGenreWhitespace, "Genre", fieldGenre),
		blank(CodeArtistBlank, "Artist", fieldArtist),
		newCheck(CodeReleaseArtistBlank, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			readable := rel.Readable()
			if len(readable) == 0 {
				return "", false
			}
			for _, track := range readable {
				if strings.TrimSpace(track.ReleaseArtist) != "" {
					return "", false
				}
			}
			return "Release artist is blank on every track", true
		}),
		blank(CodeReleaseTitleBlank, "Release title", fieldReleaseTitle),
		blank(CodeTrackTitleBlank, "Track title", fieldTitle),
		blank(CodeDateBlank, "Date", fieldDate),
		inconsistent(CodeReleaseArtistInconsistent, "Release artist", fieldReleaseArtist),
		inconsistent(CodeReleaseTitleInconsistent, "Release title", fieldReleaseTitle),
		inconsistent(CodeDateInconsistent, "Date", fieldDate),
		inconsistent(CodeGenreInconsistent, "Genre", fieldGenre),
	}
}
