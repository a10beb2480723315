package validation

import (
	"context"
	"fmt"

	"centrifuge/internal/oracle"
	"centrifuge/internal/release"
	"centrifuge/internal/textutil"
)

// Query returns what the oracle is asked for a release. It reports false when
// the oracle rules do not apply: a blank artist or a Various Artists release.
func Query(rel *release.Release) (artist, title string, ok bool) {
	artist = textutil.CollapseSpace(rel.Artist)
	if artist == "" || rel.IsVariousArtists() {
		return "", "", false
	}
	return artist, textutil.CollapseSpace(release.StripMarkers(rel.Title)), true
}

// Resolve asks o about rel. The boolean is false when the oracle rules do not
// apply or o is nil.
func Resolve(ctx context.Context, rel *release.Release, o Oracle) (oracle.Resolution, bool) {
	if o == nil {
		return oracle.Resolution{}, false
	}
	artist, title, ok := Query(rel)
	if !ok {
		return oracle.Resolution{}, false
	}
	return o.Resolve(ctx, artist, title), true
}

// ArtistCorrection returns the canonical release artist when it differs from
// the declared one.
func ArtistCorrection(rel *release.Release, res oracle.Resolution) (string, bool) {
	if res.Status != oracle.StatusMatched || res.Artist == "" {
		return "", false
	}
	if res.Artist == textutil.CollapseSpace(rel.Artist) {
		return "", false
	}
	return res.Artist, true
}

// TitleCorrection returns the canonical release title, markers removed, when
// it differs from the declared one. Artist-only matches never correct titles.
func TitleCorrection(rel *release.Release, res oracle.Resolution) (string, bool) {
	if res.Status != oracle.StatusMatched || res.ArtistOnly {
		return "", false
	}
	want := textutil.CollapseSpace(release.StripMarkers(res.Title))
	have := textutil.CollapseSpace(release.StripMarkers(rel.Title))
	if want == "" || have == "" || want == have {
		return "", false
	}
	return want, true
}

func oracleRules() []Rule {
	return []Rule{
		newCheck(CodeReleaseArtistSpelling, func(ctx context.Context, rel *release.Release, o Oracle) (string, bool) {
			res, ok := Resolve(ctx, rel, o)
			if !ok {
				return "", false
			}
			want, bad := ArtistCorrection(rel, res)
			if !bad {
				return "", false
			}
			return fmt.Sprintf("Release artist %q should be %q", rel.Artist, want), true
		}),
		newCheck(CodeReleaseTitleSpelling, func(ctx context.Context, rel *release.Release, o Oracle) (string, bool) {
			res, ok := Resolve(ctx, rel, o)
			if !ok {
				return "", false
			}
			want, bad := TitleCorrection(rel, res)
			if !bad {
				return "", false
			}
			return fmt.Sprintf("Release title %q should be %q", rel.Title, want), true
		}),
		newCheck(CodeReleaseArtistNotFound, func(ctx context.Context, rel *release.Release, o Oracle) (string, bool) {
			res, ok := Resolve(ctx, rel, o)
			if !ok || res.Status != oracle.StatusNotFound {
				return "", false
			}
			return fmt.Sprintf("Release artist %q not found", rel.Artist), true
		}),
		newCheck(CodeArtistLookup, func(ctx context.Context, rel *release.Release, o Oracle) (string, bool) {
			res, ok := Resolve(ctx, rel, o)
			if !ok || res.Status != oracle.StatusFailed {
				return "", false
			}
			return fmt.Sprintf("Lookup of %q failed: %v", rel.Artist, res.Err), true
		}),
	}
}
