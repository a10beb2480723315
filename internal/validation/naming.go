package validation

import (
	"context"
	"fmt"
	"strings"

	"centrifuge/internal/release"
)

func namingRules(fullCodecNames bool) []Rule {
	return []Rule{
		newCheck(CodeReleaseTitleCategory, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			for _, track := range rel.Readable() {
				if _, found := release.StripCategoryMarker(track.ReleaseTitle); len(found) > 0 {
					return fmt.Sprintf("Release title %q carries category marker %s", track.ReleaseTitle, strings.Join(found, ", ")), true
				}
			}
			return "", false
		}),
		newCheck(CodeReleaseTitleSource, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			for _, track := range rel.Readable() {
				if _, found := release.StripSourceMarker(track.ReleaseTitle); len(found) > 0 {
					return fmt.Sprintf("Release title %q carries source marker %s", track.ReleaseTitle, strings.Join(found, ", ")), true
				}
			}
			return "", false
		}),
		newCheck(CodeFilename, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			names := rel.FileNames()
			for _, track := range rel.Readable() {
				want, ok := names[track.Path]
				if ok && track.Path != want {
					return fmt.Sprintf("Invalid file name %q should be %q", track.Path, want), true
				}
			}
			return "", false
		}),
		newCheck(CodeFolderName, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			want, ok := rel.FolderName(fullCodecNames)
			if !ok {
				return "Cannot validate folder name", true
			}
			if rel.Name() != want {
				return fmt.Sprintf("Invalid folder name %q should be %q", rel.Name(), want), true
			}
			return "", false
		}),
	}
}
