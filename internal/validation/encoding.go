package validation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"centrifuge/internal/audio"
	"centrifuge/internal/release"
)

// MP3TagTypes returns the distinct tag containers found on MP3 tracks.
func MP3TagTypes(rel *release.Release) []string {
	var mp3 []release.Track
	for _, track := range rel.Readable() {
		if track.Codec == audio.CodecMP3 {
			mp3 = append(mp3, track)
		}
	}
	return release.Distinct(mp3, func(t release.Track) string {
		if t.TagType == "" {
			return "none"
		}
		return t.TagType
	})
}

func encodingRules() []Rule {
	return []Rule{
		newCheck(CodeCodecsInconsistent, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			codecs := release.Distinct(rel.Readable(), func(t release.Track) string { return t.Codec })
			if len(codecs) <= 1 {
				return "", false
			}
			return "Mixed codecs: " + strings.Join(codecs, ", "), true
		}),
		newCheck(CodeCBRInconsistent, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			readable := rel.Readable()
			codecs := release.Distinct(readable, func(t release.Track) string { return t.Codec })
			if len(codecs) != 1 || !audio.IsLossy(codecs[0]) {
				return "", false
			}
			modes := release.Distinct(readable, func(t release.Track) string { return string(t.BitrateMode) })
			if len(modes) > 1 {
				return "Mixed bitrate modes: " + strings.Join(modes, ", "), true
			}
			if len(modes) == 1 && audio.BitrateMode(modes[0]) == audio.BitrateCBR {
				rates := release.Distinct(readable, func(t release.Track) string {
					if t.Bitrate <= 0 {
						return ""
					}
					return strconv.Itoa(t.Bitrate)
				})
				if len(rates) > 1 {
					return fmt.Sprintf("Mixed constant bitrates: %s kbps", strings.Join(rates, ", ")), true
				}
			}
			return "", false
		}),
		newCheck(CodeTagTypes, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
			types := MP3TagTypes(rel)
			if len(types) <= 1 {
				return "", false
			}
			return "Mixed MP3 tag containers: " + strings.Join(types, ", "), true
		}),
	}
}
