package testsupport

import (
	"fmt"
	"path/filepath"

	"centrifuge/internal/audio"
	"centrifuge/internal/release"
)

// CleanRelease builds an in-memory release that passes every rule when the
// oracle confirms "Artist" / "Title": three VBR MP3 tracks of 1999 with
// canonical file names under dir/"Artist - 1999 - Title [VBR]".
func CleanRelease(dir string) *release.Release {
	rel := &release.Release{
		SourceDir: filepath.Join(dir, "Artist - 1999 - Title [VBR]"),
		Category:  release.CategoryAlbum,
		Source:    release.SourceCD,
	}
	for i := 1; i <= 3; i++ {
		rel.Tracks = append(rel.Tracks, release.Track{
			Path:          fmt.Sprintf("%02d - Song %d.mp3", i, i),
			TrackNumber:   i,
			TrackTotal:    3,
			Title:         fmt.Sprintf("Song %d", i),
			Artist:        "Artist",
			ReleaseArtist: "Artist",
			ReleaseTitle:  "Title",
			Date:          "1999",
			Genre:         "Rock",
			Codec:         audio.CodecMP3,
			BitrateMode:   audio.BitrateVBR,
			Bitrate:       245,
			TagType:       audio.TagTypeID3v24,
		})
	}
	rel.Declare()
	return rel
}

// EditTracks applies fn to every track and recomputes the declared fields.
func EditTracks(rel *release.Release, fn func(i int, t *release.Track)) *release.Release {
	for i := range rel.Tracks {
		fn(i, &rel.Tracks[i])
	}
	rel.Declare()
	return rel
}
