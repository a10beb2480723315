package fixplan

import (
	"fmt"
	"strconv"
	"strings"

	"centrifuge/internal/audio"
	"centrifuge/internal/release"
)

// fieldOrder is the order set-tag operations are emitted in for one file.
var fieldOrder = []audio.Field{
	audio.FieldArtist,
	audio.FieldReleaseArtist,
	audio.FieldReleaseTitle,
	audio.FieldTitle,
	audio.FieldDate,
	audio.FieldGenre,
	audio.FieldComment,
	audio.FieldTrack,
	audio.FieldDisc,
}

func getField(t release.Track, f audio.Field) string {
	switch f {
	case audio.FieldArtist:
		return t.Artist
	case audio.FieldReleaseArtist:
		return t.ReleaseArtist
	case audio.FieldReleaseTitle:
		return t.ReleaseTitle
	case audio.FieldTitle:
		return t.Title
	case audio.FieldDate:
		return t.Date
	case audio.FieldGenre:
		return t.Genre
	case audio.FieldComment:
		return t.Comment
	case audio.FieldTrack:
		return formatPair(t.TrackNumber, t.TrackTotal)
	case audio.FieldDisc:
		return formatPair(t.DiscNumber, t.DiscTotal)
	default:
		return ""
	}
}

func setField(t *release.Track, f audio.Field, v string) {
	switch f {
	case audio.FieldArtist:
		t.Artist = v
	case audio.FieldReleaseArtist:
		t.ReleaseArtist = v
	case audio.FieldReleaseTitle:
		t.ReleaseTitle = v
	case audio.FieldTitle:
		t.Title = v
	case audio.FieldDate:
		t.Date = v
	case audio.FieldGenre:
		t.Genre = v
	case audio.FieldComment:
		t.Comment = v
	case audio.FieldTrack:
		t.TrackNumber, t.TrackTotal = parsePair(v)
	case audio.FieldDisc:
		t.DiscNumber, t.DiscTotal = parsePair(v)
	}
}

// formatPair renders "n" or "n/total" the way ID3 TRCK/TPOS carry it.
func formatPair(n, total int) string {
	switch {
	case n <= 0 && total <= 0:
		return ""
	case total <= 0:
		return strconv.Itoa(n)
	default:
		return fmt.Sprintf("%d/%d", n, total)
	}
}

func parsePair(v string) (int, int) {
	num, total, _ := strings.Cut(v, "/")
	n, _ := strconv.Atoi(strings.TrimSpace(num))
	t, _ := strconv.Atoi(strings.TrimSpace(total))
	return n, t
}
