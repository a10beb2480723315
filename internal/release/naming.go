package release

import (
	"fmt"
	"strconv"
	"strings"

	"centrifuge/internal/audio"
	"centrifuge/internal/textutil"
)

// Encoder summarizes the encoding shared by every readable track.
type Encoder struct {
	Codec   string
	Mode    audio.BitrateMode
	Bitrate int
	// Mixed is set when tracks disagree on codec or, for MP3, on mode or bitrate.
	Mixed bool
}

// EncoderSummary derives the release encoder from its tracks.
func (r *Release) EncoderSummary() Encoder {
	readable := r.Readable()
	if len(readable) == 0 {
		return Encoder{Mixed: true}
	}
	first := readable[0]
	enc := Encoder{Codec: first.Codec, Mode: first.BitrateMode, Bitrate: first.Bitrate}
	for _, track := range readable[1:] {
		if track.Codec != enc.Codec {
			return Encoder{Mixed: true}
		}
		if enc.Codec != audio.CodecMP3 {
			continue
		}
		if track.BitrateMode != enc.Mode {
			return Encoder{Mixed: true}
		}
		if enc.Mode == audio.BitrateCBR && track.Bitrate != enc.Bitrate {
			return Encoder{Mixed: true}
		}
	}
	if enc.Codec == "" {
		enc.Mixed = true
	}
	return enc
}

// Name renders the encoder segment of a folder name. The second return is
// false when no single encoder describes the release.
func (e Encoder) Name(full bool) (string, bool) {
	if e.Mixed || e.Codec == "" {
		return "", false
	}
	if e.Codec == audio.CodecMP3 {
		var setting string
		switch {
		case e.Mode == audio.BitrateVBR:
			setting = "VBR"
		case e.Mode == audio.BitrateCBR && e.Bitrate > 0:
			setting = strconv.Itoa(e.Bitrate)
		default:
			return "", false
		}
		if full {
			return "MP3 " + setting, true
		}
		return setting, true
	}
	if e.Codec == audio.CodecVorbis && !full {
		return "OGG", true
	}
	return e.Codec, true
}

// FolderName renders `Artist - Year - Title [Category] [Encoder]`. The
// category segment is omitted for albums. It reports false when a required
// part is missing.
func (r *Release) FolderName(fullCodecNames bool) (string, bool) {
	artist := textutil.SanitizeFileName(r.Artist)
	title := textutil.SanitizeFileName(r.Title)
	if artist == "" || title == "" || r.Year == "" {
		return "", false
	}
	encoder, ok := r.EncoderSummary().Name(fullCodecNames)
	if !ok {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s - %s", artist, r.Year, title)
	if r.Category != "" && r.Category != CategoryAlbum {
		fmt.Fprintf(&b, " [%s]", r.Category)
	}
	fmt.Fprintf(&b, " [%s]", encoder)
	return b.String(), true
}

// FileName renders the canonical file name for a track of this release:
// `TT - Title.ext`, `DTT - Title.ext` on multi-disc releases and
// `TT - Artist - Title.ext` on Various Artists releases.
func (r *Release) FileName(track Track) (string, bool) {
	return r.fileName(track, r.IsMultiDisc())
}

func (r *Release) fileName(track Track, multiDisc bool) (string, bool) {
	title := textutil.SanitizeFileName(track.Title)
	if track.Unreadable || title == "" || track.TrackNumber <= 0 {
		return "", false
	}
	number := fmt.Sprintf("%02d", track.TrackNumber)
	if multiDisc {
		number = strconv.Itoa(track.Disc()) + number
	}
	if r.IsVariousArtists() {
		artist := textutil.SanitizeFileName(track.Artist)
		if artist == "" {
			return "", false
		}
		return fmt.Sprintf("%s - %s - %s%s", number, artist, title, track.Ext()), true
	}
	return fmt.Sprintf("%s - %s%s", number, title, track.Ext()), true
}

// FileNames maps each readable track path to its canonical name.
func (r *Release) FileNames() map[string]string {
	multiDisc := r.IsMultiDisc()
	out := make(map[string]string, len(r.Tracks))
	for _, track := range r.Tracks {
		if name, ok := r.fileName(track, multiDisc); ok {
			out[track.Path] = name
		}
	}
	return out
}
