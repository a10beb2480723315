package audio

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// Codec identifiers.
const (
	CodecMP3     = "MP3"
	CodecFLAC    = "FLAC"
	CodecAAC     = "AAC"
	CodecALAC    = "ALAC"
	CodecVorbis  = "Vorbis"
	CodecOpus    = "Opus"
	CodecWAV     = "WAV"
	CodecAIFF    = "AIFF"
	CodecWavPack = "WavPack"
	CodecAPE     = "APE"
	CodecDSD     = "DSD"
)

// Tag container identifiers beyond the ones dhowden/tag reports.
const (
	TagTypeID3v24 = "ID3v2.4"
	TagTypeAPE    = "APEv2"
	TagTypeRIFF   = "RIFF"
)

// BitrateMode distinguishes constant from variable bitrate encodes.
type BitrateMode string

const (
	BitrateUnknown BitrateMode = ""
	BitrateCBR     BitrateMode = "CBR"
	BitrateVBR     BitrateMode = "VBR"
)

// Field names a writable tag field.
type Field string

const (
	FieldArtist        Field = "artist"
	FieldReleaseArtist Field = "release_artist"
	FieldReleaseTitle  Field = "release_title"
	FieldTitle         Field = "title"
	FieldDate          Field = "date"
	FieldGenre         Field = "genre"
	FieldComment       Field = "comment"
	// FieldTrack and FieldDisc take "n" or "n/total".
	FieldTrack Field = "track"
	FieldDisc  Field = "disc"
)

// Info is the attribute set read from one audio file.
type Info struct {
	Title         string
	Artist        string
	ReleaseArtist string
	ReleaseTitle  string
	Date          string
	Genre         string
	Comment       string
	TrackNumber   int
	TrackTotal    int
	DiscNumber    int
	DiscTotal     int
	Codec         string
	BitrateMode   BitrateMode
	Bitrate       int
	Duration      time.Duration
	TagType       string
	Raw           map[string]string
}

// Reader reads tags and stream properties.
type Reader interface {
	Read(ctx context.Context, path string) (Info, error)
}

// Writer edits tags in place. An empty value deletes the field.
type Writer interface {
	WriteFields(ctx context.Context, path string, values map[Field]string) error
	// RewriteTags replaces the file's tag container with the canonical one
	// for its codec, carrying values over.
	RewriteTags(ctx context.Context, path string, values map[Field]string) error
}

// PayloadHasher digests the audio payload, excluding tag metadata.
type PayloadHasher interface {
	PayloadHash(ctx context.Context, path string) (string, error)
}

var audioExtensions = map[string]struct{}{
	".mp3": {}, ".flac": {}, ".m4a": {}, ".mp4": {}, ".aac": {}, ".ogg": {}, ".oga": {},
	".opus": {}, ".wav": {}, ".aiff": {}, ".wv": {}, ".ape": {}, ".dsf": {},
}

// HasAudioExtension reports whether the file name carries a known audio extension.
func HasAudioExtension(name string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsLossy reports whether a codec discards information, making its bitrate mode meaningful.
func IsLossy(codec string) bool {
	switch codec {
	case CodecMP3, CodecAAC, CodecVorbis, CodecOpus:
		return true
	default:
		return false
	}
}

// IsMP3 reports whether the path is an MPEG layer III file.
func IsMP3(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp3")
}
