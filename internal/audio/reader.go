package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"

	"centrifuge/internal/services"
)

// ErrUnreadable marks files whose tags cannot be parsed.
var ErrUnreadable = errors.New("unreadable audio file")

// TagReader reads tags with dhowden/tag and falls back to TagLib.
type TagReader struct {
	// SkipProperties disables reading stream properties through TagLib.
	SkipProperties bool
}

// NewTagReader constructs the default reader.
func NewTagReader() *TagReader {
	return &TagReader{}
}

// Read extracts the attribute set for one file.
func (r *TagReader) Read(ctx context.Context, path string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return Info{}, services.Wrap(services.ErrFilesystem, "read", "open audio", "Unable to open audio file", err)
	}
	defer file.Close()

	head, err := readHead(file)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, filepath.Base(path), err)
	}
	if !ConfirmAudio(path, head) {
		return Info{}, fmt.Errorf("%w: %s: content is not audio", ErrUnreadable, filepath.Base(path))
	}

	if _, err := file.Seek(0, 0); err != nil {
		return Info{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, filepath.Base(path), err)
	}
	var info Info
	metadata, err := tag.ReadFrom(file)
	switch {
	case err == nil:
		info = infoFromMetadata(metadata)
	case errors.Is(err, tag.ErrNoTagsFound):
		info, err = readWithTagLib(path)
		if err != nil {
			return Info{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, filepath.Base(path), err)
		}
	default:
		return Info{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, filepath.Base(path), err)
	}

	info.Codec = detectCodec(path, head, file)
	if info.Codec == CodecMP3 {
		mode, bitrate, err := ReadMPEGMode(file)
		if err == nil {
			info.BitrateMode = mode
			info.Bitrate = bitrate
		}
	}
	if !r.SkipProperties {
		if props, err := taglib.ReadProperties(path); err == nil {
			info.Duration = props.Length
			if info.Bitrate == 0 || info.BitrateMode == BitrateVBR {
				info.Bitrate = int(props.Bitrate)
			}
		}
	}
	return info, nil
}

func infoFromMetadata(m tag.Metadata) Info {
	info := Info{
		Title:         m.Title(),
		Artist:        m.Artist(),
		ReleaseArtist: m.AlbumArtist(),
		ReleaseTitle:  m.Album(),
		Genre:         m.Genre(),
		Comment:       m.Comment(),
		TagType:       string(m.Format()),
		Raw:           flattenRaw(m.Raw()),
	}
	info.TrackNumber, info.TrackTotal = m.Track()
	info.DiscNumber, info.DiscTotal = m.Disc()
	info.Date = firstRaw(info.Raw, "TDRC", "TYER", "TYE", "date", "year", "\xa9day")
	if info.Date == "" && m.Year() > 0 {
		info.Date = strconv.Itoa(m.Year())
	}
	return info
}

func flattenRaw(raw map[string]interface{}) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			out[key] = v
		case int:
			out[key] = strconv.Itoa(v)
		case *tag.Comm:
			out[key] = v.Text
		case fmt.Stringer:
			out[key] = v.String()
		}
	}
	return out
}

func firstRaw(raw map[string]string, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key]; ok && value != "" {
			return value
		}
	}
	return ""
}

func readWithTagLib(path string) (Info, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Title:         firstTag(tags, taglib.Title),
		Artist:        firstTag(tags, taglib.Artist),
		ReleaseArtist: firstTag(tags, taglib.AlbumArtist),
		ReleaseTitle:  firstTag(tags, taglib.Album),
		Date:          firstTag(tags, taglib.Date),
		Genre:         firstTag(tags, taglib.Genre),
		Comment:       firstTag(tags, taglib.Comment),
		TagType:       tagLibContainer(path, tags),
		Raw:           make(map[string]string, len(tags)),
	}
	info.TrackNumber, info.TrackTotal = parsePair(firstTag(tags, taglib.TrackNumber))
	info.DiscNumber, info.DiscTotal = parsePair(firstTag(tags, taglib.DiscNumber))
	if info.TrackTotal == 0 {
		info.TrackTotal, _ = strconv.Atoi(firstTag(tags, "TRACKTOTAL", "TOTALTRACKS"))
	}
	if info.DiscTotal == 0 {
		info.DiscTotal, _ = strconv.Atoi(firstTag(tags, "DISCTOTAL", "TOTALDISCS"))
	}
	for key, values := range tags {
		if len(values) > 0 {
			info.Raw[key] = values[0]
		}
	}
	return info, nil
}

func firstTag(tags map[string][]string, keys ...string) string {
	for _, key := range keys {
		if values := tags[key]; len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// parsePair splits "3/12" into (3, 12). Missing parts are zero.
func parsePair(value string) (int, int) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, 0
	}
	number, total, _ := strings.Cut(value, "/")
	n, _ := strconv.Atoi(strings.TrimSpace(number))
	t, _ := strconv.Atoi(strings.TrimSpace(total))
	return n, t
}

// tagLibContainer names the tag container TagLib read. dhowden/tag already
// covers ID3, so tags TagLib finds on an MP3 are APE.
func tagLibContainer(path string, tags map[string][]string) string {
	if len(tags) == 0 {
		return ""
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return TagTypeRIFF
	case ".wv", ".ape", ".mp3":
		return TagTypeAPE
	case ".ogg", ".oga", ".opus", ".flac":
		return string(tag.VORBIS)
	case ".m4a", ".mp4", ".aac":
		return string(tag.MP4)
	default:
		return ""
	}
}

func detectCodec(path string, head []byte, file *os.File) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return CodecMP3
	case ".flac":
		return CodecFLAC
	case ".m4a", ".mp4":
		if alac, err := IsALAC(file); err == nil && alac {
			return CodecALAC
		}
		return CodecAAC
	case ".aac":
		return CodecAAC
	case ".ogg", ".oga":
		if isOpus(head) {
			return CodecOpus
		}
		return CodecVorbis
	case ".opus":
		return CodecOpus
	case ".wav":
		return CodecWAV
	case ".aiff":
		return CodecAIFF
	case ".wv":
		return CodecWavPack
	case ".ape":
		return CodecAPE
	case ".dsf":
		return CodecDSD
	default:
		return ""
	}
}
