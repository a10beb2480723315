package audio

import (
	"context"
	"fmt"

	"github.com/bogem/id3v2"
	"go.senan.xyz/taglib"

	"centrifuge/internal/services"
)

// TagWriter writes ID3 tags with bogem/id3v2 and everything else through TagLib.
type TagWriter struct{}

// NewTagWriter constructs the default writer.
func NewTagWriter() *TagWriter {
	return &TagWriter{}
}

var tagLibKeys = map[Field]string{
	FieldArtist:        taglib.Artist,
	FieldReleaseArtist: taglib.AlbumArtist,
	FieldReleaseTitle:  taglib.Album,
	FieldTitle:         taglib.Title,
	FieldDate:          taglib.Date,
	FieldGenre:         taglib.Genre,
	FieldComment:       taglib.Comment,
	FieldTrack:         taglib.TrackNumber,
	FieldDisc:          taglib.DiscNumber,
}

// WriteFields applies the values to the file. Empty values delete the field.
func (w *TagWriter) WriteFields(ctx context.Context, path string, values map[Field]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	if IsMP3(path) {
		return writeID3(path, values, false)
	}
	tags := make(map[string][]string, len(values))
	for field, value := range values {
		key, ok := tagLibKeys[field]
		if !ok {
			return fmt.Errorf("unsupported tag field %q", field)
		}
		if value == "" {
			tags[key] = nil
			continue
		}
		tags[key] = []string{value}
	}
	if err := taglib.WriteTags(path, tags, 0); err != nil {
		return services.Wrap(services.ErrFilesystem, "fix", "write tags", path, err)
	}
	return nil
}

// RewriteTags converts MP3 files to an ID3v2.4 tag holding the given values.
// Other containers are fixed by their codec, so the values are rewritten as is.
func (w *TagWriter) RewriteTags(ctx context.Context, path string, values map[Field]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !IsMP3(path) {
		return w.WriteFields(ctx, path, values)
	}
	return writeID3(path, values, true)
}

func writeID3(path string, values map[Field]string, upgrade bool) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "fix", "open id3", path, err)
	}
	defer tag.Close()

	if tag.Version() < 3 || upgrade {
		// TYER/TDAT are v2.3 only; fold them into TDRC before switching.
		if year := tag.GetTextFrame("TYER").Text; year != "" {
			tag.DeleteFrames("TYER")
			tag.DeleteFrames("TDAT")
			if _, ok := values[FieldDate]; !ok {
				tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, year)
			}
		}
		tag.SetVersion(4)
	}
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	for field, value := range values {
		frameID := id3FrameID(tag, field)
		if frameID == "" {
			return fmt.Errorf("unsupported tag field %q", field)
		}
		tag.DeleteFrames(frameID)
		if value == "" {
			continue
		}
		if field == FieldComment {
			tag.AddCommentFrame(id3v2.CommentFrame{
				Encoding: id3v2.EncodingUTF8,
				Language: "eng",
				Text:     value,
			})
			continue
		}
		tag.AddTextFrame(frameID, id3v2.EncodingUTF8, value)
	}

	if err := tag.Save(); err != nil {
		return services.Wrap(services.ErrFilesystem, "fix", "save id3", path, err)
	}
	return nil
}

func id3FrameID(tag *id3v2.Tag, field Field) string {
	switch field {
	case FieldArtist:
		return "TPE1"
	case FieldReleaseArtist:
		return "TPE2"
	case FieldReleaseTitle:
		return "TALB"
	case FieldTitle:
		return "TIT2"
	case FieldDate:
		if tag.Version() == 3 {
			return "TYER"
		}
		return "TDRC"
	case FieldGenre:
		return "TCON"
	case FieldComment:
		return "COMM"
	case FieldTrack:
		return "TRCK"
	case FieldDisc:
		return "TPOS"
	default:
		return ""
	}
}
