package audio

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/abema/go-mp4"
	"github.com/h2non/filetype"
)

const sniffHeadSize = 262

// Extensions filetype has no matcher for. They are accepted on extension alone.
var unsniffable = map[string]struct{}{
	".wv": {}, ".ape": {}, ".dsf": {}, ".opus": {},
}

// ConfirmAudio checks the file head against its extension. It returns false
// when the content is recognisably something other than audio.
func ConfirmAudio(path string, head []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := unsniffable[ext]; ok {
		return len(head) > 0
	}
	if filetype.IsAudio(head) {
		return true
	}
	switch ext {
	case ".m4a", ".mp4", ".aac":
		// ftyp brands other than M4A are classified as video containers.
		return filetype.IsVideo(head) || isADTS(head)
	case ".mp3":
		_, ok := findFrame(head, 0)
		return ok
	}
	return false
}

func isADTS(head []byte) bool {
	return len(head) >= 2 && head[0] == 0xFF && head[1]&0xF6 == 0xF0
}

func readHead(r io.ReadSeeker) ([]byte, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	head := make([]byte, sniffHeadSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return head[:n], nil
}

// isOpus reports whether an Ogg stream carries Opus rather than Vorbis.
func isOpus(head []byte) bool {
	return bytes.Contains(head, []byte("OpusHead"))
}

// IsALAC reports whether an MP4 container holds an Apple Lossless sample entry.
func IsALAC(r io.ReadSeeker) (bool, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	boxes, err := mp4.ExtractBox(r, nil, mp4.BoxPath{
		mp4.BoxTypeMoov(),
		mp4.BoxTypeTrak(),
		mp4.BoxTypeMdia(),
		mp4.BoxTypeMinf(),
		mp4.BoxTypeStbl(),
		mp4.BoxTypeStsd(),
		mp4.StrToBoxType("alac"),
	})
	if err != nil {
		return false, err
	}
	return len(boxes) > 0, nil
}
