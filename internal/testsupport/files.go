package testsupport

import (
	"crypto/sha256"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/bogem/id3v2"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// MP3 describes a synthetic MP3 fixture.
type MP3 struct {
	Title         string
	Artist        string
	ReleaseArtist string
	ReleaseTitle  string
	Date          string
	Genre         string
	Comment       string
	Track         int
	TrackTotal    int
	Disc          int
	DiscTotal     int
	// Payload seeds the audio frames; equal payloads give equal audio.
	Payload string
	// VBR adds a Xing header to the first frame.
	VBR bool
}

const (
	mp3Frames      = 8
	mp3FrameLength = 417 // MPEG-1 layer III, 128 kbps, 44.1 kHz, no padding
)

// MP3Frames renders the audio payload for seed: valid frame headers followed
// by deterministic filler.
func MP3Frames(seed string, vbr bool) []byte {
	out := make([]byte, 0, mp3Frames*mp3FrameLength)
	for i := range mp3Frames {
		frame := make([]byte, mp3FrameLength)
		copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
		sum := sha256.Sum256([]byte(fmt.Sprintf("%s/%d", seed, i)))
		for j := 4; j < len(frame); j++ {
			frame[j] = sum[j%len(sum)]
		}
		if i == 0 && vbr {
			copy(frame[36:], "Xing")
		}
		out = append(out, frame...)
	}
	return out
}

// WriteMP3 writes an ID3v2.4 tagged MP3 fixture.
func WriteMP3(t testing.TB, path string, m MP3) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, MP3Frames(m.Payload, m.VBR), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: false})
	if err != nil {
		t.Fatalf("open id3 %s: %v", path, err)
	}
	defer tag.Close()
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	text := map[string]string{
		"TIT2": m.Title,
		"TPE1": m.Artist,
		"TPE2": m.ReleaseArtist,
		"TALB": m.ReleaseTitle,
		"TDRC": m.Date,
		"TCON": m.Genre,
		"TRCK": pair(m.Track, m.TrackTotal),
		"TPOS": pair(m.Disc, m.DiscTotal),
	}
	for _, id := range slices.Sorted(maps.Keys(text)) {
		if value := text[id]; value != "" {
			tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
		}
	}
	if m.Comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{Encoding: id3v2.EncodingUTF8, Language: "eng", Text: m.Comment})
	}
	if err := tag.Save(); err != nil {
		t.Fatalf("save id3 %s: %v", path, err)
	}
}

func pair(n, total int) string {
	switch {
	case n <= 0:
		return ""
	case total <= 0:
		return fmt.Sprint(n)
	default:
		return fmt.Sprintf("%d/%d", n, total)
	}
}

// AlbumTrack returns a clean fixture for track n of a release.
func AlbumTrack(artist, title, date string, n, total int, payload string) MP3 {
	return MP3{
		Title:         fmt.Sprintf("Song %d", n),
		Artist:        artist,
		ReleaseArtist: artist,
		ReleaseTitle:  title,
		Date:          date,
		Genre:         "Rock",
		Track:         n,
		TrackTotal:    total,
		Payload:       fmt.Sprintf("%s/%d", payload, n),
		VBR:           true,
	}
}

// WriteAlbum writes a clean VBR album of n tracks into dir with canonical
// file names and returns the file paths.
func WriteAlbum(t testing.TB, dir, artist, title, date string, n int, payload string) []string {
	t.Helper()
	paths := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		track := AlbumTrack(artist, title, date, i, n, payload)
		path := filepath.Join(dir, fmt.Sprintf("%02d - %s.mp3", i, track.Title))
		WriteMP3(t, path, track)
		paths = append(paths, path)
	}
	return paths
}
