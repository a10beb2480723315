package audio

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"centrifuge/internal/services"
)

// Hasher computes payload digests that ignore tag metadata. MPEG streams
// (anything starting with an ID3v2 tag, or named .mp3) are hashed over the
// byte range between the leading ID3v2 tag and the trailing ID3v1/APEv2
// tags. Other containers use dhowden/tag's format-aware sums.
type Hasher struct{}

// NewHasher constructs the default payload hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// PayloadHash digests the audio data with tags excluded.
func (Hasher) PayloadHash(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "fingerprint", "open", path, err)
	}
	defer file.Close()

	var head [10]byte
	n, _ := io.ReadFull(file, head[:])
	if bytes.HasPrefix(head[:n], []byte("ID3")) || strings.EqualFold(filepath.Ext(path), ".mp3") {
		sum, err := sumMPEG(file)
		if err != nil {
			return FileHash(ctx, path)
		}
		return sum, nil
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "fingerprint", "seek", path, err)
	}
	sum, err := tag.Sum(file)
	if err != nil {
		return FileHash(ctx, path)
	}
	return sum, nil
}

// FileHash digests the whole file. It keys files whose payload cannot be located.
func FileHash(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "fingerprint", "open", path, err)
	}
	defer file.Close()
	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "fingerprint", "read", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

var errNoPayload = errors.New("no audio payload between tags")

// sumMPEG hashes the bytes left after removing a leading ID3v2 tag (with its
// optional footer), a trailing ID3v1 tag and a trailing APEv2 tag.
func sumMPEG(f *os.File) (string, error) {
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	start, end, err := mpegPayloadRange(f, info.Size())
	if err != nil {
		return "", err
	}
	h := sha256.New()
	if _, err := io.Copy(h, io.NewSectionReader(f, start, end-start)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func mpegPayloadRange(r io.ReaderAt, size int64) (start, end int64, err error) {
	end = size
	var hdr [10]byte
	if size >= 10 {
		if _, err := r.ReadAt(hdr[:], 0); err != nil {
			return 0, 0, err
		}
		if bytes.Equal(hdr[:3], []byte("ID3")) {
			start = 10 + int64(synchsafe(hdr[6:10]))
			if hdr[5]&0x10 != 0 {
				start += 10
			}
		}
	}

	if end-start >= 128 {
		var v1 [3]byte
		if _, err := r.ReadAt(v1[:], end-128); err != nil {
			return 0, 0, err
		}
		if bytes.Equal(v1[:], []byte("TAG")) {
			end -= 128
		}
	}

	if end-start >= 32 {
		var footer [32]byte
		if _, err := r.ReadAt(footer[:], end-32); err != nil {
			return 0, 0, err
		}
		if bytes.Equal(footer[:8], []byte("APETAGEX")) {
			// The size covers items and footer; a header adds 32 more bytes.
			end -= int64(binary.LittleEndian.Uint32(footer[12:16]))
			if binary.LittleEndian.Uint32(footer[20:24])&(1<<31) != 0 {
				end -= 32
			}
		}
	}

	if end <= start {
		return 0, 0, errNoPayload
	}
	return start, end, nil
}

func synchsafe(b []byte) uint32 {
	return uint32(b[0]&0x7f)<<21 | uint32(b[1]&0x7f)<<14 | uint32(b[2]&0x7f)<<7 | uint32(b[3]&0x7f)
}
