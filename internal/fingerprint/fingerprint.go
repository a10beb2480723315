package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"centrifuge/internal/audio"
	"centrifuge/internal/release"
)

// Compute digests the release's tracks in (disc, track, path) order. Tracks
// that could not be parsed contribute a digest of their whole file. A release
// without tracks has no fingerprint.
func Compute(ctx context.Context, rel *release.Release, hasher audio.PayloadHasher) (string, error) {
	if rel == nil || len(rel.Tracks) == 0 {
		return "", nil
	}
	tracks := append([]release.Track(nil), rel.Tracks...)
	release.SortTracks(tracks)

	h := sha256.New()
	for _, track := range tracks {
		path := filepath.Join(rel.SourceDir, track.Path)
		var (
			digest string
			err    error
		)
		if track.Unreadable {
			digest, err = audio.FileHash(ctx, path)
		} else {
			digest, err = hasher.PayloadHash(ctx, path)
		}
		if err != nil {
			return "", err
		}
		_, _ = h.Write([]byte(digest))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
