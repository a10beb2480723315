// Package fileutil holds the filesystem primitives shared by the fix engine
// and the mover: verified copies, empty directory cleanup and collision
// checks.
package fileutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Exists reports whether path exists. Errors other than not-exist count as
// existing so callers never overwrite what they cannot see.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// SameEntry reports whether a and b resolve to the same file, as two
// spellings of one name do on a case-insensitive filesystem. Missing paths
// are never the same entry.
func SameEntry(a, b string) bool {
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

// CopyFileVerified copies src to the new file dst, syncs it, then re-reads
// dst and compares size and SHA-256 against the source stream. dst is
// removed on any failure.
func CopyFileVerified(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	want := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, want))
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if written != info.Size() {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}

	got, err := hashFile(dst)
	if err != nil {
		return fmt.Errorf("verify copy: %w", err)
	}
	if !bytes.Equal(got, want.Sum(nil)) {
		return fmt.Errorf("verify copy: %s differs from %s", dst, src)
	}
	return nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// CopyTreeVerified copies the directory src to the new directory dst, every
// regular file verified. On failure the partial dst is removed and src is
// left untouched.
func CopyTreeVerified(ctx context.Context, src, dst string) error {
	if Exists(dst) {
		return fmt.Errorf("copy tree: %s: %w", dst, fs.ErrExist)
	}
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.Mkdir(target, info.Mode().Perm()|0o700)
		case d.Type().IsRegular():
			return CopyFileVerified(path, target)
		default:
			return fmt.Errorf("copy tree: unsupported file type %s", path)
		}
	})
	if err != nil {
		_ = os.RemoveAll(dst)
		return err
	}
	return nil
}

// RemoveEmptyDirs removes every empty directory below root, deepest first.
// root itself is kept.
func RemoveEmptyDirs(root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slices.Reverse(dirs)
	for _, dir := range dirs {
		if empty, err := isEmptyDir(dir); err == nil && empty {
			if err := os.Remove(dir); err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveEmptyParents removes dir and its ancestors while they are empty,
// stopping before stop. dir must be inside stop.
func RemoveEmptyParents(dir, stop string) error {
	stop = filepath.Clean(stop)
	for current := filepath.Clean(dir); current != stop; current = filepath.Dir(current) {
		rel, err := filepath.Rel(stop, current)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return nil
		}
		empty, err := isEmptyDir(current)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil || !empty {
			return err
		}
		if err := os.Remove(current); err != nil {
			return err
		}
	}
	return nil
}

func isEmptyDir(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, err
	}
	defer f.Close()
	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}
