package placement

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"centrifuge/internal/fileutil"
	"centrifuge/internal/release"
)

// ShortenLongPaths renames entries directly inside dir whose full path is
// longer than max bytes to `prefix..ext`. An entry is left alone when the
// shortened name already exists. It returns the new paths and an error when
// dir itself is too long to fit any entry.
func ShortenLongPaths(dir string, max int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var shortened []string
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if len(full) <= max {
			continue
		}
		if len(dir) >= max-10 {
			return shortened, fmt.Errorf("path is too long: %s", dir)
		}
		ext := filepath.Ext(full)
		prefix := strings.TrimSuffix(full, ext)
		cut := max - len(ext) - 2
		target := truncateUTF8(prefix, cut) + ".." + ext
		if fileutil.Exists(target) {
			continue
		}
		if err := os.Rename(full, target); err != nil {
			return shortened, err
		}
		shortened = append(shortened, target)
	}
	return shortened, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// GuessGroupByCategory reports whether the tree at root is organized by
// category: its own name is a category, or every child is a category folder.
func GuessGroupByCategory(root string) bool {
	if release.IsCategory(filepath.Base(root)) {
		return true
	}
	entries, err := os.ReadDir(root)
	if err != nil || len(entries) == 0 {
		return false
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !entry.IsDir() || !release.IsCategory(entry.Name()) {
			return false
		}
	}
	return true
}
