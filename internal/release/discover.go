package release

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"centrifuge/internal/audio"
)

var discFolderPattern = regexp.MustCompile(`(?i)^(?:cd|disc|disk|part)[\s_-]*\d{1,2}\b`)

// IsDiscFolder reports whether a directory name denotes one disc of a release.
func IsDiscFolder(name string) bool {
	return discFolderPattern.MatchString(strings.TrimSpace(name))
}

// Discover returns the leaf release directories under root in sorted order.
// A directory is a release when it directly holds audio files, or when every
// child holding audio is a disc folder. Nothing beneath a release is
// reported separately.
func Discover(root string) ([]string, error) {
	root = filepath.Clean(root)
	direct := map[string]bool{}
	subtree := map[string]bool{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !audio.HasAudioExtension(d.Name()) {
			return nil
		}
		dir := filepath.Dir(path)
		direct[dir] = true
		for p := dir; ; p = filepath.Dir(p) {
			if subtree[p] {
				break
			}
			subtree[p] = true
			if p == root || p == filepath.Dir(p) {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []string
	var visit func(dir string) error
	visit = func(dir string) error {
		if !subtree[dir] {
			return nil
		}
		if direct[dir] {
			out = append(out, dir)
			return nil
		}
		children, err := audioChildren(dir, subtree)
		if err != nil {
			return err
		}
		allDiscs := len(children) > 0
		for _, child := range children {
			if !IsDiscFolder(filepath.Base(child)) {
				allDiscs = false
				break
			}
		}
		if allDiscs {
			out = append(out, dir)
			return nil
		}
		for _, child := range children {
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}
	return out, nil
}

func audioChildren(dir string, subtree map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var children []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		child := filepath.Join(dir, entry.Name())
		if subtree[child] {
			children = append(children, child)
		}
	}
	slices.Sort(children)
	return children, nil
}
