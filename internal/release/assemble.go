package release

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"centrifuge/internal/audio"
)

var (
	discMarkerPattern = regexp.MustCompile(`(?i)( )?([(\[{ ])?(disc|disk|cd|part)( ?)(\d{1,2})([)\]}])?`)
	bracketTagPattern = regexp.MustCompile(` \[\w+\]`)
)

// DiscGroup is a set of sibling disc folders that belong in one container.
type DiscGroup struct {
	Container string
	Discs     []string
	Moved     bool
	Skipped   string
}

// AssembleDiscs groups sibling folders such as "X CD1" and "X CD2" under a
// container "X". Only groups with more than one disc are returned. With apply
// set the container is created and the discs moved into it.
func AssembleDiscs(dirs []string, apply bool) ([]DiscGroup, error) {
	type group struct {
		container string
		discs     map[string]struct{}
	}
	groups := map[string]*group{}
	var order []string

	for _, dir := range dirs {
		parent, folder := filepath.Split(filepath.Clean(dir))
		loc := discMarkerPattern.FindStringSubmatchIndex(folder)
		if loc == nil {
			continue
		}
		if kw := loc[6]; kw > 0 {
			prev := []rune(folder[:kw])
			if r := prev[len(prev)-1]; unicode.IsLetter(r) || unicode.IsDigit(r) {
				continue
			}
		}
		marker := folder[loc[0]:loc[1]]
		name := strings.TrimSpace(strings.ReplaceAll(folder, marker, ""))
		name = bracketTagPattern.ReplaceAllString(name, "")
		if name == "" {
			continue
		}
		container := filepath.Join(parent, name)
		key := strings.ToLower(container)
		g, ok := groups[key]
		if !ok {
			g = &group{container: container, discs: map[string]struct{}{}}
			groups[key] = g
			order = append(order, key)
		}
		g.discs[folder] = struct{}{}
	}

	var out []DiscGroup
	var errs []error
	for _, key := range order {
		g := groups[key]
		if len(g.discs) < 2 {
			continue
		}
		dg := DiscGroup{Container: g.container}
		for disc := range g.discs {
			dg.Discs = append(dg.Discs, disc)
		}
		slices.Sort(dg.Discs)
		if apply {
			if err := moveDiscs(&dg); err != nil {
				errs = append(errs, err)
			}
		}
		out = append(out, dg)
	}
	return out, errors.Join(errs...)
}

func moveDiscs(dg *DiscGroup) error {
	info, err := os.Stat(dg.Container)
	switch {
	case err == nil && !info.IsDir():
		dg.Skipped = "container path exists and is not a directory"
		return nil
	case err == nil:
		entries, err := os.ReadDir(dg.Container)
		if err != nil {
			return fmt.Errorf("read container %s: %w", dg.Container, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && audio.HasAudioExtension(entry.Name()) {
				dg.Skipped = "container path is already a release"
				return nil
			}
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dg.Container, 0o755); err != nil {
			return fmt.Errorf("create container %s: %w", dg.Container, err)
		}
	default:
		return fmt.Errorf("stat container %s: %w", dg.Container, err)
	}

	parent := filepath.Dir(dg.Container)
	for _, disc := range dg.Discs {
		target := filepath.Join(dg.Container, disc)
		if _, err := os.Lstat(target); err == nil {
			return fmt.Errorf("disc folder %s already exists", target)
		}
		if err := os.Rename(filepath.Join(parent, disc), target); err != nil {
			return fmt.Errorf("move disc %s: %w", disc, err)
		}
	}
	dg.Moved = true
	return nil
}
