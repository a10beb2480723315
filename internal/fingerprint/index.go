package fingerprint

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// Member is one release path in a collision set.
type Member struct {
	Path string
	// External members come from the registry and are not part of this scan.
	External bool
}

// Group is a collision set of more than one release.
type Group struct {
	Fingerprint string
	Primary     Member
	Members     []Member
}

// Duplicates returns the scanned members that are not the primary.
func (g Group) Duplicates() []string {
	var out []string
	for _, m := range g.Members {
		if m.External || m.Path == g.Primary.Path {
			continue
		}
		out = append(out, m.Path)
	}
	return out
}

// RegistryEntry records a placed primary release from an earlier run.
type RegistryEntry struct {
	Fingerprint string    `json:"fingerprint"`
	Path        string    `json:"path"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Registry is the persisted fingerprint to path record.
type Registry interface {
	RegistryEntries(ctx context.Context) ([]RegistryEntry, error)
}

// Index maps fingerprints to the release paths sharing them. It is safe for
// concurrent use.
type Index struct {
	mu       sync.Mutex
	scanned  map[string]map[string]struct{}
	external map[string]map[string]struct{}
	byPath   map[string]string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		scanned:  make(map[string]map[string]struct{}),
		external: make(map[string]map[string]struct{}),
		byPath:   make(map[string]string),
	}
}

// Add records a scanned release.
func (i *Index) Add(fingerprint, path string) {
	if fingerprint == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	addTo(i.scanned, fingerprint, path)
	i.byPath[path] = fingerprint
	if set, ok := i.external[fingerprint]; ok {
		delete(set, path)
	}
}

// AddExternal records a release known from the registry. Paths that were
// scanned in this run are ignored.
func (i *Index) AddExternal(fingerprint, path string) {
	if fingerprint == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.byPath[path]; ok {
		return
	}
	addTo(i.external, fingerprint, path)
}

func addTo(m map[string]map[string]struct{}, fingerprint, path string) {
	set, ok := m[fingerprint]
	if !ok {
		set = make(map[string]struct{})
		m[fingerprint] = set
	}
	set[path] = struct{}{}
}

// Fingerprint returns the fingerprint recorded for a scanned path.
func (i *Index) Fingerprint(path string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	fp, ok := i.byPath[path]
	return fp, ok
}

// Groups returns every collision set holding more than one release and at
// least one scanned release, ordered by primary path.
func (i *Index) Groups() []Group {
	i.mu.Lock()
	defer i.mu.Unlock()

	var groups []Group
	for fp, scanned := range i.scanned {
		members := make([]Member, 0, len(scanned)+len(i.external[fp]))
		for path := range scanned {
			members = append(members, Member{Path: path})
		}
		for path := range i.external[fp] {
			members = append(members, Member{Path: path, External: true})
		}
		if len(members) < 2 {
			continue
		}
		slices.SortFunc(members, func(a, b Member) int { return strings.Compare(a.Path, b.Path) })
		groups = append(groups, Group{Fingerprint: fp, Primary: members[0], Members: members})
	}
	slices.SortFunc(groups, func(a, b Group) int { return strings.Compare(a.Primary.Path, b.Primary.Path) })
	return groups
}

// DuplicateOf maps every duplicate scanned path to its group's primary path.
func (i *Index) DuplicateOf() map[string]string {
	out := map[string]string{}
	for _, g := range i.Groups() {
		for _, path := range g.Duplicates() {
			out[path] = g.Primary.Path
		}
	}
	return out
}

// MergeRegistry adds registry entries whose path still exists on disk as
// external members. It returns the number merged.
func (i *Index) MergeRegistry(ctx context.Context, reg Registry) (int, error) {
	if reg == nil {
		return 0, nil
	}
	entries, err := reg.RegistryEntries(ctx)
	if err != nil {
		return 0, err
	}
	merged := 0
	for _, entry := range entries {
		info, err := os.Stat(entry.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return merged, err
		}
		if !info.IsDir() {
			continue
		}
		i.mu.Lock()
		_, scanned := i.byPath[entry.Path]
		i.mu.Unlock()
		if scanned {
			continue
		}
		i.AddExternal(entry.Fingerprint, entry.Path)
		merged++
	}
	return merged, nil
}
