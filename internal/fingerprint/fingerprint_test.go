package fingerprint_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"centrifuge/internal/fingerprint"
	"centrifuge/internal/release"
)

// contentHasher stands in for the payload hasher: it digests only the
// "payload" portion after the first newline so tag-like headers are ignored.
type contentHasher struct{}

func (contentHasher) PayloadHash(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for i, b := range data {
		if b == '\n' {
			return string(data[i+1:]), nil
		}
	}
	return string(data), nil
}

func writeTrack(t *testing.T, dir, name, header, payload string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(header+"\n"+payload), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func releaseOf(dir string, tracks ...release.Track) *release.Release {
	rel := &release.Release{SourceDir: dir, Tracks: tracks}
	rel.Declare()
	return rel
}

func TestComputeIgnoresTagsAndNames(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	writeTrack(t, a, "01.mp3", " The Band", "payload-1")
	writeTrack(t, a, "02.mp3", " The Band", "payload-2")
	writeTrack(t, b, "01 - One.mp3", "The Band", "payload-1")
	writeTrack(t, b, "02 - Two.mp3", "The Band", "payload-2")

	relA := releaseOf(a,
		release.Track{Path: "01.mp3", TrackNumber: 1, Artist: " The Band"},
		release.Track{Path: "02.mp3", TrackNumber: 2, Artist: " The Band"})
	relB := releaseOf(b,
		release.Track{Path: "02 - Two.mp3", TrackNumber: 2, Artist: "The Band"},
		release.Track{Path: "01 - One.mp3", TrackNumber: 1, Artist: "The Band"})

	ctx := context.Background()
	fpA, err := fingerprint.Compute(ctx, relA, contentHasher{})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	fpB, err := fingerprint.Compute(ctx, relB, contentHasher{})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if fpA == "" || fpA != fpB {
		t.Fatalf("expected equal fingerprints, got %q and %q", fpA, fpB)
	}

	relB.Tracks[0].TrackNumber, relB.Tracks[1].TrackNumber = 2, 1
	reordered, err := fingerprint.Compute(ctx, relB, contentHasher{})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if reordered == fpA {
		t.Fatal("expected track order to change the fingerprint")
	}
}

func TestComputeHashesUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	writeTrack(t, dir, "bad.mp3", "junk", "junk")
	rel := releaseOf(dir, release.Track{Path: "bad.mp3", Unreadable: true})
	fp, err := fingerprint.Compute(context.Background(), rel, contentHasher{})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if fp == "" {
		t.Fatal("expected a fingerprint for unreadable tracks")
	}
}

func TestGroupsNominateSmallestPath(t *testing.T) {
	idx := fingerprint.NewIndex()
	idx.Add("fp1", "/music/b")
	idx.Add("fp1", "/music/a")
	idx.Add("fp1", "/music/c")
	idx.Add("fp2", "/music/solo")

	groups := idx.Groups()
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %+v", groups)
	}
	g := groups[0]
	if g.Primary.Path != "/music/a" {
		t.Fatalf("unexpected primary %q", g.Primary.Path)
	}
	dups := g.Duplicates()
	if len(dups) != 2 || dups[0] != "/music/b" || dups[1] != "/music/c" {
		t.Fatalf("unexpected duplicates %v", dups)
	}
}

func TestGroupsIndependentOfScanOrder(t *testing.T) {
	paths := []string{"/m/z", "/m/y", "/m/x"}
	first := fingerprint.NewIndex()
	second := fingerprint.NewIndex()
	for i := range paths {
		first.Add("fp", paths[i])
		second.Add("fp", paths[len(paths)-1-i])
	}
	a, b := first.DuplicateOf(), second.DuplicateOf()
	if len(a) != 2 || a["/m/y"] != "/m/x" || a["/m/z"] != "/m/x" {
		t.Fatalf("unexpected duplicates %v", a)
	}
	for k, v := range a {
		if b[k] != v {
			t.Fatalf("scan order changed result: %v vs %v", a, b)
		}
	}
}

func TestIndexConcurrentAdd(t *testing.T) {
	idx := fingerprint.NewIndex()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx.Add(fmt.Sprintf("fp%d", i%5), fmt.Sprintf("/music/%02d", i))
		}(i)
	}
	wg.Wait()
	groups := idx.Groups()
	if len(groups) != 5 {
		t.Fatalf("expected 5 groups, got %d", len(groups))
	}
	for _, g := range groups {
		if len(g.Members) != 10 {
			t.Fatalf("expected 10 members, got %d", len(g.Members))
		}
	}
}

type fakeRegistry []fingerprint.RegistryEntry

func (f fakeRegistry) RegistryEntries(context.Context) ([]fingerprint.RegistryEntry, error) {
	return f, nil
}

func TestMergeRegistryAddsExistingExternalMembers(t *testing.T) {
	library := t.TempDir()
	placed := filepath.Join(library, "Artist - 1999 - Title [VBR]")
	if err := os.MkdirAll(placed, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	scanned := filepath.Join(library, "zz-incoming")

	idx := fingerprint.NewIndex()
	idx.Add("fp", scanned)
	reg := fakeRegistry{
		{Fingerprint: "fp", Path: placed},
		{Fingerprint: "fp", Path: filepath.Join(library, "gone")},
		{Fingerprint: "fp", Path: scanned},
	}
	merged, err := idx.MergeRegistry(context.Background(), reg)
	if err != nil {
		t.Fatalf("MergeRegistry failed: %v", err)
	}
	if merged != 1 {
		t.Fatalf("expected 1 merged entry, got %d", merged)
	}
	groups := idx.Groups()
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %+v", groups)
	}
	g := groups[0]
	if g.Primary.Path != placed || !g.Primary.External {
		t.Fatalf("expected external primary, got %+v", g.Primary)
	}
	if dups := g.Duplicates(); len(dups) != 1 || dups[0] != scanned {
		t.Fatalf("unexpected duplicates %v", dups)
	}
}
