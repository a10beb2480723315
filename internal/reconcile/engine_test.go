package reconcile_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"centrifuge/internal/audio"
	"centrifuge/internal/placement"
	"centrifuge/internal/reconcile"
	"centrifuge/internal/testsupport"
	"centrifuge/internal/validation"
)

const cleanName = "Artist - 1999 - Title [VBR]"

func newEngine(t *testing.T, opts reconcile.Options, reg reconcile.Registry) *reconcile.Engine {
	t.Helper()
	if opts.Workers == 0 {
		opts.Workers = 2
	}
	deps := reconcile.Deps{
		Reader: audio.NewTagReader(),
		Writer: audio.NewTagWriter(),
		Hasher: audio.NewHasher(),
		Oracle: testsupport.NewFakeOracle(),
	}
	if reg != nil {
		deps.Registry = reg
	}
	engine, err := reconcile.New(opts, deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return engine
}

func run(t *testing.T, engine *reconcile.Engine) reconcile.Report {
	t.Helper()
	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func codes(violations []validation.Violation) []validation.Code {
	out := make([]validation.Code, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Code)
	}
	return out
}

func assertDir(t *testing.T, path string, exists bool) {
	t.Helper()
	_, err := os.Stat(path)
	if exists && err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
	if !exists && err == nil {
		t.Fatalf("expected %s to be gone", path)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	deps := reconcile.Deps{Reader: audio.NewTagReader(), Hasher: audio.NewHasher()}
	if _, err := reconcile.New(reconcile.Options{Mode: reconcile.ModeValidate}, deps); err == nil {
		t.Fatal("expected error without scan root")
	}
	if _, err := reconcile.New(reconcile.Options{Mode: "sort", ScanRoot: t.TempDir()}, deps); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := reconcile.New(reconcile.Options{Mode: reconcile.ModeFix, ScanRoot: t.TempDir()}, deps); err == nil {
		t.Fatal("expected error for fix mode without writer")
	}
}

func TestValidateModeLeavesTreeUntouched(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "album")
	testsupport.WriteAlbum(t, dir, "Artist", "Title", "1999", 2, "validate")
	clean := filepath.Join(root, cleanName)
	testsupport.WriteAlbum(t, clean, "Artist", "Title", "1999", 2, "other")

	report := run(t, newEngine(t, reconcile.Options{Mode: reconcile.ModeValidate, ScanRoot: root}, nil))
	if len(report.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report.Entries))
	}
	if report.Entries[0].Path != clean || len(report.Entries[0].Violations) != 0 {
		t.Fatalf("unexpected first entry %+v", report.Entries[0])
	}
	got := codes(report.Entries[1].Violations)
	if !slices.Equal(got, []validation.Code{validation.CodeFolderName}) {
		t.Fatalf("violations = %v", got)
	}
	if report.Entries[1].Destination != dir {
		t.Fatalf("destination = %q", report.Entries[1].Destination)
	}
	assertDir(t, dir, true)
}

func TestReleasesModeSummarizes(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteAlbum(t, filepath.Join(root, cleanName), "Artist", "Title", "1999", 3, "list")

	report := run(t, newEngine(t, reconcile.Options{Mode: reconcile.ModeReleases, ScanRoot: root}, nil))
	if len(report.Entries) != 1 || report.Entries[0].Release == nil {
		t.Fatalf("unexpected report %+v", report)
	}
	summary := *report.Entries[0].Release
	if summary.Artist != "Artist" || summary.Year != "1999" || summary.Tracks != 3 || summary.Encoder != "VBR" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if report.Entries[0].Fingerprint == "" {
		t.Fatal("expected a fingerprint")
	}
}

func TestFixRenamesAndRecordsRelease(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := filepath.Join(testsupport.BaseDir(cfg), "music")
	dir := filepath.Join(root, "album")
	paths := testsupport.WriteAlbum(t, dir, "Artist", "Title", "1999", 2, "fix")
	track := testsupport.AlbumTrack("Artist", "Title", "1999", 2, 2, "fix")
	track.Comment = "Ripped by someone"
	testsupport.WriteMP3(t, paths[1], track)

	opts := reconcile.Options{
		Mode:       reconcile.ModeFix,
		ScanRoot:   root,
		Validation: validation.Options{ForbiddenCommentSubstrings: []string{"ripped by"}},
		Placement:  placement.Options{Root: root},
	}
	report := run(t, newEngine(t, opts, store))
	if len(report.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(report.Entries))
	}
	entry := report.Entries[0]
	wantBefore := []validation.Code{validation.CodeFolderName, validation.CodeCommentSubstring}
	if !slices.Equal(codes(entry.Before), wantBefore) {
		t.Fatalf("before = %v, want %v", codes(entry.Before), wantBefore)
	}
	if len(entry.Violations) != 0 || !entry.FixApplied {
		t.Fatalf("expected a clean fixed release, got %+v", entry)
	}
	want := filepath.Join(root, cleanName)
	if entry.Destination != want || entry.Decision != placement.DecisionSkip {
		t.Fatalf("destination %q decision %s", entry.Destination, entry.Decision)
	}
	assertDir(t, want, true)
	assertDir(t, dir, false)

	entries, err := store.RegistryEntries(context.Background())
	if err != nil {
		t.Fatalf("RegistryEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != want || entries[0].Fingerprint != entry.Fingerprint {
		t.Fatalf("unexpected registry %+v", entries)
	}
}

func TestFixDivertsDuplicates(t *testing.T) {
	base := t.TempDir()
	scan := filepath.Join(base, "incoming")
	library := filepath.Join(base, "library")
	dups := filepath.Join(base, "dups")
	first := filepath.Join(scan, "a", "x")
	second := filepath.Join(scan, "b", "y")
	testsupport.WriteAlbum(t, first, " The Band", "Title", "1999", 2, "same")
	testsupport.WriteAlbum(t, second, "The Band", "Title", "1999", 2, "same")

	opts := reconcile.Options{
		Mode:      reconcile.ModeFix,
		ScanRoot:  scan,
		Placement: placement.Options{Root: library, DuplicateRoot: dups},
	}
	report := run(t, newEngine(t, opts, nil))
	if len(report.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report.Entries))
	}
	primary, dup := report.Entries[0], report.Entries[1]
	if primary.Fingerprint == "" || primary.Fingerprint != dup.Fingerprint {
		t.Fatalf("fingerprints differ: %q vs %q", primary.Fingerprint, dup.Fingerprint)
	}
	if !slices.Contains(codes(primary.Before), validation.CodeArtistWhitespace) {
		t.Fatalf("expected artist whitespace before fixing, got %v", codes(primary.Before))
	}
	const name = "The Band - 1999 - Title [VBR]"
	if primary.Decision != placement.DecisionPlace || primary.Destination != filepath.Join(library, name) {
		t.Fatalf("primary: %+v", primary)
	}
	if dup.Decision != placement.DecisionDuplicate || dup.DuplicateOf != first {
		t.Fatalf("duplicate: %+v", dup)
	}
	if dup.Destination != filepath.Join(dups, name) {
		t.Fatalf("duplicate destination = %q", dup.Destination)
	}
	if len(dup.Plan) == 0 || dup.Plan[len(dup.Plan)-1].To != dup.Destination {
		t.Fatalf("expected the move in the plan: %+v", dup.Plan)
	}
	assertDir(t, filepath.Join(library, name), true)
	assertDir(t, filepath.Join(dups, name), true)
	assertDir(t, filepath.Join(scan, "a"), false)
	assertDir(t, scan, true)
}

func TestFixInPlaceDivertsSiblingDuplicate(t *testing.T) {
	base := t.TempDir()
	scan := filepath.Join(base, "incoming")
	dups := filepath.Join(base, "dups")
	testsupport.WriteAlbum(t, filepath.Join(scan, "x"), "Artist", "Title", "1999", 2, "twin")
	testsupport.WriteAlbum(t, filepath.Join(scan, "y"), "Artist", "Title", "1999", 2, "twin")

	opts := reconcile.Options{
		Mode:      reconcile.ModeFix,
		ScanRoot:  scan,
		Placement: placement.Options{DuplicateRoot: dups},
	}
	report := run(t, newEngine(t, opts, nil))
	if len(report.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report.Entries))
	}
	primary, dup := report.Entries[0], report.Entries[1]
	if primary.Destination != filepath.Join(scan, cleanName) || len(primary.Problems) != 0 {
		t.Fatalf("primary: %+v", primary)
	}
	if dup.Decision != placement.DecisionDuplicate || len(dup.Problems) != 0 {
		t.Fatalf("duplicate: %+v", dup)
	}
	if dup.Destination != filepath.Join(dups, cleanName) {
		t.Fatalf("duplicate destination = %q", dup.Destination)
	}
	assertDir(t, filepath.Join(scan, cleanName), true)
	assertDir(t, filepath.Join(dups, cleanName), true)
	assertDir(t, filepath.Join(scan, "y"), false)
}

func TestFixInPlaceReportsDuplicateWithoutRoot(t *testing.T) {
	scan := t.TempDir()
	testsupport.WriteAlbum(t, filepath.Join(scan, "x"), "Artist", "Title", "1999", 2, "twin")
	testsupport.WriteAlbum(t, filepath.Join(scan, "y"), "Artist", "Title", "1999", 2, "twin")

	report := run(t, newEngine(t, reconcile.Options{Mode: reconcile.ModeFix, ScanRoot: scan}, nil))
	dup := report.Entries[1]
	if dup.Decision != placement.DecisionDuplicate || len(dup.Problems) != 0 {
		t.Fatalf("duplicate: %+v", dup)
	}
	if dup.Destination != filepath.Join(scan, "y") {
		t.Fatalf("duplicate destination = %q", dup.Destination)
	}
	assertDir(t, filepath.Join(scan, "y"), true)
	assertDir(t, filepath.Join(scan, cleanName), true)
}

func TestFixLeavesReleaseWhenPlacementCollides(t *testing.T) {
	base := t.TempDir()
	scan := filepath.Join(base, "incoming")
	library := filepath.Join(base, "library")
	occupant := filepath.Join(library, cleanName, "keep.txt")
	testsupport.WriteFile(t, occupant, 4)
	testsupport.WriteAlbum(t, filepath.Join(scan, "album"), "Artist", "Title", "1999", 2, "clash")

	opts := reconcile.Options{
		Mode:      reconcile.ModeFix,
		ScanRoot:  scan,
		Placement: placement.Options{Root: library},
	}
	report := run(t, newEngine(t, opts, nil))
	entry := report.Entries[0]
	if entry.Decision != placement.DecisionLeave || len(entry.Problems) == 0 {
		t.Fatalf("expected the release left with a problem, got %+v", entry)
	}
	if entry.Destination != filepath.Join(scan, cleanName) {
		t.Fatalf("destination = %q", entry.Destination)
	}
	assertDir(t, filepath.Join(scan, cleanName), true)
	assertDir(t, occupant, true)
}

func TestFixDivertsInvalidRelease(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDiversionRoots(), testsupport.WithForbiddenComments("ripped by"))
	cfg.Placement.MoveInvalid = string(validation.CodeMissingTracks)
	base := testsupport.BaseDir(cfg)
	scan := filepath.Join(base, "incoming")
	dir := filepath.Join(scan, cleanName)
	for _, n := range []int{1, 2, 4} {
		track := testsupport.AlbumTrack("Artist", "Title", "1999", n, 0, "gap")
		testsupport.WriteMP3(t, filepath.Join(dir, track.Title+".mp3"), track)
	}

	opts := reconcile.Options{
		Mode:      reconcile.ModeFix,
		ScanRoot:  scan,
		Placement: placement.OptionsFromConfig(cfg, ""),
		Validation: validation.Options{
			ForbiddenCommentSubstrings: cfg.Validation.ForbiddenCommentSubstrings,
		},
	}
	report := run(t, newEngine(t, opts, nil))
	entry := report.Entries[0]
	if entry.Decision != placement.DecisionInvalid || entry.FixApplied || len(entry.Plan) != 1 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Destination != filepath.Join(cfg.Placement.InvalidDir, cleanName) {
		t.Fatalf("destination = %q", entry.Destination)
	}
	assertDir(t, entry.Destination, true)
	assertDir(t, dir, false)
}

func TestFixDryRunOnlyReports(t *testing.T) {
	base := t.TempDir()
	scan := filepath.Join(base, "incoming")
	library := filepath.Join(base, "library")
	dir := filepath.Join(scan, "album")
	testsupport.WriteAlbum(t, dir, "Artist", "Title", "1999", 2, "dry")

	opts := reconcile.Options{
		Mode:      reconcile.ModeFix,
		ScanRoot:  scan,
		DryRun:    true,
		Placement: placement.Options{Root: library},
	}
	report := run(t, newEngine(t, opts, nil))
	entry := report.Entries[0]
	if entry.FixApplied || entry.Decision != placement.DecisionPlace {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Destination != filepath.Join(library, cleanName) {
		t.Fatalf("destination = %q", entry.Destination)
	}
	assertDir(t, dir, true)
	assertDir(t, library, false)
}

func TestRegistryFlagsEarlierPlacement(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithJSONCache())
	store := testsupport.MustOpenStore(t, cfg)
	base := testsupport.BaseDir(cfg)
	library := filepath.Join(base, "library")
	scan := filepath.Join(base, "scan")

	testsupport.WriteAlbum(t, filepath.Join(scan, "first", cleanName), "Artist", "Title", "1999", 2, "again")
	opts := reconcile.Options{Mode: reconcile.ModeFix, ScanRoot: scan, Placement: placement.Options{Root: library}}
	first := run(t, newEngine(t, opts, store))
	placed := filepath.Join(library, cleanName)
	if first.Entries[0].Decision != placement.DecisionPlace || first.Entries[0].Destination != placed {
		t.Fatalf("first run: %+v", first.Entries[0])
	}

	copyDir := filepath.Join(scan, "second", cleanName)
	testsupport.WriteAlbum(t, copyDir, "Artist", "Title", "1999", 2, "again")
	second := run(t, newEngine(t, opts, store))
	entry := second.Entries[0]
	if entry.DuplicateOf != placed || entry.Decision != placement.DecisionDuplicate {
		t.Fatalf("second run: %+v", entry)
	}
	assertDir(t, copyDir, true)
}

func TestReportJSON(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteAlbum(t, filepath.Join(root, "album"), "Artist", "Title", "1999", 1, "json")
	report := run(t, newEngine(t, reconcile.Options{Mode: reconcile.ModeValidate, ScanRoot: root}, nil))

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded struct {
		Mode     string `json:"mode"`
		Releases []struct {
			Path       string `json:"path"`
			Violations []struct {
				Code string `json:"code"`
			} `json:"violations"`
		} `json:"releases"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Mode != "validate" || len(decoded.Releases) != 1 || len(decoded.Releases[0].Violations) != 1 {
		t.Fatalf("unexpected json %s", buf.String())
	}
	if decoded.Releases[0].Violations[0].Code != string(validation.CodeFolderName) {
		t.Fatalf("code = %s", decoded.Releases[0].Violations[0].Code)
	}
}
