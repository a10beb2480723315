package placement_test

import (
	"path/filepath"
	"testing"

	"centrifuge/internal/config"
	"centrifuge/internal/placement"
	"centrifuge/internal/release"
	"centrifuge/internal/testsupport"
	"centrifuge/internal/validation"
)

func violation(code validation.Code) validation.Violation {
	def, _ := validation.Lookup(code)
	return validation.Violation{Code: code, Severity: def.Severity, Fixable: def.Fixable}
}

func TestDestinationLayout(t *testing.T) {
	root := "/music"
	tests := []struct {
		name string
		opts placement.Options
		edit func(rel *release.Release)
		want string
	}{
		{
			name: "flat",
			opts: placement.Options{Root: root},
			want: "/music/Artist - 1999 - Title [VBR]",
		},
		{
			name: "by category and artist",
			opts: placement.Options{Root: root, GroupByCategory: true, GroupByArtist: true, ArtistFolder: config.ArtistFolderName},
			want: "/music/Album/Artist/Artist - 1999 - Title [VBR]",
		},
		{
			name: "artist initial",
			opts: placement.Options{Root: root, GroupByArtist: true, ArtistFolder: config.ArtistFolderInitial},
			want: "/music/A/Artist - 1999 - Title [VBR]",
		},
		{
			name: "category segment for non albums",
			opts: placement.Options{Root: root, GroupByCategory: true},
			edit: func(rel *release.Release) { rel.Category = release.CategoryEP },
			want: "/music/EP/Artist - 1999 - Title [EP] [VBR]",
		},
		{
			name: "various artists get no artist folder",
			opts: placement.Options{Root: root, GroupByArtist: true, ArtistFolder: config.ArtistFolderName},
			edit: func(rel *release.Release) {
				testsupport.EditTracks(rel, func(i int, tr *release.Track) { tr.ReleaseArtist = release.VariousArtists })
			},
			want: "/music/Various Artists - 1999 - Title [VBR]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := testsupport.CleanRelease("/scan")
			if tt.edit != nil {
				tt.edit(rel)
			}
			got, ok := placement.NewPlanner(tt.opts).Destination(rel)
			if !ok || got != tt.want {
				t.Fatalf("Destination = %q, %v; want %q", got, ok, tt.want)
			}
		})
	}
}

func TestPlanDecisions(t *testing.T) {
	opts := placement.Options{
		Root:          "/music",
		DuplicateRoot: "/dupes",
		InvalidRoot:   "/invalid",
		MoveInvalid:   validation.CodeMissingTracks,
	}
	fatal := validation.Result{Violations: []validation.Violation{violation(validation.CodeMissingTracks)}}
	otherFatal := validation.Result{Violations: []validation.Violation{violation(validation.CodeReleaseArtistNotFound)}}
	minor := validation.Result{Violations: []validation.Violation{violation(validation.CodeDateInconsistent)}}

	tests := []struct {
		name     string
		source   string
		result   validation.Result
		dupOf    string
		decision placement.Decision
		dest     string
	}{
		{"valid release placed", "/scan/x", validation.Result{}, "", placement.DecisionPlace, "/music/Artist - 1999 - Title [VBR]"},
		{"selected code diverted", "/scan/x", fatal, "", placement.DecisionInvalid, "/invalid/x"},
		{"other fatal left for review", "/scan/x", otherFatal, "", placement.DecisionReview, ""},
		{"non fatal invalid left", "/scan/x", minor, "", placement.DecisionLeave, ""},
		{"duplicate diverted", "/scan/x", validation.Result{}, "/scan/a", placement.DecisionDuplicate, "/dupes/Artist - 1999 - Title [VBR]"},
		{"invalid duplicate still diverted", "/scan/x", minor, "/scan/a", placement.DecisionDuplicate, "/dupes/Artist - 1999 - Title [VBR]"},
		{"duplicate wins over move-invalid", "/scan/x", fatal, "/scan/a", placement.DecisionDuplicate, "/dupes/Artist - 1999 - Title [VBR]"},
		{"already placed", "/music/Artist - 1999 - Title [VBR]", validation.Result{}, "", placement.DecisionSkip, "/music/Artist - 1999 - Title [VBR]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := testsupport.CleanRelease("/")
			rel.SourceDir = tt.source
			got := placement.NewPlanner(opts).Plan(placement.Input{Release: rel, Result: tt.result, DuplicateOf: tt.dupOf})
			if got.Decision != tt.decision || got.Destination != tt.dest {
				t.Fatalf("Plan = %+v; want %s to %q", got, tt.decision, tt.dest)
			}
		})
	}
}

func TestPlanWithoutRoots(t *testing.T) {
	rel := testsupport.CleanRelease(t.TempDir())
	planner := placement.NewPlanner(placement.Options{})
	if got := planner.Plan(placement.Input{Release: rel}); got.Decision != placement.DecisionSkip || got.Moves() {
		t.Fatalf("expected skip without destination, got %+v", got)
	}
	dup := planner.Plan(placement.Input{Release: rel, DuplicateOf: "/elsewhere"})
	if dup.Decision != placement.DecisionDuplicate || dup.Moves() {
		t.Fatalf("duplicate without root must be reported only, got %+v", dup)
	}
}

func TestGuessGroupByCategory(t *testing.T) {
	base := t.TempDir()
	byCategory := filepath.Join(base, "sorted")
	for _, name := range []string{"Album", "EP"} {
		testsupport.WriteFile(t, filepath.Join(byCategory, name, "x"), 1)
	}
	if !placement.GuessGroupByCategory(byCategory) {
		t.Fatal("expected category layout")
	}
	if !placement.GuessGroupByCategory(filepath.Join(byCategory, "Album")) {
		t.Fatal("a root named after a category is a category layout")
	}
	flat := filepath.Join(base, "flat")
	testsupport.WriteFile(t, filepath.Join(flat, "Artist - 1999 - Title [VBR]", "x"), 1)
	if placement.GuessGroupByCategory(flat) {
		t.Fatal("flat layout misdetected")
	}
}
