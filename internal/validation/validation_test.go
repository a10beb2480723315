package validation_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"centrifuge/internal/audio"
	"centrifuge/internal/oracle"
	"centrifuge/internal/release"
	"centrifuge/internal/testsupport"
	"centrifuge/internal/validation"
)

func validate(t *testing.T, rel *release.Release, o validation.Oracle, opts validation.Options) []validation.Code {
	t.Helper()
	return validation.NewRegistry(opts).Validate(context.Background(), rel, o).Codes()
}

func TestCleanReleaseIsValid(t *testing.T) {
	rel := testsupport.CleanRelease(t.TempDir())
	if codes := validate(t, rel, testsupport.NewFakeOracle(), validation.Options{}); len(codes) != 0 {
		t.Fatalf("expected no violations, got %v", codes)
	}
}

func TestMissingTrackScenario(t *testing.T) {
	rel := testsupport.EditTracks(testsupport.CleanRelease(t.TempDir()), func(i int, tr *release.Track) {
		tr.TrackTotal = 0
		if i == 2 {
			tr.TrackNumber = 4
			tr.Title = "Song 4"
			tr.Path = "04 - Song 4.mp3"
		}
	})
	result := validation.NewRegistry(validation.Options{}).Validate(context.Background(), rel, testsupport.NewFakeOracle())
	if got := result.Codes(); !slices.Equal(got, []validation.Code{validation.CodeMissingTracks}) {
		t.Fatalf("expected only missing-tracks, got %v", got)
	}
	if !result.HasFatal() {
		t.Fatal("missing-tracks must be fatal")
	}
}

func TestRegistryOrderMatchesCatalog(t *testing.T) {
	rules := validation.NewRegistry(validation.Options{}).Rules()
	catalog := validation.Catalog()
	if len(rules) != len(catalog) {
		t.Fatalf("expected %d rules, got %d", len(catalog), len(rules))
	}
	for i, rule := range rules {
		if rule.Code() != catalog[i].Code {
			t.Fatalf("rule %d is %s, want %s", i, rule.Code(), catalog[i].Code)
		}
	}
}

func TestViolationsAreOrderedAndDeterministic(t *testing.T) {
	build := func() *release.Release {
		return testsupport.EditTracks(testsupport.CleanRelease(t.TempDir()), func(i int, tr *release.Track) {
			tr.Comment = "Ripped by SomeGroup"
			tr.Genre = "Rock  Pop"
			if i == 1 {
				tr.Date = "2000"
			}
		})
	}
	opts := validation.Options{ForbiddenCommentSubstrings: []string{"somegroup"}}
	first := validate(t, build(), testsupport.NewFakeOracle(), opts)
	second := validate(t, build(), testsupport.NewFakeOracle(), opts)
	want := []validation.Code{
		validation.CodeGenreWhitespace,
		validation.CodeDateInconsistent,
		validation.CodeCommentSubstring,
	}
	if !slices.Equal(first, want) {
		t.Fatalf("got %v, want %v", first, want)
	}
	if !slices.Equal(first, second) {
		t.Fatalf("results differ between runs: %v vs %v", first, second)
	}
}

func TestHygieneRules(t *testing.T) {
	tests := []struct {
		name string
		edit func(i int, tr *release.Track)
		want []validation.Code
	}{
		{
			name: "artist whitespace",
			edit: func(i int, tr *release.Track) { tr.Artist = " Artist" },
			want: []validation.Code{validation.CodeArtistWhitespace},
		},
		{
			name: "release artist whitespace on one track",
			edit: func(i int, tr *release.Track) {
				if i == 0 {
					tr.ReleaseArtist = "Artist "
				}
			},
			want: []validation.Code{validation.CodeReleaseArtistWhitespace},
		},
		{
			name: "track title blank",
			edit: func(i int, tr *release.Track) {
				if i == 0 {
					tr.Title = ""
				}
			},
			want: []validation.Code{validation.CodeTrackTitleBlank},
		},
		{
			name: "release artist blank everywhere",
			edit: func(i int, tr *release.Track) { tr.ReleaseArtist = "" },
			want: []validation.Code{validation.CodeReleaseArtistBlank, validation.CodeFolderName},
		},
		{
			name: "genre inconsistent",
			edit: func(i int, tr *release.Track) {
				if i == 2 {
					tr.Genre = "Jazz"
				}
			},
			want: []validation.Code{validation.CodeGenreInconsistent},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := testsupport.EditTracks(testsupport.CleanRelease(t.TempDir()), tt.edit)
			if got := validate(t, rel, testsupport.NewFakeOracle(), validation.Options{}); !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOracleRules(t *testing.T) {
	tests := []struct {
		name string
		res  oracle.Resolution
		want []validation.Code
	}{
		{"artist spelling", testsupport.Matched("ARTIST", "Title"), []validation.Code{validation.CodeReleaseArtistSpelling}},
		{"title spelling", testsupport.Matched("Artist", "Title!"), []validation.Code{validation.CodeReleaseTitleSpelling}},
		{"artist only skips title", oracle.Resolution{Status: oracle.StatusMatched, Artist: "Artist", ArtistOnly: true}, nil},
		{"not found", oracle.Resolution{Status: oracle.StatusNotFound}, []validation.Code{validation.CodeReleaseArtistNotFound}},
		{"lookup failed", oracle.Resolution{Status: oracle.StatusFailed, Err: errors.New("timeout")}, []validation.Code{validation.CodeArtistLookup}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testsupport.NewFakeOracle().Set("Artist", "Title", tt.res)
			rel := testsupport.CleanRelease(t.TempDir())
			if got := validate(t, rel, o, validation.Options{}); !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if o.Calls() != 1 {
				t.Fatalf("expected one oracle call per release, got %d", o.Calls())
			}
		})
	}
}

func TestOracleRulesSkipVariousArtistsAndNilOracle(t *testing.T) {
	o := testsupport.NewFakeOracle()
	rel := testsupport.EditTracks(testsupport.CleanRelease(t.TempDir()), func(i int, tr *release.Track) {
		tr.ReleaseArtist = release.VariousArtists
	})
	validate(t, rel, o, validation.Options{})
	if o.Calls() != 0 {
		t.Fatalf("various artists releases should not be looked up")
	}
	if got := validate(t, testsupport.CleanRelease(t.TempDir()), nil, validation.Options{}); len(got) != 0 {
		t.Fatalf("nil oracle should skip oracle rules, got %v", got)
	}
}

func TestStructureRules(t *testing.T) {
	tests := []struct {
		name string
		edit func(i int, tr *release.Track)
		want []validation.Code
	}{
		{
			name: "duplicate track",
			edit: func(i int, tr *release.Track) {
				if i == 2 {
					tr.TrackNumber = 2
				}
			},
			want: []validation.Code{validation.CodeDuplicateTracks, validation.CodeFilename},
		},
		{
			name: "wrong total",
			edit: func(i int, tr *release.Track) { tr.TrackTotal = 4 },
			want: []validation.Code{validation.CodeTotalTracks},
		},
		{
			name: "missing disc",
			edit: func(i int, tr *release.Track) { tr.DiscNumber = 2 },
			want: []validation.Code{validation.CodeMissingDiscs},
		},
		{
			name: "wrong disc total",
			edit: func(i int, tr *release.Track) { tr.DiscNumber, tr.DiscTotal = 1, 2 },
			want: []validation.Code{validation.CodeTotalDiscs},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := testsupport.EditTracks(testsupport.CleanRelease(t.TempDir()), tt.edit)
			if got := validate(t, rel, testsupport.NewFakeOracle(), validation.Options{}); !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodingRules(t *testing.T) {
	mixedCodec := testsupport.EditTracks(testsupport.CleanRelease(t.TempDir()), func(i int, tr *release.Track) {
		if i == 0 {
			tr.Codec = audio.CodecFLAC
			tr.BitrateMode = audio.BitrateUnknown
			tr.TagType = "VORBIS"
			tr.Path = "01 - Song 1.flac"
		}
	})
	got := validate(t, mixedCodec, testsupport.NewFakeOracle(), validation.Options{})
	if !slices.Contains(got, validation.CodeCodecsInconsistent) || slices.Contains(got, validation.CodeTagTypes) {
		t.Fatalf("unexpected codes for mixed codecs: %v", got)
	}

	mixedMode := testsupport.EditTracks(testsupport.CleanRelease(t.TempDir()), func(i int, tr *release.Track) {
		if i == 0 {
			tr.BitrateMode = audio.BitrateCBR
			tr.Bitrate = 320
		}
	})
	got = validate(t, mixedMode, testsupport.NewFakeOracle(), validation.Options{})
	if !slices.Equal(got, []validation.Code{validation.CodeCBRInconsistent, validation.CodeFolderName}) {
		t.Fatalf("unexpected codes for mixed modes: %v", got)
	}

	mixedTags := testsupport.EditTracks(testsupport.CleanRelease(t.TempDir()), func(i int, tr *release.Track) {
		if i == 0 {
			tr.TagType = "ID3v2.3"
		}
	})
	got = validate(t, mixedTags, testsupport.NewFakeOracle(), validation.Options{})
	if !slices.Equal(got, []validation.Code{validation.CodeTagTypes}) {
		t.Fatalf("unexpected codes for mixed tag types: %v", got)
	}
}

func TestNamingRules(t *testing.T) {
	rel := testsupport.EditTracks(testsupport.CleanRelease(t.TempDir()), func(i int, tr *release.Track) {
		tr.ReleaseTitle = "Title (EP) [WEB]"
	})
	got := validate(t, rel, testsupport.NewFakeOracle(), validation.Options{})
	want := []validation.Code{validation.CodeReleaseTitleCategory, validation.CodeReleaseTitleSource, validation.CodeFolderName}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	renamed := testsupport.EditTracks(testsupport.CleanRelease(t.TempDir()), func(i int, tr *release.Track) {
		if i == 1 {
			tr.Path = "track2.mp3"
		}
	})
	if got := validate(t, renamed, testsupport.NewFakeOracle(), validation.Options{}); !slices.Equal(got, []validation.Code{validation.CodeFilename}) {
		t.Fatalf("expected filename violation, got %v", got)
	}

	full := testsupport.CleanRelease(t.TempDir())
	if got := validate(t, full, testsupport.NewFakeOracle(), validation.Options{FullCodecNames: true}); !slices.Equal(got, []validation.Code{validation.CodeFolderName}) {
		t.Fatalf("full codec names expect a different folder, got %v", got)
	}
}

func TestUnreadableIsFatal(t *testing.T) {
	rel := testsupport.EditTracks(testsupport.CleanRelease(t.TempDir()), func(i int, tr *release.Track) {
		if i == 0 {
			tr.Unreadable = true
		}
	})
	result := validation.NewRegistry(validation.Options{}).Validate(context.Background(), rel, testsupport.NewFakeOracle())
	if len(result.Violations) == 0 || result.Violations[0].Code != validation.CodeUnreadable || !result.HasFatal() {
		t.Fatalf("expected leading fatal unreadable violation, got %v", result.Codes())
	}
}

func TestParseCode(t *testing.T) {
	if code, err := validation.ParseCode(" Missing-Tracks "); err != nil || code != validation.CodeMissingTracks {
		t.Fatalf("ParseCode = %q, %v", code, err)
	}
	if _, err := validation.ParseCode("nope"); err == nil {
		t.Fatal("expected error for unknown code")
	}
}
