package placement

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"centrifuge/internal/config"
	"centrifuge/internal/release"
	"centrifuge/internal/textutil"
	"centrifuge/internal/validation"
)

// Decision is the placement verdict for one release.
type Decision string

const (
	DecisionPlace     Decision = "place"
	DecisionDuplicate Decision = "duplicate"
	DecisionInvalid   Decision = "invalid"
	DecisionReview    Decision = "review"
	DecisionLeave     Decision = "leave"
	DecisionSkip      Decision = "skip"
)

// Options configures the layout.
type Options struct {
	// Root receives valid releases. Empty leaves them where they are.
	Root            string
	DuplicateRoot   string
	InvalidRoot     string
	MoveInvalid     validation.Code
	GroupByCategory bool
	GroupByArtist   bool
	ArtistFolder    string
	FullCodecNames  bool
}

// OptionsFromConfig maps the placement and validation sections onto Options.
// root is the destination for valid releases.
func OptionsFromConfig(cfg *config.Config, root string) Options {
	return Options{
		Root:            root,
		DuplicateRoot:   cfg.Placement.DuplicateDir,
		InvalidRoot:     cfg.Placement.InvalidDir,
		MoveInvalid:     validation.Code(cfg.Placement.MoveInvalid),
		GroupByCategory: cfg.Placement.GroupByCategory,
		GroupByArtist:   cfg.Placement.GroupByArtist,
		ArtistFolder:    cfg.Placement.ArtistFolder,
		FullCodecNames:  cfg.Validation.FullCodecNames,
	}
}

// Input is what the planner needs to know about a release after fixing.
type Input struct {
	Release *release.Release
	Result  validation.Result
	// DuplicateOf is the primary's path when this release is a duplicate.
	DuplicateOf string
}

// Placement is the planned outcome for one release.
type Placement struct {
	Decision    Decision `json:"decision"`
	Source      string   `json:"source"`
	Destination string   `json:"destination,omitempty"`
	// Root is the directory tree the destination lives in.
	Root   string `json:"-"`
	Reason string `json:"reason,omitempty"`
}

// Moves reports whether the placement relocates the release.
func (p Placement) Moves() bool {
	return p.Destination != "" && p.Destination != p.Source
}

// Planner computes placements.
type Planner struct {
	opts Options
}

// NewPlanner constructs a planner.
func NewPlanner(opts Options) *Planner {
	return &Planner{opts: opts}
}

// Destination returns the canonical location of a valid release under
// Root. It reports false when no root is configured or the folder name
// cannot be computed.
func (p *Planner) Destination(rel *release.Release) (string, bool) {
	if p.opts.Root == "" {
		return "", false
	}
	name, ok := rel.FolderName(p.opts.FullCodecNames)
	if !ok {
		return "", false
	}
	parts := []string{p.opts.Root}
	if p.opts.GroupByCategory {
		category := rel.Category
		if category == "" {
			category = release.CategoryAlbum
		}
		parts = append(parts, string(category))
	}
	if p.opts.GroupByArtist && !rel.IsVariousArtists() {
		if folder := p.artistFolder(rel.Artist); folder != "" {
			parts = append(parts, folder)
		}
	}
	parts = append(parts, name)
	return filepath.Join(parts...), true
}

func (p *Planner) artistFolder(artist string) string {
	name := textutil.SanitizeFileName(artist)
	if name == "" || p.opts.ArtistFolder != config.ArtistFolderInitial {
		return name
	}
	folded := textutil.Fold(name)
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r):
			return strings.ToUpper(string(r))
		case unicode.IsDigit(r):
			return "0-9"
		}
	}
	return "#"
}

// Plan decides what happens to in.Release. Duplicates are decided first:
// they are diverted (or reported) whatever their violations, since fixing
// a duplicate would only collide with its primary.
func (p *Planner) Plan(in Input) Placement {
	rel := in.Release
	out := Placement{Source: rel.SourceDir}
	divert := p.opts.MoveInvalid != "" && p.opts.InvalidRoot != "" && in.Result.Has(p.opts.MoveInvalid)

	switch {
	case in.DuplicateOf != "":
		out.Decision = DecisionDuplicate
		out.Reason = "duplicate of " + in.DuplicateOf
		if p.opts.DuplicateRoot != "" {
			out.Root = p.opts.DuplicateRoot
			out.Destination = filepath.Join(p.opts.DuplicateRoot, p.divertedName(rel))
		}
	case !in.Result.Valid() && divert:
		out.Decision = DecisionInvalid
		out.Root = p.opts.InvalidRoot
		out.Destination = filepath.Join(p.opts.InvalidRoot, rel.Name())
		out.Reason = string(p.opts.MoveInvalid)
	case in.Result.HasFatal():
		out.Decision = DecisionReview
		out.Reason = "fatal violations need manual handling"
	case !in.Result.Valid():
		out.Decision = DecisionLeave
		out.Reason = fmt.Sprintf("%d violations remain", len(in.Result.Violations))
	default:
		dest, ok := p.Destination(rel)
		if !ok {
			out.Decision = DecisionSkip
			out.Reason = "no destination root"
			return out
		}
		if filepath.Clean(dest) == filepath.Clean(rel.SourceDir) {
			out.Decision = DecisionSkip
			out.Reason = "already at destination"
			out.Destination = dest
			return out
		}
		out.Decision = DecisionPlace
		out.Root = p.opts.Root
		out.Destination = dest
	}
	return out
}

// divertedName is the canonical folder name when one can be computed,
// otherwise the current one.
func (p *Planner) divertedName(rel *release.Release) string {
	if name, ok := rel.FolderName(p.opts.FullCodecNames); ok {
		return name
	}
	return rel.Name()
}
