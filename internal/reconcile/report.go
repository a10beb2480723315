package reconcile

import (
	"encoding/json"
	"io"

	"centrifuge/internal/fixplan"
	"centrifuge/internal/placement"
	"centrifuge/internal/release"
	"centrifuge/internal/validation"
)

// Summary is the release model condensed for listings.
type Summary struct {
	Artist   string           `json:"artist"`
	Year     string           `json:"year"`
	Title    string           `json:"title"`
	Category release.Category `json:"category"`
	Source   release.Source   `json:"source"`
	Encoder  string           `json:"encoder,omitempty"`
	Tracks   int              `json:"tracks"`
}

func summarize(rel *release.Release, fullCodecNames bool) Summary {
	encoder, _ := rel.EncoderSummary().Name(fullCodecNames)
	return Summary{
		Artist:   rel.Artist,
		Year:     rel.Year,
		Title:    rel.Title,
		Category: rel.Category,
		Source:   rel.Source,
		Encoder:  encoder,
		Tracks:   len(rel.Tracks),
	}
}

// Entry is the outcome for one release.
type Entry struct {
	Path       string                 `json:"path"`
	Release    *Summary               `json:"release,omitempty"`
	Violations []validation.Violation `json:"violations"`
	// Before holds the violations found before fixing, in fix mode.
	Before      []validation.Violation `json:"before,omitempty"`
	FixApplied  bool                   `json:"fix_applied"`
	Plan        []fixplan.Operation    `json:"plan,omitempty"`
	Destination string                 `json:"destination"`
	Decision    placement.Decision     `json:"decision,omitempty"`
	Fingerprint string                 `json:"fingerprint,omitempty"`
	DuplicateOf string                 `json:"duplicate_of,omitempty"`
	// Problems lists hazards that stopped part of the work: collisions,
	// permission errors, locked files.
	Problems []string `json:"problems,omitempty"`
}

// Report collects the entries of a run in source path order.
type Report struct {
	Mode    Mode                `json:"mode"`
	Root    string              `json:"root"`
	Discs   []release.DiscGroup `json:"disc_groups,omitempty"`
	Entries []Entry             `json:"releases"`
}

// Counts tallies entries per decision.
func (r Report) Counts() map[placement.Decision]int {
	out := map[placement.Decision]int{}
	for _, e := range r.Entries {
		if e.Decision != "" {
			out[e.Decision]++
		}
	}
	return out
}

// WriteJSON emits the machine-readable report.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
