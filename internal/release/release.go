package release

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"centrifuge/internal/audio"
)

// VariousArtists is the release artist value for compilations of many artists.
const VariousArtists = "Various Artists"

// Track is one audio file of a release.
type Track struct {
	// Path is relative to the release directory.
	Path          string
	TrackNumber   int
	TrackTotal    int
	DiscNumber    int
	DiscTotal     int
	Title         string
	Artist        string
	ReleaseArtist string
	ReleaseTitle  string
	Date          string
	Genre         string
	Comment       string
	Codec         string
	BitrateMode   audio.BitrateMode
	Bitrate       int
	Duration      time.Duration
	TagType       string
	Unreadable    bool
	ReadError     string
	Raw           map[string]string
}

// Disc returns the disc number, treating an absent tag as disc 1.
func (t Track) Disc() int {
	if t.DiscNumber <= 0 {
		return 1
	}
	return t.DiscNumber
}

// Ext returns the lowercased file extension including the dot.
func (t Track) Ext() string {
	return strings.ToLower(filepath.Ext(t.Path))
}

// Release is one album-equivalent directory of tracks.
type Release struct {
	SourceDir string
	Tracks    []Track
	// Artist, Title and Year are the consensus of the per-track tags.
	Artist     string
	Title      string
	Year       string
	Category   Category
	Source     Source
	Unreadable []string
	NonAudio   []string
}

// Name returns the release directory's base name.
func (r *Release) Name() string {
	return filepath.Base(r.SourceDir)
}

// Clone returns a deep copy that can be mutated independently.
func (r *Release) Clone() *Release {
	if r == nil {
		return nil
	}
	out := *r
	out.Tracks = make([]Track, len(r.Tracks))
	for i, track := range r.Tracks {
		track.Raw = cloneRaw(track.Raw)
		out.Tracks[i] = track
	}
	out.Unreadable = slices.Clone(r.Unreadable)
	out.NonAudio = slices.Clone(r.NonAudio)
	return &out
}

func cloneRaw(raw map[string]string) map[string]string {
	if raw == nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}

// Readable returns the tracks whose tags could be parsed.
func (r *Release) Readable() []Track {
	out := make([]Track, 0, len(r.Tracks))
	for _, track := range r.Tracks {
		if !track.Unreadable {
			out = append(out, track)
		}
	}
	return out
}

// IsVariousArtists reports whether the release collects tracks of many artists.
func (r *Release) IsVariousArtists() bool {
	switch strings.ToLower(strings.TrimSpace(r.Artist)) {
	case "various artists", "various", "va":
		return true
	default:
		return false
	}
}

// Discs returns the distinct disc numbers in ascending order.
func (r *Release) Discs() []int {
	seen := map[int]struct{}{}
	var discs []int
	for _, track := range r.Readable() {
		if _, ok := seen[track.Disc()]; ok {
			continue
		}
		seen[track.Disc()] = struct{}{}
		discs = append(discs, track.Disc())
	}
	slices.Sort(discs)
	return discs
}

// IsMultiDisc reports whether tracks span more than one disc.
func (r *Release) IsMultiDisc() bool {
	return len(r.Discs()) > 1
}

// Declare recomputes the declared artist, title and year from the tracks and
// restores track order.
func (r *Release) Declare() {
	SortTracks(r.Tracks)
	readable := r.Readable()
	r.Artist = Consensus(readable, func(t Track) string { return t.ReleaseArtist })
	r.Title = Consensus(readable, func(t Track) string { return t.ReleaseTitle })
	r.Year = YearOf(Consensus(readable, func(t Track) string { return t.Date }))
}

// SortTracks orders tracks by disc, track number, then path.
func SortTracks(tracks []Track) {
	slices.SortStableFunc(tracks, func(a, b Track) int {
		if a.Disc() != b.Disc() {
			return a.Disc() - b.Disc()
		}
		if a.TrackNumber != b.TrackNumber {
			return a.TrackNumber - b.TrackNumber
		}
		return strings.Compare(a.Path, b.Path)
	})
}

// Consensus returns the most frequent non-blank value. Ties go to the value
// seen first in track order.
func Consensus(tracks []Track, value func(Track) string) string {
	counts := map[string]int{}
	var order []string
	for _, track := range tracks {
		v := value(track)
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	best := ""
	bestCount := 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// Distinct returns the distinct non-blank values in first-seen order.
func Distinct(tracks []Track, value func(Track) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, track := range tracks {
		v := value(track)
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

var yearPattern = regexp.MustCompile(`^\s*(\d{4})`)

// YearOf extracts the leading four digit year from a date tag.
func YearOf(date string) string {
	m := yearPattern.FindStringSubmatch(date)
	if m == nil {
		return ""
	}
	return m[1]
}
