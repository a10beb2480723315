package fixplan

import (
	"context"
	"path/filepath"

	"centrifuge/internal/audio"
	"centrifuge/internal/release"
	"centrifuge/internal/textutil"
	"centrifuge/internal/validation"
)

var whitespaceFields = []struct {
	code  validation.Code
	field audio.Field
}{
	{validation.CodeArtistWhitespace, audio.FieldArtist},
	{validation.CodeReleaseArtistWhitespace, audio.FieldReleaseArtist},
	{validation.CodeReleaseTitleWhitespace, audio.FieldReleaseTitle},
	{validation.CodeTrackTitleWhitespace, audio.FieldTitle},
	{validation.CodeDateWhitespace, audio.FieldDate},
	{validation.CodeGenreWhitespace, audio.FieldGenre},
}

// Compute derives the plan for the fixable violations in result. A result
// holding any fatal violation yields an empty plan. o may be nil, in which
// case spelling corrections are not planned.
func Compute(ctx context.Context, rel *release.Release, result validation.Result, o validation.Oracle, opts validation.Options) Plan {
	if rel == nil || result.HasFatal() {
		return Plan{}
	}
	ed := newEditor(rel)
	ed.trimWhitespace(result)
	filled := ed.fillReleaseArtist(result)
	ed.correctSpelling(ctx, result, o, filled)
	ed.fixTotals(result)
	ed.stripMarkers(result)
	ed.clearComments(result, opts.ForbiddenCommentSubstrings)

	plan := Plan{Ops: ed.tagOps(rel)}
	if result.Has(validation.CodeTagTypes) {
		plan.Ops = append(plan.Ops, rewriteOps(rel)...)
	}
	sim := Simulate(rel, plan)
	plan.Ops = append(plan.Ops, renameOps(sim, opts.FullCodecNames)...)
	return plan
}

// editor mutates a working copy of the release and remembers which code
// caused each field change.
type editor struct {
	sim     *release.Release
	reasons map[string]map[audio.Field]validation.Code
}

func newEditor(rel *release.Release) *editor {
	return &editor{sim: rel.Clone(), reasons: map[string]map[audio.Field]validation.Code{}}
}

func (e *editor) set(t *release.Track, f audio.Field, v string, reason validation.Code) {
	if getField(*t, f) == v {
		return
	}
	setField(t, f, v)
	if e.reasons[t.Path] == nil {
		e.reasons[t.Path] = map[audio.Field]validation.Code{}
	}
	e.reasons[t.Path][f] = reason
}

func (e *editor) each(fn func(t *release.Track)) {
	for i := range e.sim.Tracks {
		if !e.sim.Tracks[i].Unreadable {
			fn(&e.sim.Tracks[i])
		}
	}
}

func (e *editor) trimWhitespace(result validation.Result) {
	for _, w := range whitespaceFields {
		if !result.Has(w.code) {
			continue
		}
		e.each(func(t *release.Track) {
			if v := getField(*t, w.field); textutil.HasStrayWhitespace(v) {
				e.set(t, w.field, textutil.CollapseSpace(v), w.code)
			}
		})
	}
	e.sim.Declare()
}

// fillReleaseArtist sets a blank release artist from the track artists: the
// single artist when they agree, Various Artists otherwise.
func (e *editor) fillReleaseArtist(result validation.Result) bool {
	if !result.Has(validation.CodeReleaseArtistBlank) {
		return false
	}
	artists := release.Distinct(e.sim.Readable(), func(t release.Track) string {
		return textutil.CollapseSpace(t.Artist)
	})
	var value string
	switch len(artists) {
	case 0:
		return false
	case 1:
		value = artists[0]
	default:
		value = release.VariousArtists
	}
	e.each(func(t *release.Track) {
		e.set(t, audio.FieldReleaseArtist, value, validation.CodeReleaseArtistBlank)
	})
	e.sim.Declare()
	return true
}

// correctSpelling asks the oracle about the edited release. A freshly filled
// release artist is checked too, so the result of the plan validates clean.
func (e *editor) correctSpelling(ctx context.Context, result validation.Result, o validation.Oracle, filled bool) {
	wantArtist := filled || result.Has(validation.CodeReleaseArtistSpelling)
	wantTitle := filled || result.Has(validation.CodeReleaseTitleSpelling)
	if !wantArtist && !wantTitle {
		return
	}
	res, ok := validation.Resolve(ctx, e.sim, o)
	if !ok {
		return
	}
	if artist, bad := validation.ArtistCorrection(e.sim, res); bad && wantArtist {
		e.each(func(t *release.Track) {
			e.set(t, audio.FieldReleaseArtist, artist, validation.CodeReleaseArtistSpelling)
		})
	}
	if title, bad := validation.TitleCorrection(e.sim, res); bad && wantTitle {
		e.each(func(t *release.Track) {
			e.set(t, audio.FieldReleaseTitle, title, validation.CodeReleaseTitleSpelling)
		})
	}
	e.sim.Declare()
}

func (e *editor) fixTotals(result validation.Result) {
	if result.Has(validation.CodeTotalTracks) {
		counts := validation.TracksPerDisc(e.sim)
		e.each(func(t *release.Track) {
			if t.TrackTotal > 0 && t.TrackTotal != counts[t.Disc()] {
				e.set(t, audio.FieldTrack, formatPair(t.TrackNumber, counts[t.Disc()]), validation.CodeTotalTracks)
			}
		})
	}
	if result.Has(validation.CodeTotalDiscs) {
		discs := len(e.sim.Discs())
		e.each(func(t *release.Track) {
			if t.DiscTotal > 0 && t.DiscTotal != discs {
				e.set(t, audio.FieldDisc, formatPair(t.Disc(), discs), validation.CodeTotalDiscs)
			}
		})
	}
}

func (e *editor) stripMarkers(result validation.Result) {
	strips := []struct {
		code  validation.Code
		strip func(string) (string, []string)
	}{
		{validation.CodeReleaseTitleCategory, release.StripCategoryMarker},
		{validation.CodeReleaseTitleSource, release.StripSourceMarker},
	}
	for _, s := range strips {
		if !result.Has(s.code) {
			continue
		}
		e.each(func(t *release.Track) {
			if stripped, found := s.strip(t.ReleaseTitle); len(found) > 0 {
				e.set(t, audio.FieldReleaseTitle, stripped, s.code)
			}
		})
	}
	e.sim.Declare()
}

func (e *editor) clearComments(result validation.Result, substrings []string) {
	if !result.Has(validation.CodeCommentSubstring) {
		return
	}
	e.each(func(t *release.Track) {
		if _, found := validation.ForbiddenSubstring(t.Comment, substrings); found {
			e.set(t, audio.FieldComment, "", validation.CodeCommentSubstring)
		}
	})
}

// tagOps diffs the working copy against rel in track order.
func (e *editor) tagOps(rel *release.Release) []Operation {
	edited := make(map[string]release.Track, len(e.sim.Tracks))
	for _, t := range e.sim.Tracks {
		edited[t.Path] = t
	}
	var ops []Operation
	for _, before := range rel.Tracks {
		after, ok := edited[before.Path]
		if !ok || before.Unreadable {
			continue
		}
		for _, f := range fieldOrder {
			reason, changed := e.reasons[before.Path][f]
			if !changed || getField(before, f) == getField(after, f) {
				continue
			}
			ops = append(ops, Operation{
				Kind:   KindSetTag,
				File:   before.Path,
				Field:  f,
				Value:  getField(after, f),
				Reason: reason,
			})
		}
	}
	return ops
}

func rewriteOps(rel *release.Release) []Operation {
	var ops []Operation
	for _, t := range rel.Readable() {
		if t.Codec == audio.CodecMP3 && t.TagType != audio.TagTypeID3v24 {
			ops = append(ops, Operation{Kind: KindRewriteTags, File: t.Path, Reason: validation.CodeTagTypes})
		}
	}
	return ops
}

// renameOps derives file and folder renames from the post-edit release.
// Files land in the release root; disc subfolders are emptied.
func renameOps(sim *release.Release, fullCodecNames bool) []Operation {
	var ops []Operation
	names := sim.FileNames()
	for _, t := range sim.Readable() {
		want, ok := names[t.Path]
		if !ok || want == t.Path {
			continue
		}
		ops = append(ops, Operation{Kind: KindRenameFile, From: t.Path, To: want, Reason: validation.CodeFilename})
	}
	if want, ok := sim.FolderName(fullCodecNames); ok && want != sim.Name() {
		ops = append(ops, Operation{
			Kind:   KindRenameDir,
			From:   sim.SourceDir,
			To:     filepath.Join(filepath.Dir(sim.SourceDir), want),
			Reason: validation.CodeFolderName,
		})
	}
	return ops
}
