package fixplan

import (
	"centrifuge/internal/audio"
	"centrifuge/internal/release"
)

// Simulate applies plan to a copy of rel and returns the copy. rel is not
// modified.
func Simulate(rel *release.Release, plan Plan) *release.Release {
	out := rel.Clone()
	if out == nil {
		return nil
	}
	index := make(map[string]int, len(out.Tracks))
	for i, t := range out.Tracks {
		index[t.Path] = i
	}
	for _, op := range plan.Ops {
		switch op.Kind {
		case KindSetTag:
			if i, ok := index[op.File]; ok {
				setField(&out.Tracks[i], op.Field, op.Value)
			}
		case KindRewriteTags:
			if i, ok := index[op.File]; ok && out.Tracks[i].Codec == audio.CodecMP3 {
				out.Tracks[i].TagType = audio.TagTypeID3v24
			}
		case KindRenameFile:
			if i, ok := index[op.From]; ok {
				delete(index, op.From)
				out.Tracks[i].Path = op.To
				index[op.To] = i
			}
		case KindRenameDir, KindMoveDir:
			out.SourceDir = op.To
		}
	}
	out.Declare()
	return out
}
