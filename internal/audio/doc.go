// Package audio is the tag reader/writer collaborator.
//
// TagReader extracts the per-file attribute set (tags, codec, bitrate mode,
// duration, tag container) using dhowden/tag, with TagLib as the fallback for
// containers dhowden cannot parse. TagWriter edits ID3 tags through
// bogem/id3v2 and every other container through TagLib. Hasher produces the
// tag-independent payload digest used for release fingerprints.
package audio
