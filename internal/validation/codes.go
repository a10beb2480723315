package validation

import (
	"fmt"
	"strings"
)

// Code identifies one failed check.
type Code string

const (
	CodeUnreadable                Code = "unreadable"
	CodeArtistWhitespace          Code = "artist-whitespace"
	CodeReleaseArtistWhitespace   Code = "release-artist-whitespace"
	CodeReleaseTitleWhitespace    Code = "release-title-whitespace"
	CodeTrackTitleWhitespace      Code = "track-title-whitespace"
	CodeDateWhitespace            Code = "date-whitespace"
	CodeGenreWhitespace           Code = "genre-whitespace"
	CodeArtistBlank               Code = "artist-blank"
	CodeReleaseArtistBlank        Code = "release-artist-blank"
	CodeReleaseTitleBlank         Code = "release-title-blank"
	CodeTrackTitleBlank           Code = "track-title-blank"
	CodeDateBlank                 Code = "date-blank"
	CodeReleaseArtistInconsistent Code = "release-artist-inconsistent"
	CodeReleaseTitleInconsistent  Code = "release-title-inconsistent"
	CodeDateInconsistent          Code = "date-inconsistent"
	CodeGenreInconsistent         Code = "genre-inconsistent"
	CodeReleaseArtistSpelling     Code = "release-artist-spelling"
	CodeReleaseTitleSpelling      Code = "release-title-spelling"
	CodeReleaseArtistNotFound     Code = "release-artist-not-found"
	CodeArtistLookup              Code = "artist-lookup"
	CodeDuplicateTracks           Code = "duplicate-tracks"
	CodeMissingTracks             Code = "missing-tracks"
	CodeTotalTracks               Code = "total-tracks"
	CodeMissingDiscs              Code = "missing-discs"
	CodeTotalDiscs                Code = "total-discs"
	CodeCodecsInconsistent        Code = "codecs-inconsistent"
	CodeCBRInconsistent           Code = "cbr-inconsistent"
	CodeTagTypes                  Code = "tag-types"
	CodeReleaseTitleCategory      Code = "release-title-category"
	CodeReleaseTitleSource        Code = "release-title-source"
	CodeFilename                  Code = "filename"
	CodeFolderName                Code = "folder-name"
	CodeCommentSubstring          Code = "comment-substring"
)

// Severity says whether a violation blocks automatic handling.
type Severity string

const (
	// SeverityFatal routes the release to manual review.
	SeverityFatal Severity = "fatal"
	SeverityError Severity = "error"
)

// Definition describes a code.
type Definition struct {
	Code     Code
	Severity Severity
	Fixable  bool
}

// catalog is the evaluation order.
var catalog = []Definition{
	{CodeUnreadable, SeverityFatal, false},
	{CodeArtistWhitespace, SeverityError, true},
	{CodeReleaseArtistWhitespace, SeverityError, true},
	{CodeReleaseTitleWhitespace, SeverityError, true},
	{CodeTrackTitleWhitespace, SeverityError, true},
	{CodeDateWhitespace, SeverityError, true},
	{CodeGenreWhitespace, SeverityError, true},
	{CodeArtistBlank, SeverityError, false},
	{CodeReleaseArtistBlank, SeverityError, true},
	{CodeReleaseTitleBlank, SeverityFatal, false},
	{CodeTrackTitleBlank, SeverityError, false},
	{CodeDateBlank, SeverityError, false},
	{CodeReleaseArtistInconsistent, SeverityError, false},
	{CodeReleaseTitleInconsistent, SeverityError, false},
	{CodeDateInconsistent, SeverityError, false},
	{CodeGenreInconsistent, SeverityError, false},
	{CodeReleaseArtistSpelling, SeverityError, true},
	{CodeReleaseTitleSpelling, SeverityError, true},
	{CodeReleaseArtistNotFound, SeverityFatal, false},
	{CodeArtistLookup, SeverityError, false},
	{CodeDuplicateTracks, SeverityFatal, false},
	{CodeMissingTracks, SeverityFatal, false},
	{CodeTotalTracks, SeverityError, true},
	{CodeMissingDiscs, SeverityFatal, false},
	{CodeTotalDiscs, SeverityError, true},
	{CodeCodecsInconsistent, SeverityError, false},
	{CodeCBRInconsistent, SeverityError, false},
	{CodeTagTypes, SeverityError, true},
	{CodeReleaseTitleCategory, SeverityError, true},
	{CodeReleaseTitleSource, SeverityError, true},
	{CodeFilename, SeverityError, true},
	{CodeFolderName, SeverityError, true},
	{CodeCommentSubstring, SeverityError, true},
}

var byCode = func() map[Code]Definition {
	m := make(map[Code]Definition, len(catalog))
	for _, def := range catalog {
		m[def.Code] = def
	}
	return m
}()

// Catalog returns every code definition in evaluation order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the definition of code.
func Lookup(code Code) (Definition, bool) {
	def, ok := byCode[code]
	return def, ok
}

// ParseCode validates a user-supplied code name.
func ParseCode(value string) (Code, error) {
	code := Code(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := byCode[code]; !ok {
		names := make([]string, len(catalog))
		for i, def := range catalog {
			names[i] = string(def.Code)
		}
		return "", fmt.Errorf("unknown violation code %q (valid: %s)", value, strings.Join(names, ", "))
	}
	return code, nil
}
