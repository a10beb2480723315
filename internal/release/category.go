package release

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Category classifies a release.
type Category string

const (
	CategoryAlbum            Category = "Album"
	CategoryAnthology        Category = "Anthology"
	CategoryBootleg          Category = "Bootleg"
	CategoryCDM              Category = "CDM"
	CategoryCompilation      Category = "Compilation"
	CategoryConcertRecording Category = "Concert Recording"
	CategoryDemo             Category = "Demo"
	CategoryEP               Category = "EP"
	CategoryInterview        Category = "Interview"
	CategoryLiveAlbum        Category = "Live Album"
	CategoryMix              Category = "Mix"
	CategoryMixtape          Category = "Mixtape"
	CategoryRemix            Category = "Remix"
	CategorySingle           Category = "Single"
	CategorySoundtrack       Category = "Soundtrack"
	CategoryVideoGameMusic   Category = "Video Game Music"
)

// Categories lists every category in matching order.
var Categories = []Category{
	CategoryAlbum, CategoryAnthology, CategoryBootleg, CategoryCDM, CategoryCompilation,
	CategoryConcertRecording, CategoryDemo, CategoryEP, CategoryInterview, CategoryLiveAlbum,
	CategoryMix, CategoryMixtape, CategoryRemix, CategorySingle, CategorySoundtrack,
	CategoryVideoGameMusic,
}

// Source is the medium a release was taken from.
type Source string

const (
	SourceCD       Source = "CD"
	SourceWEB      Source = "WEB"
	SourceVinyl    Source = "Vinyl"
	SourceCassette Source = "Cassette"
	SourceDVD      Source = "DVD"
	SourceSACD     Source = "SACD"
	SourceBluRay   Source = "Blu-Ray"
	SourceUnknown  Source = "Unknown"
)

// Sources lists every source in matching order.
var Sources = []Source{
	SourceCD, SourceWEB, SourceVinyl, SourceCassette, SourceDVD, SourceSACD, SourceBluRay, SourceUnknown,
}

// IsCategory reports whether name is exactly a category name.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if string(c) == name {
			return true
		}
	}
	return false
}

var bracketPairs = [][2]string{{"[", "]"}, {"(", ")"}, {"{", "}"}}

// GuessCategory infers a category from the release path, defaulting to Album.
func GuessCategory(path string) Category {
	values := make([]string, len(Categories))
	for i, c := range Categories {
		values[i] = string(c)
	}
	all := func(string) bool { return true }
	notAlbum := func(v string) bool { return v != string(CategoryAlbum) }
	if v, ok := guessFromPath(path, values, all, all, notAlbum, notAlbum); ok {
		return Category(v)
	}
	return CategoryAlbum
}

// GuessSource infers a source from the release path, defaulting to CD.
func GuessSource(path string) Source {
	values := make([]string, len(Sources))
	for i, s := range Sources {
		values[i] = string(s)
	}
	known := func(v string) bool { return v != string(SourceUnknown) }
	notCD := func(v string) bool { return known(v) && v != string(SourceCD) }
	all := func(string) bool { return true }
	if v, ok := guessFromPath(path, values, all, known, known, notCD); ok {
		return Source(v)
	}
	return SourceCD
}

// guessFromPath runs the four checks in order, each limited to the values its
// filter admits: an exact parent directory name, a bracketed marker, a
// trailing or space-delimited word, and a delimited word anywhere.
func guessFromPath(path string, values []string, parents, brackets, words, delimited func(string) bool) (string, bool) {
	path = filepath.Clean(path)
	parts := strings.Split(path, string(filepath.Separator))
	var parentDirs []string
	if len(parts) > 3 {
		parentDirs = append(parentDirs, parts[len(parts)-4:len(parts)-1]...)
	} else {
		parentDirs = append(parentDirs, parts...)
	}
	for i, j := 0, len(parentDirs)-1; i < j; i, j = i+1, j-1 {
		parentDirs[i], parentDirs[j] = parentDirs[j], parentDirs[i]
	}

	for _, v := range values {
		if !parents(v) {
			continue
		}
		for _, dir := range parentDirs {
			if strings.EqualFold(dir, v) {
				return v, true
			}
		}
	}

	folder := strings.ToLower(filepath.Base(path))
	for _, v := range values {
		if !brackets(v) {
			continue
		}
		lower := strings.ToLower(v)
		for _, pair := range bracketPairs {
			if strings.Contains(folder, pair[0]+lower+pair[1]) {
				return v, true
			}
		}
	}

	for _, v := range values {
		if !words(v) {
			continue
		}
		lower := strings.ToLower(v)
		if strings.HasSuffix(folder, " "+lower) || strings.Contains(folder, " "+lower+" ") {
			return v, true
		}
	}

	for _, v := range values {
		if !delimited(v) {
			continue
		}
		pattern := regexp.MustCompile(`(?i)[-_\[{( ]` + regexp.QuoteMeta(v) + `[-_\]}) $]`)
		if pattern.MatchString(folder) {
			return v, true
		}
	}
	return "", false
}
