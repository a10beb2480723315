// Package release builds Release models from directories of audio files.
//
// Discover finds leaf release directories, Builder reads their tracks through
// the audio.Reader collaborator, and the naming helpers render the canonical
// folder and file names a release is validated against. Category and source
// are guessed from the path; sibling disc folders can be assembled into one
// container before a scan.
package release
