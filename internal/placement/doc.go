// Package placement decides where each release belongs and moves it there.
//
// The Planner is pure: it maps a fixed release, its validation result and its
// duplicate status to a Decision and a destination. The Mover performs the
// filesystem side. Moves are serialized process-wide and across processes
// with an advisory lock file in each destination root, never overwrite an
// existing directory, and fall back to a verified copy across filesystems
// only when allowed.
package placement
