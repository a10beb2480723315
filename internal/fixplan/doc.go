// Package fixplan turns the fixable violations of a release into an ordered,
// idempotent list of operations and applies them.
//
// Compute never touches the disk. Simulate replays a plan on a copy of the
// release model, which is how renames are derived from the post-edit state
// and how idempotence is checked: planning against a simulated release
// yields an empty plan. Apply executes tag writes, then file renames, then
// the folder rename, and reports every hazard instead of failing the run.
package fixplan
