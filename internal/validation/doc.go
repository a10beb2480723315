// Package validation runs the ordered rule battery against a release.
//
// Each Rule checks one thing and reports at most one Violation. The Registry
// evaluates rules in catalog order, so a Result lists violations in the same
// order on every run given the same tags and the same oracle answers.
package validation
