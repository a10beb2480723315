// Package reconcile wires the engine stages into the three run modes.
//
// Stage one discovers release directories and, on a bounded worker pool,
// builds each release model, fingerprints it and validates it. Stage two runs
// single threaded in source path order: plan fixes, apply them, re-validate,
// decide a placement and move. Every processed release yields one Entry in
// the Report, whatever happened to it.
package reconcile
