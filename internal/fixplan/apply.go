package fixplan

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"centrifuge/internal/audio"
	"centrifuge/internal/fileutil"
	"centrifuge/internal/release"
)

// Outcome is what happened to one operation.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeDryRun     Outcome = "dry-run"
	OutcomeCollision  Outcome = "collision"
	OutcomePermission Outcome = "permission"
	OutcomeLocked     Outcome = "locked"
	OutcomeFailed     Outcome = "failed"
)

// Step records the outcome of one operation.
type Step struct {
	Op      Operation `json:"op"`
	Outcome Outcome   `json:"outcome"`
	Error   string    `json:"error,omitempty"`
}

// ApplyReport summarizes an Apply call. Dir is where the release lives
// afterwards.
type ApplyReport struct {
	Dir    string `json:"dir"`
	Steps  []Step `json:"steps"`
	Locked bool   `json:"locked,omitempty"`
}

// Complete reports whether every operation was applied.
func (r ApplyReport) Complete() bool {
	if r.Locked {
		return false
	}
	for _, s := range r.Steps {
		if s.Outcome != OutcomeApplied {
			return false
		}
	}
	return true
}

// Problems returns the steps that were not applied, dry-run aside.
func (r ApplyReport) Problems() []Step {
	var out []Step
	for _, s := range r.Steps {
		if s.Outcome != OutcomeApplied && s.Outcome != OutcomeDryRun {
			out = append(out, s)
		}
	}
	return out
}

func (r *ApplyReport) record(op Operation, err error) {
	step := Step{Op: op, Outcome: OutcomeApplied}
	if err != nil {
		step.Outcome = classify(err)
		step.Error = err.Error()
	}
	r.Steps = append(r.Steps, step)
}

func classify(err error) Outcome {
	switch {
	case errors.Is(err, fs.ErrExist):
		return OutcomeCollision
	case errors.Is(err, fs.ErrPermission):
		return OutcomePermission
	default:
		return OutcomeFailed
	}
}

// Apply executes plan against the release stored in dir: tag writes grouped
// per file, then file renames, then the folder rename. Hazards are reported
// per step and never overwrite existing files. With dryRun nothing is
// touched.
func Apply(ctx context.Context, dir string, rel *release.Release, plan Plan, writer audio.Writer, dryRun bool) ApplyReport {
	report := ApplyReport{Dir: dir}
	if plan.Empty() {
		return report
	}
	if dryRun {
		for _, op := range plan.Ops {
			report.Steps = append(report.Steps, Step{Op: op, Outcome: OutcomeDryRun})
		}
		if op, ok := lastDirOp(plan); ok {
			report.Dir = op.To
		}
		return report
	}
	if err := CheckLocked(dir, rel); err != nil {
		report.Locked = true
		report.Steps = append(report.Steps, Step{Outcome: OutcomeLocked, Error: err.Error()})
		return report
	}

	applyTags(ctx, dir, plan, writer, &report)
	if ctx.Err() != nil {
		return report
	}
	applyFileRenames(dir, plan, &report)

	for _, op := range plan.Ops {
		if op.Kind != KindRenameDir {
			continue
		}
		err := rename(dir, op.To)
		report.record(op, err)
		if err == nil {
			report.Dir = op.To
		}
	}
	return report
}

// CheckLocked opens every readable track read-write and reports the first
// file that cannot be.
func CheckLocked(dir string, rel *release.Release) error {
	for _, t := range rel.Readable() {
		f, err := os.OpenFile(filepath.Join(dir, t.Path), os.O_RDWR, 0)
		if err != nil {
			return err
		}
		_ = f.Close()
	}
	return nil
}

func applyTags(ctx context.Context, dir string, plan Plan, writer audio.Writer, report *ApplyReport) {
	var order []string
	values := map[string]map[audio.Field]string{}
	rewrite := map[string]bool{}
	ops := map[string][]Operation{}
	for _, op := range plan.Ops {
		switch op.Kind {
		case KindSetTag:
			if values[op.File] == nil {
				values[op.File] = map[audio.Field]string{}
			}
			values[op.File][op.Field] = op.Value
		case KindRewriteTags:
			rewrite[op.File] = true
		default:
			continue
		}
		if _, seen := ops[op.File]; !seen {
			order = append(order, op.File)
		}
		ops[op.File] = append(ops[op.File], op)
	}
	for _, file := range order {
		path := filepath.Join(dir, file)
		var err error
		if rewrite[file] {
			err = writer.RewriteTags(ctx, path, values[file])
		} else {
			err = writer.WriteFields(ctx, path, values[file])
		}
		for _, op := range ops[file] {
			report.record(op, err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func applyFileRenames(dir string, plan Plan, report *ApplyReport) {
	renamed := false
	for _, op := range plan.Ops {
		if op.Kind != KindRenameFile {
			continue
		}
		err := rename(filepath.Join(dir, op.From), filepath.Join(dir, op.To))
		report.record(op, err)
		renamed = renamed || err == nil
	}
	if renamed {
		_ = fileutil.RemoveEmptyDirs(dir)
	}
}

// rename moves from to to unless to already exists as a different file.
// A case-only change passes when both names resolve to the same entry, as on
// case-insensitive filesystems; on case-sensitive ones the names are
// distinct files and the rename is refused.
func rename(from, to string) error {
	if from == to {
		return nil
	}
	if fileutil.Exists(to) && !fileutil.SameEntry(from, to) {
		return &os.LinkError{Op: "rename", Old: from, New: to, Err: fs.ErrExist}
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	return os.Rename(from, to)
}

func lastDirOp(plan Plan) (Operation, bool) {
	for i := len(plan.Ops) - 1; i >= 0; i-- {
		if plan.Ops[i].Kind == KindRenameDir {
			return plan.Ops[i], true
		}
	}
	return Operation{}, false
}
