package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"centrifuge/internal/audio"
	"centrifuge/internal/fingerprint"
	"centrifuge/internal/fixplan"
	"centrifuge/internal/logging"
	"centrifuge/internal/placement"
	"centrifuge/internal/release"
	"centrifuge/internal/services"
	"centrifuge/internal/validation"
)

// Mode selects what a run does.
type Mode string

const (
	ModeValidate Mode = "validate"
	ModeFix      Mode = "fix"
	ModeReleases Mode = "releases"
)

// Options configures a run.
type Options struct {
	Mode       Mode
	ScanRoot   string
	Workers    int
	DryRun     bool
	Validation validation.Options
	Placement  placement.Options
	AllowCopy  bool
	MaxPath    int
}

// Registry is the part of the cache store the engine uses.
type Registry interface {
	fingerprint.Registry
	RecordPlacement(ctx context.Context, fingerprint, path string) error
}

// Deps are the collaborators of a run.
type Deps struct {
	Reader audio.Reader
	Writer audio.Writer
	Hasher audio.PayloadHasher
	// Oracle may be nil, which skips the oracle rules.
	Oracle validation.Oracle
	// Registry may be nil, which disables cross-run duplicate detection.
	Registry Registry
	Logger   *slog.Logger
}

// Engine runs the pipeline.
type Engine struct {
	opts    Options
	deps    Deps
	rules   *validation.Registry
	builder *release.Builder
	planner *placement.Planner
	mover   *placement.Mover
	logger  *slog.Logger
}

// New validates opts and constructs an Engine.
func New(opts Options, deps Deps) (*Engine, error) {
	if opts.ScanRoot == "" {
		return nil, services.Wrap(services.ErrConfiguration, "reconcile", "new", "scan root is required", nil)
	}
	switch opts.Mode {
	case ModeValidate, ModeFix, ModeReleases:
	default:
		return nil, services.Wrap(services.ErrConfiguration, "reconcile", "new", fmt.Sprintf("unknown mode %q", opts.Mode), nil)
	}
	if deps.Reader == nil || deps.Hasher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "reconcile", "new", "tag reader and payload hasher are required", nil)
	}
	if opts.Mode == ModeFix && deps.Writer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "reconcile", "new", "fix mode requires a tag writer", nil)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	opts.ScanRoot = filepath.Clean(opts.ScanRoot)
	logger := logging.NewComponentLogger(deps.Logger, "reconcile")
	return &Engine{
		opts:    opts,
		deps:    deps,
		rules:   validation.NewRegistry(opts.Validation),
		builder: release.NewBuilder(deps.Reader, opts.Workers, deps.Logger),
		planner: placement.NewPlanner(opts.Placement),
		mover: placement.NewMover(placement.MoverOptions{
			ScanRoot:  opts.ScanRoot,
			AllowCopy: opts.AllowCopy,
			MaxPath:   opts.MaxPath,
			DryRun:    opts.DryRun,
		}, deps.Logger),
		logger: logger,
	}, nil
}

// scanned is the stage one result for one release.
type scanned struct {
	rel         *release.Release
	result      validation.Result
	fingerprint string
}

// Run executes the configured mode. Per-release problems end up in the
// report; only cancellation and configuration errors are returned.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	report := Report{Mode: e.opts.Mode, Root: e.opts.ScanRoot}

	dirs, err := e.discover(services.WithStage(ctx, "discover"), &report)
	if err != nil {
		return report, err
	}

	items, err := e.scan(services.WithStage(ctx, "scan"), dirs)
	if err != nil {
		return report, err
	}

	index := fingerprint.NewIndex()
	for _, item := range items {
		index.Add(item.fingerprint, item.rel.SourceDir)
	}
	if e.deps.Registry != nil {
		merged, err := index.MergeRegistry(ctx, e.deps.Registry)
		if err != nil {
			logging.WarnWithContext(e.logger, "duplicate registry unavailable", "registry_read_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "duplicates of earlier runs are not detected"),
			)
		} else if merged > 0 {
			e.logger.Debug("duplicate registry merged", logging.Int("entries", merged))
		}
	}
	duplicateOf := index.DuplicateOf()

	placeCtx := services.WithStage(ctx, "place")
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		entry := Entry{
			Path:        item.rel.SourceDir,
			Fingerprint: item.fingerprint,
			DuplicateOf: duplicateOf[item.rel.SourceDir],
			Destination: item.rel.SourceDir,
			Violations:  violationsOf(item.result),
		}
		switch e.opts.Mode {
		case ModeReleases:
			summary := summarize(item.rel, e.opts.Validation.FullCodecNames)
			entry.Release = &summary
		case ModeFix:
			e.fix(services.WithRelease(placeCtx, item.rel.SourceDir), item, &entry)
		}
		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}

func (e *Engine) discover(ctx context.Context, report *Report) ([]string, error) {
	dirs, err := release.Discover(e.opts.ScanRoot)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "discover", "walk scan root", e.opts.ScanRoot, err)
	}
	if e.opts.Mode != ModeFix {
		return dirs, nil
	}
	groups, err := release.AssembleDiscs(dirs, !e.opts.DryRun)
	report.Discs = groups
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "disc assembly incomplete", "disc_assembly_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "some discs stay separate releases"),
		)
	}
	if e.opts.DryRun || len(groups) == 0 {
		return dirs, nil
	}
	dirs, err = release.Discover(e.opts.ScanRoot)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "discover", "walk scan root", e.opts.ScanRoot, err)
	}
	return dirs, nil
}

// scan builds, fingerprints and validates every directory on the worker pool.
// The result keeps directory order and drops directories without audio.
func (e *Engine) scan(ctx context.Context, dirs []string) ([]scanned, error) {
	releases, err := e.builder.BuildAll(ctx, dirs)
	if err != nil {
		return nil, err
	}
	items := make([]scanned, len(releases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, rel := range releases {
		if rel == nil {
			continue
		}
		g.Go(func() error {
			relCtx := services.WithRelease(gctx, rel.SourceDir)
			fp, err := fingerprint.Compute(relCtx, rel, e.deps.Hasher)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				logging.WarnWithContext(logging.WithContext(relCtx, e.logger), "fingerprint failed", "fingerprint_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "release excluded from duplicate detection"),
				)
			}
			item := scanned{rel: rel, fingerprint: fp}
			if e.opts.Mode != ModeReleases {
				item.result = e.rules.Validate(relCtx, rel, e.deps.Oracle)
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := items[:0]
	for _, item := range items {
		if item.rel != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

// fix runs stage two for one release: plan, apply, re-validate, place.
func (e *Engine) fix(ctx context.Context, item scanned, entry *Entry) {
	logger := logging.WithContext(ctx, e.logger)
	rel := item.rel
	entry.Before = entry.Violations

	plan := fixplan.Compute(ctx, rel, item.result, e.deps.Oracle, e.opts.Validation)
	if entry.DuplicateOf != "" {
		// The canonical folder name belongs to the primary.
		plan = plan.Without(fixplan.KindRenameDir)
	}
	applied := fixplan.Apply(ctx, rel.SourceDir, rel, plan, e.deps.Writer, e.opts.DryRun)
	entry.Plan = plan.Ops
	entry.Destination = applied.Dir
	for _, step := range applied.Problems() {
		entry.Problems = append(entry.Problems, fmt.Sprintf("%s: %s", step.Outcome, step.Error))
	}
	if applied.Locked {
		entry.Decision = placement.DecisionLeave
		logging.WarnWithContext(logger, "release locked", "release_locked",
			logging.String(logging.FieldErrorHint, "close programs holding the files"),
			logging.String(logging.FieldImpact, "release skipped"),
		)
		return
	}
	entry.FixApplied = !plan.Empty() && !e.opts.DryRun && applied.Complete()

	fixed, err := e.current(ctx, rel, plan, applied)
	if err != nil {
		entry.Decision = placement.DecisionLeave
		entry.Problems = append(entry.Problems, "rebuild: "+err.Error())
		logging.ErrorWithContext(logger, "release rebuild failed", "release_rebuild_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the release directory"),
			logging.String(logging.FieldImpact, "release left in place"),
		)
		return
	}
	after := item.result
	if !plan.Empty() || fixed.SourceDir != rel.SourceDir {
		after = e.rules.Validate(ctx, fixed, e.deps.Oracle)
	}
	entry.Violations = violationsOf(after)

	decision := e.planner.Plan(placement.Input{Release: fixed, Result: after, DuplicateOf: entry.DuplicateOf})
	entry.Decision = decision.Decision
	logger.Info("release decided", logging.Args(logging.DecisionAttrs("placement", string(decision.Decision), decision.Reason)...)...)

	placed := decision.Decision == placement.DecisionSkip
	if decision.Moves() {
		moved := e.mover.Move(ctx, decision.Root, fixed.SourceDir, decision.Destination)
		entry.Plan = plan.WithMove(fixed.SourceDir, decision.Destination).Ops
		switch {
		case moved.OK():
			entry.Destination = decision.Destination
			placed = decision.Decision == placement.DecisionPlace
			if moved.Error != "" {
				entry.Problems = append(entry.Problems, moved.Error)
			}
		case moved.Outcome == placement.OutcomeDryRun:
			entry.Destination = decision.Destination
		default:
			entry.Decision = placement.DecisionLeave
			entry.Problems = append(entry.Problems, fmt.Sprintf("%s: %s", moved.Outcome, moved.Error))
			logging.WarnWithContext(logger, "release not moved", "placement_failed",
				logging.String("outcome", string(moved.Outcome)),
				logging.String("destination", decision.Destination),
				logging.String(logging.FieldImpact, "release left in place"),
			)
		}
	}

	if placed {
		e.record(ctx, item.fingerprint, entry.Destination)
	}
}

// record remembers a placed primary so later runs detect its duplicates.
func (e *Engine) record(ctx context.Context, fp, path string) {
	if e.opts.DryRun || e.deps.Registry == nil || fp == "" {
		return
	}
	if err := e.deps.Registry.RecordPlacement(ctx, fp, path); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "duplicate registry not updated", "registry_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "later runs may not recognize this release"),
		)
	}
}

// current returns the release as it stands after applying plan. Complete
// applies and dry runs are simulated; partial applies are read back.
func (e *Engine) current(ctx context.Context, rel *release.Release, plan fixplan.Plan, applied fixplan.ApplyReport) (*release.Release, error) {
	if e.opts.DryRun || applied.Complete() {
		return fixplan.Simulate(rel, plan), nil
	}
	fixed, err := e.builder.Build(ctx, applied.Dir)
	if err != nil {
		return nil, err
	}
	if fixed == nil {
		return nil, fmt.Errorf("no audio left in %s", applied.Dir)
	}
	return fixed, nil
}

func violationsOf(result validation.Result) []validation.Violation {
	if result.Violations == nil {
		return []validation.Violation{}
	}
	return result.Violations
}
