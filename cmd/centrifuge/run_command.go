package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"centrifuge/internal/audio"
	"centrifuge/internal/cachestore"
	"centrifuge/internal/config"
	"centrifuge/internal/logging"
	"centrifuge/internal/placement"
	"centrifuge/internal/reconcile"
	"centrifuge/internal/services"
	"centrifuge/internal/validation"
)

type runFlags struct {
	groupByCategory bool
	groupByArtist   bool
	moveFixed       bool
	moveFixedTo     string
	moveDuplicateTo string
	moveInvalid     string
	moveInvalidTo   string
	expunge         []string
	showViolations  bool
	fullCodecNames  bool
	dryRun          bool
	jsonOutput      bool
	table           bool
	workers         int
}

var modeShort = map[reconcile.Mode]string{
	reconcile.ModeValidate: "Report violations of every release under PATH",
	reconcile.ModeFix:      "Fix releases under PATH and place them",
	reconcile.ModeReleases: "List the release directories under PATH",
}

func newRunCommand(ctx *commandContext, mode reconcile.Mode) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   string(mode) + " PATH",
		Short: modeShort[mode],
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd, ctx, mode, flags, args[0])
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.jsonOutput, "json", false, "Emit the machine-readable report")
	f.IntVar(&flags.workers, "workers", 0, "Worker pool size for scanning (default from config)")
	f.BoolVar(&flags.fullCodecNames, "full-codec-names", false, "Use full codec names in folder names")
	if mode == reconcile.ModeReleases {
		f.BoolVar(&flags.table, "table", false, "Render the releases as a table")
		return cmd
	}
	f.BoolVar(&flags.showViolations, "show-violations", false, "Print every violation")
	f.StringArrayVar(&flags.expunge, "expunge-comments-with-substring", nil, "Forbidden comment substring (repeatable)")
	if mode == reconcile.ModeValidate {
		return cmd
	}
	f.BoolVar(&flags.groupByCategory, "group-by-category", false, "Place releases under a category folder")
	f.BoolVar(&flags.groupByArtist, "group-by-artist", false, "Place releases under an artist folder")
	f.BoolVar(&flags.moveFixed, "move-fixed", false, "Place valid releases into the scan root layout")
	f.StringVar(&flags.moveFixedTo, "move-fixed-to", "", "Place valid releases under this root")
	f.StringVar(&flags.moveDuplicateTo, "move-duplicate-to", "", "Move duplicate releases into this directory")
	f.StringVar(&flags.moveInvalid, "move-invalid", "", "Violation code that diverts a release to --move-invalid-to")
	f.StringVar(&flags.moveInvalidTo, "move-invalid-to", "", "Directory receiving releases with the --move-invalid code")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Report the plan without touching files")
	return cmd
}

func runMode(cmd *cobra.Command, cmdCtx *commandContext, mode reconcile.Mode, flags *runFlags, path string) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	opts, err := buildOptions(cmd, cfg, mode, flags, path)
	if err != nil {
		return err
	}

	logger, err := cmdCtx.logger(cfg)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = services.WithRunID(runCtx, uuid.NewString())
	runLogger := logging.WithContext(runCtx, logger)

	deps := reconcile.Deps{
		Reader: audio.NewTagReader(),
		Hasher: audio.NewHasher(),
		Logger: logger,
	}
	if mode == reconcile.ModeFix {
		deps.Writer = audio.NewTagWriter()
	}
	if mode != reconcile.ModeReleases {
		store, err := cachestore.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		o, closeOracle, err := cmdCtx.newOracle(cfg, store, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeOracle(); err != nil {
				logging.WarnWithContext(runLogger, "lookup cache flush failed", "cache_flush_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "lookups will be fetched again next run"))
			}
		}()
		deps.Oracle = o
		if mode == reconcile.ModeFix {
			deps.Registry = store
		}
	}

	engine, err := reconcile.New(opts, deps)
	if err != nil {
		return err
	}
	runLogger.Info("run started",
		logging.String("mode", string(mode)),
		logging.String("root", opts.ScanRoot),
		logging.Bool("dry_run", opts.DryRun),
	)
	report, err := engine.Run(runCtx)
	if err != nil {
		return err
	}
	runLogger.Info("run finished", logging.Int("releases", len(report.Entries)))

	out := cmd.OutOrStdout()
	if flags.jsonOutput {
		return report.WriteJSON(out)
	}
	switch mode {
	case reconcile.ModeReleases:
		printReleases(out, report, flags.table)
	case reconcile.ModeValidate:
		printValidate(out, report, flags.showViolations, shouldColorize(out))
	case reconcile.ModeFix:
		printFix(out, report, flags.showViolations, shouldColorize(out))
	}
	return nil
}

// buildOptions applies flag overrides to cfg and checks the result. Every
// error it returns is a configuration error raised before any file is
// touched.
func buildOptions(cmd *cobra.Command, cfg *config.Config, mode reconcile.Mode, flags *runFlags, path string) (reconcile.Options, error) {
	scanRoot, err := absPath(path)
	if err != nil {
		return reconcile.Options{}, err
	}
	if err := checkScanRoot(mode, scanRoot); err != nil {
		return reconcile.Options{}, err
	}

	changed := cmd.Flags().Changed
	if changed("workers") {
		cfg.Scan.Workers = flags.workers
	}
	if flags.fullCodecNames {
		cfg.Validation.FullCodecNames = true
	}
	cfg.Validation.ForbiddenCommentSubstrings = append(cfg.Validation.ForbiddenCommentSubstrings, flags.expunge...)
	if flags.groupByArtist {
		cfg.Placement.GroupByArtist = true
	}
	if changed("group-by-category") {
		cfg.Placement.GroupByCategory = flags.groupByCategory
	}
	if flags.moveDuplicateTo != "" {
		if cfg.Placement.DuplicateDir, err = absPath(flags.moveDuplicateTo); err != nil {
			return reconcile.Options{}, err
		}
	}
	if flags.moveInvalid != "" {
		cfg.Placement.MoveInvalid = flags.moveInvalid
	}
	if flags.moveInvalidTo != "" {
		if cfg.Placement.InvalidDir, err = absPath(flags.moveInvalidTo); err != nil {
			return reconcile.Options{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return reconcile.Options{}, services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
	}

	opts := reconcile.Options{
		Mode:     mode,
		ScanRoot: scanRoot,
		Workers:  cfg.Scan.Workers,
		DryRun:   flags.dryRun,
		Validation: validation.Options{
			ForbiddenCommentSubstrings: cfg.Validation.ForbiddenCommentSubstrings,
			FullCodecNames:             cfg.Validation.FullCodecNames,
		},
		AllowCopy: cfg.Placement.AllowCopy,
		MaxPath:   cfg.Placement.MaxPath,
	}
	if mode != reconcile.ModeFix {
		return opts, nil
	}

	if cfg.Placement.MoveInvalid != "" {
		code, err := validation.ParseCode(cfg.Placement.MoveInvalid)
		if err != nil {
			return reconcile.Options{}, services.Wrap(services.ErrConfiguration, "config", "move-invalid", "", err)
		}
		cfg.Placement.MoveInvalid = string(code)
	}
	if flags.moveFixed && flags.moveFixedTo != "" {
		return reconcile.Options{}, configError("move-fixed", "--move-fixed and --move-fixed-to are mutually exclusive")
	}
	var root string
	switch {
	case flags.moveFixed:
		root = scanRoot
	case flags.moveFixedTo != "":
		if root, err = absPath(flags.moveFixedTo); err != nil {
			return reconcile.Options{}, err
		}
	}

	roots := []struct{ name, path string }{
		{"destination", root},
		{"duplicate directory", cfg.Placement.DuplicateDir},
		{"invalid directory", cfg.Placement.InvalidDir},
	}
	for _, r := range roots {
		if r.path == "" {
			continue
		}
		if err := placement.CheckRoot(r.name, r.path); err != nil {
			return reconcile.Options{}, err
		}
	}

	if !changed("group-by-category") && !cfg.Placement.GroupByCategory {
		guessFrom := root
		if guessFrom == "" {
			guessFrom = scanRoot
		}
		cfg.Placement.GroupByCategory = placement.GuessGroupByCategory(guessFrom)
	}
	opts.Placement = placement.OptionsFromConfig(cfg, root)
	return opts, nil
}

func checkScanRoot(mode reconcile.Mode, path string) error {
	if mode == reconcile.ModeFix {
		return placement.CheckRoot("scan root", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "scan root", path, err)
	}
	if !info.IsDir() {
		return configError("scan root", "%s is not a directory", path)
	}
	return nil
}

func absPath(value string) (string, error) {
	expanded, err := config.ExpandPath(strings.TrimSpace(value))
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "config", "resolve path", value, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "config", "resolve path", value, err)
	}
	return abs, nil
}
