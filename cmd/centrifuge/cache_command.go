package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"centrifuge/internal/cachestore"
	"centrifuge/internal/oracle"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the lookup cache and duplicate registry",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheForgetCommand(ctx))

	return cacheCmd
}

func withStore(ctx *commandContext, fn func(cachestore.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cfg)
	if err != nil {
		return err
	}
	store, err := cachestore.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store cachestore.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				cfg, _ := ctx.ensureConfig()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Backend:   %s (%s)\n", cfg.Cache.Backend, cfg.Cache.Path)
				fmt.Fprintf(out, "Lookups:   %d (%d matched, %d not found)\n", stats.Lookups, stats.Matched, stats.NotFound)
				fmt.Fprintf(out, "Registry:  %d placed releases\n", stats.Registry)
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached lookup and registry entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store cachestore.Store) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
				return nil
			})
		},
	}
}

func newCacheForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget ARTIST TITLE",
		Short: "Drop the cached lookup for one artist and title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store cachestore.Store) error {
				removed, err := store.ForgetLookup(cmd.Context(), oracle.Key(args[0], args[1]))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !removed {
					fmt.Fprintf(out, "No cached lookup for %s - %s\n", args[0], args[1])
					return nil
				}
				fmt.Fprintf(out, "Forgot %s - %s\n", args[0], args[1])
				return nil
			})
		},
	}
}
