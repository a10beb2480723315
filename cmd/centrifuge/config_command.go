package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"centrifuge/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	group := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	group.AddCommand(newConfigInitCommand(), newConfigShowCommand(ctx))
	return group
}

func newConfigInitCommand() *cobra.Command {
	var (
		path    string
		replace bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write an annotated sample configuration",
		Annotations: map[string]string{skipConfigLoad: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := sampleTarget(path)
			if err != nil {
				return err
			}
			if err := config.WriteSample(target, replace); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(cmd.OutOrStdout(), "Set oracle.api_key (or export LASTFM_API_KEY) to enable the Last.fm API provider.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "Where to write the file (default: per-user config location)")
	cmd.Flags().BoolVar(&replace, "overwrite", false, "Replace an existing file")
	return cmd
}

// sampleTarget resolves the --path flag, falling back to the per-user location.
func sampleTarget(flag string) (string, error) {
	if flag = strings.TrimSpace(flag); flag != "" {
		return config.ExpandPath(flag)
	}
	return config.DefaultConfigPath()
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			encoded, err := cfg.Encode()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(w, "# %s\n", ctx.configPath)
			}
			_, err = w.Write(encoded)
			return err
		},
	}
}
