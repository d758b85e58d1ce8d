package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/fumo/internal/config"
)

func newConfigCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate and lock configuration",
	}
	cmd.AddCommand(newConfigCheckCommand(configPath), newConfigLockCommand(configPath))
	return cmd
}

func newConfigCheckCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate syntax, values and integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK: %s\n", *configPath)
			fmt.Fprintf(out, "  global prefix:  %s\n", cfg.Bot.GlobalPrefix)
			fmt.Fprintf(out, "  commands:       %d\n", registry.Len())
			fmt.Fprintf(out, "  state:          %s\n", cfg.State.Path)
			fmt.Fprintf(out, "  filter phrases: %d\n", len(cfg.Filter.GlobalPatterns))
			if cfg.Website.Enabled {
				fmt.Fprintf(out, "  website:        %s\n", cfg.Website.Listen)
			} else {
				fmt.Fprintln(out, "  website:        disabled")
			}
			return nil
		},
	}
}

func newConfigLockCommand(configPath *string) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Record config.yaml checksums so later edits are detected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := config.Lock(*configPath, dryRun)
			if err != nil {
				return fmt.Errorf("lock config: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, f := range report.Files {
				fmt.Fprintf(out, "%s  %s\n", f.Hash, f.Filename)
			}
			if report.Written {
				fmt.Fprintf(out, "Wrote %s\n", report.ChecksumPath)
			} else {
				fmt.Fprintf(out, "Dry run: %s not written\n", report.ChecksumPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute hashes without writing")
	return cmd
}
