package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCommandsCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Inspect registered chat commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List commands in match order",
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
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATTERN\tCOOLDOWN\tFLAGS\tPERMISSIONS\tDESCRIPTION")
			for _, def := range registry.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					def.Name(), def.Cooldown, def.Flags, strings.Join(def.Permissions, ","), def.Description)
			}
			return w.Flush()
		},
	})
	return cmd
}
