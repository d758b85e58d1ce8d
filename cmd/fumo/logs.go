package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/fumo/internal/audit"
)

func newLogsCommand(configPath *string) *cobra.Command {
	var q audit.Query
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent command executions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			b, err := openBot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			records, err := b.audit.Recent(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("read execution log: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tCOMMAND\tCHANNEL\tUSER\tOK\tDURATION\tINPUT\tRESULT")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\t%s\t%s\n",
					rec.CreatedAt.Local().Format(time.DateTime),
					rec.Command, rec.ChannelID, rec.UserID, rec.Success,
					rec.Duration.Round(time.Millisecond),
					strings.Join(rec.Input, " "),
					oneLine(rec.Result))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "Maximum records to show")
	cmd.Flags().StringVar(&q.ChannelID, "channel", "", "Only records from this channel id")
	cmd.Flags().StringVar(&q.Command, "command", "", "Only records for this command pattern")
	return cmd
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > 80 {
		return string(r[:79]) + "…"
	}
	return s
}
