package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/fumo/internal/chat"
	"github.com/mattjoyce/fumo/internal/settings"
)

// resetKeyword clears a per-channel override.
const resetKeyword = "reset"

func newChannelsCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Inspect joined channels and their overrides",
	}
	cmd.AddCommand(
		newChannelsListCommand(configPath),
		newChannelsJoinCommand(configPath),
		newChannelsModerationCommand(configPath),
	)
	return cmd
}

func newChannelsListCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List joined channels",
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

			channels, err := b.settings.Channels(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPREFIX\tMODERATION\tJOINED")
			for _, c := range channels {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					c.ID, c.Name, orDash(c.Prefix), orDash(c.ModerationEndpoint), c.JoinedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}
}

func newChannelsJoinCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "join <channel-id> <name>",
		Short: "Record a channel so overrides can be set before the bot starts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			b, err := openBot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.join(cmd.Context(), chat.Channel{ID: args[0], Name: args[1]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: joined %s\n", args[0], args[1])
			return nil
		},
	}
}

func newChannelsModerationCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "moderation <channel-id> <endpoint|reset>",
		Short: "Set or clear a channel's external moderation endpoint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			b, err := openBot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			endpoint := args[1]
			if endpoint == resetKeyword {
				endpoint = ""
			}
			err = b.settings.SetModerationEndpoint(cmd.Context(), args[0], endpoint)
			if errors.Is(err, settings.ErrChannelNotFound) {
				return fmt.Errorf("channel %s has not been joined", args[0])
			}
			if err != nil {
				return err
			}

			channel, err := b.settings.Channel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): moderation %s\n",
				channel.ID, channel.Name, orDash(channel.ModerationEndpoint))
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
