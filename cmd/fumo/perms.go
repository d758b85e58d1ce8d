package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/fumo/internal/settings"
)

func newPermsCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perms",
		Short: "Grant or revoke user permissions",
	}
	cmd.AddCommand(
		newPermMutationCommand(configPath, "grant", "Grant a permission to a user", (*settings.Store).GrantPermission),
		newPermMutationCommand(configPath, "revoke", "Revoke a permission from a user", (*settings.Store).RevokePermission),
		newPermsShowCommand(configPath),
	)
	return cmd
}

type permMutation func(s *settings.Store, ctx context.Context, userID, permission string) error

func newPermMutationCommand(configPath *string, verb, short string, mutate permMutation) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <user-id> <permission>",
		Short: short,
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

			if err := mutate(b.settings, cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("%s %s: %w", verb, args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", args[0], verb, args[1])
			return nil
		},
	}
}

func newPermsShowCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's permissions",
		Args:  cobra.ExactArgs(1),
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

			user, err := b.settings.User(cmd.Context(), args[0], args[0])
			if err != nil {
				return err
			}
			for _, p := range user.Permissions {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
