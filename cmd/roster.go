package cmd

import (
	"errors"
	"fmt"

	"github.com/bnema/anicord/internal/domain"
	"github.com/spf13/cobra"
)

func newRosterCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Inspect and edit guild rosters",
	}

	cmd.AddCommand(
		newRosterListCmd(app),
		newRosterUnlinkCmd(app),
	)

	return cmd
}

func newRosterListCmd(app *app) *cobra.Command {
	var guildID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members linked to an AniList account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.openStores(cmd.Context())
			if err != nil {
				return err
			}
			rosters, err := app.rosterService(cmd.Context(), s)
			if err != nil {
				return err
			}

			for _, identity := range rosters.Roster(guildID) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\n",
					identity.ChatUserID, identity.DisplayName, identity.CatalogUserID, identity.CatalogUserName)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&guildID, "guild", "", "Discord guild ID")
	_ = cmd.MarkFlagRequired("guild")

	return cmd
}

func newRosterUnlinkCmd(app *app) *cobra.Command {
	var guildID string
	var userID string

	cmd := &cobra.Command{
		Use:   "unlink",
		Short: "Remove a member's AniList link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.openStores(cmd.Context())
			if err != nil {
				return err
			}
			rosters, err := app.rosterService(cmd.Context(), s)
			if err != nil {
				return err
			}

			err = rosters.Unlink(cmd.Context(), guildID, userID)
			if errors.Is(err, domain.ErrIdentityNotLinked) {
				return fmt.Errorf("user %s in guild %s: %w", userID, guildID, err)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&guildID, "guild", "", "Discord guild ID")
	cmd.Flags().StringVar(&userID, "user", "", "Discord user ID")
	_ = cmd.MarkFlagRequired("guild")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
