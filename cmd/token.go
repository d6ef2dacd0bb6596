package cmd

import (
	"github.com/spf13/cobra"
)

func newTokenCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the Discord bot token",
	}

	cmd.AddCommand(newTokenSetCmd(app), newTokenDeleteCmd(app))

	return cmd
}

func newTokenSetCmd(app *app) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the Discord bot token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.credentials.Put(cmd.Context(), tokenKey, value)
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Bot token")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newTokenDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the Discord bot token from every writable store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.credentials.Delete(cmd.Context(), tokenKey)
		},
	}
}
