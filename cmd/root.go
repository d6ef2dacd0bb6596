package cmd

import (
	"github.com/spf13/cobra"
)

// Execute runs the CLI. Resources opened by a subcommand are released even
// when it fails, since cobra skips post-run hooks after a RunE error.
func Execute() error {
	app := &app{}
	defer app.close()

	return newRootCmd(app).Execute()
}

func newRootCmd(app *app) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "anicord",
		Short:         "anicord: AniList Discord bot",
		Long:          "anicord runs a Discord bot that links guild members to AniList accounts and reports how a guild rated an anime or manga. The CLI also runs those reports from the terminal and manages the bot token.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return app.init(configPath)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $HOME/.config/anicord/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newScoresCmd(app),
		newRosterCmd(app),
		newTokenCmd(app),
	)

	return rootCmd
}
