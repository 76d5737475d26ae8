package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "kura",
		Short: "Discord voice soundboard for a local cache of audio files",
		Long: `Kura plays short audio files from a local cache directory into Discord voice channels.
Tracks are found by name prefix or substring; the cache can be listed, inspected,
synchronised from S3 and played locally.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.load(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the YAML config file")

	// Добавляем команды, передавая в них экземпляр приложения и контекст
	rootCmd.AddCommand(app.createRunCommand(ctx))
	rootCmd.AddCommand(app.createListCommand(ctx))
	rootCmd.AddCommand(app.createInfoCommand(ctx))
	rootCmd.AddCommand(app.createSyncCommand(ctx))
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createBrowseCommand(ctx))

	return rootCmd
}
