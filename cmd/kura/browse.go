package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hazadus/kura-voice/internal/playback"
	"github.com/hazadus/kura-voice/internal/player"
	"github.com/hazadus/kura-voice/internal/tui"
)

// createBrowseCommand создает команду browse с привязкой к экземпляру приложения
func (app *Application) createBrowseCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the cache in a terminal UI and play tracks locally",
		Long: `Browse the cache in a terminal UI and play tracks through the local speakers.
The local player decodes only mp3 and wav files, so audio_extension must be one of them.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI(ctx)
		},
	}
}

func (app *Application) launchTUI(ctx context.Context) error {
	if err := app.checkLocalFormat(); err != nil {
		return err
	}
	if _, err := app.Catalog.Reindex(ctx); err != nil {
		log.Errorw("ошибка индексации кэша", "root", app.Catalog.Root(), "error", err)
	}

	local := player.NewPlayer()
	defer local.Close()

	coordinator := playback.NewCoordinator(local, playback.WithGain(app.Config.DefaultGain))
	return tui.NewApp(app.Catalog, coordinator).Run(ctx)
}
