package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/kura-voice/internal/bot"
	"github.com/hazadus/kura-voice/internal/discordvoice"
	"github.com/hazadus/kura-voice/internal/playback"
	"github.com/hazadus/kura-voice/internal/track"
)

const shutdownTimeout = 10 * time.Second

// createRunCommand создает команду run, запускающую бота
func (app *Application) createRunCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve soundboard commands",
		Long: `Connect to the Discord gateway and answer prefix commands in guild text channels.
The cache directory is indexed at startup; a failed startup index is only logged.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.runBot(ctx)
		},
	}
}

// startCatalog индексирует кэш при запуске и, если включено, запускает
// наблюдение за каталогом. Ошибка индексации только логируется: каталог
// будет построен при первом обращении.
func (app *Application) startCatalog(ctx context.Context) {
	app.Catalog.OnPublish(func(snap *track.Snapshot) {
		app.Metrics.Reindexed(snap.Len(), nil)
	})

	if _, err := app.Catalog.Reindex(ctx); err != nil {
		app.Metrics.Reindexed(0, err)
		log.Errorw("ошибка индексации кэша при запуске", "root", app.Catalog.Root(), "error", err)
	}

	if !app.Config.Watch {
		return
	}
	watcher, err := track.NewWatcher(app.Catalog, app.Config.WatchDebounce)
	if err != nil {
		log.Warnw("наблюдение за кэшем отключено", "error", err)
		return
	}
	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Warnw("наблюдение за кэшем остановлено", "error", err)
		}
	}()
}

func (app *Application) runBot(ctx context.Context) error {
	if app.Config.DiscordToken == "" {
		return errors.New("не задан discord_token (или переменная DISCORD_TOKEN)")
	}

	app.startCatalog(ctx)

	if addr := app.Config.MetricsAddr; addr != "" {
		go func() {
			if err := app.Metrics.Serve(ctx, addr); err != nil {
				log.Errorw("ошибка сервера метрик", "addr", addr, "error", err)
			}
		}()
	}

	dispatcher := &bot.DispatcherRef{}
	voiceStates := &bot.VoiceStateRef{}
	client, err := bot.NewDiscordClient(ctx, app.Config.DiscordToken, dispatcher, voiceStates)
	if err != nil {
		return err
	}

	voice := discordvoice.NewManager(client)
	voiceStates.VoiceStateWatcher = voice
	coordinator := playback.NewCoordinator(voice,
		playback.WithGain(app.Config.DefaultGain),
		playback.WithObserver(app.Metrics),
	)
	dispatcher.Dispatcher = bot.NewHandler(app.Catalog, coordinator, bot.DiscordReplier{Rest: client.Rest},
		bot.WithPrefix(app.Config.CommandPrefix),
		bot.WithReplyLimit(app.Config.ReplyLimit),
		bot.WithMetrics(app.Metrics),
	)

	if err := client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("ошибка подключения к Discord: %w", err)
	}
	log.Infow("бот запущен", "prefix", app.Config.CommandPrefix, "root", app.Catalog.Root())

	<-ctx.Done()
	log.Infow("остановка бота")

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	voice.Close(closeCtx)
	client.Close(closeCtx)
	return nil
}
