package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/kura-voice/internal/playback"
	"github.com/hazadus/kura-voice/internal/player"
	"github.com/hazadus/kura-voice/internal/track"
	"github.com/hazadus/kura-voice/internal/utils"
)

// localGroup группа локального воспроизведения
const localGroup = "local"

const progressInterval = 250 * time.Millisecond

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	var loop bool

	cmd := &cobra.Command{
		Use:   "play [query]",
		Short: "Play a matching cached track through the local speakers",
		Long: `Play one track matching the query through the local speakers.
Without a query a random track is played. The local player decodes only mp3 and wav
files, so audio_extension must be one of them; Ogg Opus caches are played through Discord.`,
		RunE: func(_ *cobra.Command, args []string) error {
			return app.playLocal(ctx, strings.Join(args, " "), loop)
		},
	}
	cmd.Flags().BoolVarP(&loop, "loop", "l", false, "repeat the track until interrupted")
	return cmd
}

// checkLocalFormat отклоняет кэш, который локальный плеер не умеет декодировать
func (app *Application) checkLocalFormat() error {
	if player.Supports(app.Catalog.Ext()) {
		return nil
	}
	return fmt.Errorf("локальный плеер воспроизводит только %s, а audio_extension = %q",
		strings.Join(player.SupportedExtensions, ", "), app.Catalog.Ext())
}

func (app *Application) playLocal(ctx context.Context, query string, loop bool) error {
	if err := app.checkLocalFormat(); err != nil {
		return err
	}
	tracks, err := app.Catalog.Resolve(ctx, query)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("в %s нет файлов .%s", app.Catalog.Root(), app.Catalog.Ext())
	}
	t := track.Pick(tracks, nil)

	local := player.NewPlayer()
	defer local.Close()

	coordinator := playback.NewCoordinator(local, playback.WithGain(app.Config.DefaultGain))
	return playWith(ctx, coordinator, t, loop)
}

// playWith воспроизводит трек через координатор и ждет его окончания или отмены ctx
func playWith(ctx context.Context, coordinator *playback.Coordinator, t track.Track, loop bool) error {
	if err := coordinator.Join(ctx, localGroup, ""); err != nil {
		return err
	}
	if loop {
		if _, err := coordinator.ToggleLoop(ctx, localGroup); err != nil {
			return err
		}
	}

	h, err := coordinator.BeginPlayback(ctx, localGroup, t.Path)
	if err != nil {
		return err
	}
	local, ok := h.(*player.Track)
	if !ok {
		return errors.New("неожиданный тип трека локального плеера")
	}

	fmt.Printf("🎵 Сейчас играет: %s\n", t.Stem)
	fmt.Printf("   Файл: %s\n", t.Path)
	fmt.Printf("   [Ctrl+C] - остановить и выйти\n\n")

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			displayProgress(local.Status())
		case <-local.Done():
			fmt.Println("\n✅ Воспроизведение завершено")
			return coordinator.Teardown(context.Background(), localGroup)
		case <-ctx.Done():
			fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
			return coordinator.Teardown(context.Background(), localGroup)
		}
	}
}

// displayProgress отображает прогресс воспроизведения
func displayProgress(status player.Status) {
	var progress string
	if status.Total > 0 {
		percent := float64(status.Current) / float64(status.Total) * 100
		progress = fmt.Sprintf("%.1f%%", percent)
	} else {
		progress = "??%"
	}

	statusIcon := "▶️"
	if !status.Playing {
		statusIcon = "⏹️"
	}
	loop := ""
	if status.Looping {
		loop = " | 🔁"
	}

	fmt.Printf("\r%s  %s | %s / %s%s",
		statusIcon,
		progress,
		utils.FormatDuration(status.Current),
		utils.FormatDuration(status.Total),
		loop)
}
