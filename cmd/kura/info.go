package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/kura-voice/internal/metadata"
	"github.com/hazadus/kura-voice/internal/utils"
)

// createInfoCommand создает команду info
func (app *Application) createInfoCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "info [query]",
		Short: "Show tags, duration and size of matching tracks",
		RunE: func(_ *cobra.Command, args []string) error {
			return app.describeTracks(ctx, strings.Join(args, " "))
		},
	}
}

func (app *Application) describeTracks(ctx context.Context, query string) error {
	tracks, err := app.Catalog.Resolve(ctx, query)
	if err != nil {
		return err
	}

	fmt.Printf("%-30s %-20s %-30s %-10s %-10s\n", "Файл", "Исполнитель", "Название", "Длит.", "Размер")
	fmt.Println(strings.Repeat("-", 104))

	extractor := metadata.NewExtractor()
	for _, t := range tracks {
		info, err := extractor.Describe(t)
		if err != nil {
			log.Warnw("не удалось прочитать трек", "path", t.Path, "error", err)
			fmt.Printf("%-30s ⚠️  %v\n", utils.TruncateString(t.Stem, 30), err)
			continue
		}

		duration := "N/A"
		if info.Duration > 0 {
			duration = utils.FormatDuration(info.Duration)
		}
		fmt.Printf("%-30s %-20s %-30s %-10s %-10s\n",
			utils.TruncateString(info.Stem, 30),
			utils.TruncateString(info.Artist, 20),
			utils.TruncateString(info.Title, 30),
			duration,
			utils.FormatFileSize(info.Size))
	}
	return nil
}
