package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/kura-voice/internal/track"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list [query]",
		Short: "List cached tracks matching a query",
		Long:  `List cached tracks whose names start with (or else contain) the query. Without a query all tracks are listed.`,
		RunE: func(_ *cobra.Command, args []string) error {
			return app.listTracks(ctx, strings.Join(args, " "))
		},
	}
}

func (app *Application) listTracks(ctx context.Context, query string) error {
	tracks, err := app.Catalog.Resolve(ctx, query)
	var noMatch *track.NoMatchError
	switch {
	case errors.As(err, &noMatch):
		fmt.Printf("🔍 Нет совпадений для %q в %s\n", query, app.Catalog.Root())
		return nil
	case err != nil:
		return err
	}

	if len(tracks) == 0 {
		fmt.Printf("📚 Кэш пуст: файлы .%s в %s не найдены\n", app.Catalog.Ext(), app.Catalog.Root())
		return nil
	}

	fmt.Printf("📚 Найдено треков: %d\n\n", len(tracks))
	for _, stem := range track.Stems(tracks) {
		fmt.Println(stem)
	}
	return nil
}
