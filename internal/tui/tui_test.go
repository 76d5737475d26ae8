package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/kura-voice/internal/playback"
	"github.com/hazadus/kura-voice/internal/track"
	"github.com/hazadus/kura-voice/internal/tui/player"
	"github.com/hazadus/kura-voice/internal/tui/tracklist"
)

func newTestCatalog(t *testing.T) *track.Manager {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "Test Track.opus"), nil, 0o644); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}
	catalog := track.NewManager(root, "opus")
	if _, err := catalog.Reindex(context.Background()); err != nil {
		t.Fatalf("Ошибка индексации: %v", err)
	}
	return catalog
}

func TestMainModelRouting(t *testing.T) {
	catalog := newTestCatalog(t)
	model := newMainModel(catalog, playback.NewCoordinator(nil))

	if model.currentScreen != tracklistScreen {
		t.Errorf("Ожидался экран списка, получено %v", model.currentScreen)
	}
	if model.playerModel != nil {
		t.Error("Модель плеера не должна быть создана заранее")
	}

	// Переключение на экран плеера
	selected := tracklist.TrackSelectedMsg{Track: catalog.Current().Tracks()[0]}
	updatedModel, cmd := model.Update(selected)
	model = updatedModel.(*mainModel)

	if model.currentScreen != playerScreen {
		t.Errorf("Ожидался экран плеера, получено %v", model.currentScreen)
	}
	if model.playerModel == nil {
		t.Fatal("Модель плеера должна быть создана")
	}
	if cmd == nil {
		t.Fatal("Ожидалась команда запуска трека")
	}
	// Без голосового менеджера запуск завершается ошибкой
	if _, ok := cmd().(player.PlaybackErrorMsg); !ok {
		t.Error("Ожидалось PlaybackErrorMsg без голосового менеджера")
	}

	// Возврат к списку треков
	updatedModel, _ = model.Update(player.GoBackMsg{})
	model = updatedModel.(*mainModel)

	if model.currentScreen != tracklistScreen {
		t.Errorf("Ожидался экран списка после GoBackMsg, получено %v", model.currentScreen)
	}
	if model.playerModel != nil {
		t.Error("Модель плеера должна быть сброшена после GoBackMsg")
	}

	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("Ожидалась команда tea.Quit после Ctrl+C")
	}
}

func TestMainModelView(t *testing.T) {
	catalog := newTestCatalog(t)
	model := newMainModel(catalog, playback.NewCoordinator(nil))

	if model.View() == "" {
		t.Error("Ожидалось непустое отображение списка")
	}

	updatedModel, _ := model.Update(tracklist.TrackSelectedMsg{Track: catalog.Current().Tracks()[0]})
	model = updatedModel.(*mainModel)
	if model.View() == "" {
		t.Error("Ожидалось непустое отображение плеера")
	}

	model.currentScreen = screenType(999)
	if view := model.View(); view != "Неизвестный экран" {
		t.Errorf("Ожидалось 'Неизвестный экран', получено '%s'", view)
	}
}

func TestAppRunRequiresVoice(t *testing.T) {
	app := NewApp(newTestCatalog(t), playback.NewCoordinator(nil))
	if err := app.Run(context.Background()); err == nil {
		t.Error("Ожидалась ошибка без голосового менеджера")
	}
}
