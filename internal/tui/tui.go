// Package tui содержит браузер каталога: список треков и экран
// воспроизведения через локальный плеер
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/kura-voice/internal/playback"
	"github.com/hazadus/kura-voice/internal/track"
	tuiPlayer "github.com/hazadus/kura-voice/internal/tui/player"
	"github.com/hazadus/kura-voice/internal/tui/tracklist"
)

var log = logging.Logger("tui")

// Group группа, в которой TUI запускает треки
const Group = "local"

// screenType определяет тип текущего экрана
type screenType int

const (
	tracklistScreen screenType = iota
	playerScreen
)

// App TUI приложение
type App struct {
	catalog     *track.Manager
	coordinator *playback.Coordinator
}

// NewApp создает TUI поверх каталога и координатора с локальным голосовым бэкендом
func NewApp(catalog *track.Manager, coordinator *playback.Coordinator) *App {
	return &App{
		catalog:     catalog,
		coordinator: coordinator,
	}
}

// Run подключает локальную группу и запускает TUI
func (tuiApp *App) Run(ctx context.Context) error {
	if err := tuiApp.coordinator.Join(ctx, Group, ""); err != nil {
		return fmt.Errorf("ошибка подключения локального выхода: %w", err)
	}
	defer func() {
		if err := tuiApp.coordinator.Teardown(context.Background(), Group); err != nil {
			log.Warnw("ошибка отключения локального выхода", "error", err)
		}
	}()

	model := newMainModel(tuiApp.catalog, tuiApp.coordinator)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// mainModel переключает экраны списка и плеера
type mainModel struct {
	catalog        *track.Manager
	coordinator    *playback.Coordinator
	currentScreen  screenType
	tracklistModel *tracklist.Model
	playerModel    *tuiPlayer.Model
	width, height  int
}

func newMainModel(catalog *track.Manager, coordinator *playback.Coordinator) *mainModel {
	return &mainModel{
		catalog:        catalog,
		coordinator:    coordinator,
		currentScreen:  tracklistScreen,
		tracklistModel: tracklist.NewModel(catalog),
	}
}

// Init инициализирует модель
func (m *mainModel) Init() tea.Cmd {
	return m.tracklistModel.Init()
}

// Update обрабатывает сообщения
func (m *mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// Останавливаем трек перед выходом
			if err := m.coordinator.Stop(context.Background(), Group); err != nil {
				log.Debugw("остановка перед выходом", "error", err)
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tracklist.TrackSelectedMsg:
		m.currentScreen = playerScreen
		m.playerModel = tuiPlayer.NewModel(msg.Track, m.coordinator, Group)
		size := tea.WindowSizeMsg{Width: m.width, Height: m.height}
		m.playerModel.Update(size)
		return m, m.playerModel.Init()

	case tuiPlayer.GoBackMsg:
		m.currentScreen = tracklistScreen
		m.playerModel = nil
		m.tracklistModel.RefreshData()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentScreen {
	case tracklistScreen:
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)
	case playerScreen:
		if m.playerModel != nil {
			_, cmd = m.playerModel.Update(msg)
		}
	}
	return m, cmd
}

// View отображает интерфейс
func (m *mainModel) View() string {
	switch m.currentScreen {
	case tracklistScreen:
		return m.tracklistModel.View()
	case playerScreen:
		if m.playerModel != nil {
			return m.playerModel.View()
		}
		return "Ошибка: модель плеера не инициализирована"
	default:
		return "Неизвестный экран"
	}
}
