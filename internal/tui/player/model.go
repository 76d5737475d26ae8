// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/kura-voice/internal/playback"
	"github.com/hazadus/kura-voice/internal/player"
	"github.com/hazadus/kura-voice/internal/track"
	"github.com/hazadus/kura-voice/internal/utils"
)

// tickInterval период опроса позиции трека
const tickInterval = 200 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// GoBackMsg отправляется для возврата к списку треков
type GoBackMsg struct{}

// StartedMsg отправляется после запуска трека
type StartedMsg struct {
	Handle playback.Handle
}

// PlaybackFinishedMsg отправляется при завершении воспроизведения
type PlaybackFinishedMsg struct{}

// PlaybackErrorMsg отправляется при ошибке воспроизведения
type PlaybackErrorMsg struct {
	Error error
}

// LoopToggledMsg результат переключения повтора
type LoopToggledMsg struct {
	Enabled bool
	Error   error
}

type tickMsg struct{}

// statusReporter трек, который умеет сообщать позицию
type statusReporter interface {
	Status() player.Status
	Done() <-chan struct{}
}

// Model представляет модель экрана воспроизведения
type Model struct {
	track       track.Track
	coordinator *playback.Coordinator
	group       string

	handle      playback.Handle
	progressBar progress.Model
	status      player.Status
	looping     bool
	stopped     bool
	error       error
	width       int
	height      int
}

// NewModel создает модель плеера. Трек запускается координатором в группе group.
func NewModel(t track.Track, coordinator *playback.Coordinator, group string) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		track:       t,
		coordinator: coordinator,
		group:       group,
		progressBar: prog,
		looping:     coordinator.State(group).LoopEnabled,
	}
}

// Init запускает воспроизведение
func (m *Model) Init() tea.Cmd {
	return m.startPlayback()
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Sequence(m.stopPlayback(), func() tea.Msg {
				return GoBackMsg{}
			})

		case "s":
			m.stopped = true
			return m, m.stopPlayback()

		case "l":
			return m, m.toggleLoop()
		}

	case StartedMsg:
		m.handle = msg.Handle
		m.stopped = false
		return m, tick()

	case tickMsg:
		return m, m.refresh()

	case LoopToggledMsg:
		m.looping = msg.Enabled
		m.error = msg.Error
		return m, nil

	case PlaybackFinishedMsg:
		if m.stopped {
			return m, nil
		}
		return m, func() tea.Msg {
			return GoBackMsg{}
		}

	case PlaybackErrorMsg:
		m.error = msg.Error
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// refresh читает позицию трека и планирует следующий опрос
func (m *Model) refresh() tea.Cmd {
	reporter, ok := m.handle.(statusReporter)
	if !ok {
		return nil
	}
	select {
	case <-reporter.Done():
		m.status = player.Status{}
		return func() tea.Msg { return PlaybackFinishedMsg{} }
	default:
	}

	m.status = reporter.Status()
	var percent float64
	if m.status.Total > 0 {
		percent = float64(m.status.Current) / float64(m.status.Total)
	}
	return tea.Batch(m.progressBar.SetPercent(percent), tick())
}

// View отображает модель
func (m *Model) View() string {
	if m.error != nil {
		return fmt.Sprintf(
			"%s\n\n%s\n\n%s",
			titleStyle.Render("❌ Ошибка воспроизведения"),
			errorStyle.Render(m.error.Error()),
			controlsStyle.Render("Нажмите 'q' или 'esc' для возврата"),
		)
	}

	title := titleStyle.Render("🎵 Воспроизведение")
	trackInfo := trackInfoStyle.Render(fmt.Sprintf("🎵 %s\n📁 %s", m.track.Stem, m.track.Path))

	statusIcon := "▶️"
	statusText := "Воспроизведение"
	if m.stopped || m.handle == nil {
		statusIcon, statusText = "⏹️", "Остановлено"
	}
	loopText := "выкл"
	if m.looping {
		loopText = "вкл"
	}
	status := statusStyle.Render(fmt.Sprintf("%s %s • 🔁 повтор: %s", statusIcon, statusText, loopText))

	timeText := fmt.Sprintf(
		"%s / %s",
		utils.FormatDuration(m.status.Current),
		utils.FormatDuration(m.status.Total),
	)

	controls := controlsStyle.Render("l: повтор • s: стоп • q/esc: назад к списку")

	return fmt.Sprintf(
		"%s\n\n%s\n\n%s\n\n%s\n%s\n\n%s",
		title,
		trackInfo,
		status,
		m.progressBar.View(),
		timeText,
		controls,
	)
}

// startPlayback запускает трек через координатор
func (m *Model) startPlayback() tea.Cmd {
	return func() tea.Msg {
		h, err := m.coordinator.BeginPlayback(context.Background(), m.group, m.track.Path)
		if err != nil {
			return PlaybackErrorMsg{Error: err}
		}
		return StartedMsg{Handle: h}
	}
}

func (m *Model) stopPlayback() tea.Cmd {
	return func() tea.Msg {
		if err := m.coordinator.Stop(context.Background(), m.group); err != nil {
			return PlaybackErrorMsg{Error: err}
		}
		return nil
	}
}

func (m *Model) toggleLoop() tea.Cmd {
	return func() tea.Msg {
		enabled, err := m.coordinator.ToggleLoop(context.Background(), m.group)
		return LoopToggledMsg{Enabled: enabled, Error: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
