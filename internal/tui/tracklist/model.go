// Package tracklist содержит модель экрана списка треков для TUI
package tracklist

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/kura-voice/internal/track"
	"github.com/hazadus/kura-voice/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	errorStyle        = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("#ff0000"))
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

// TrackSelectedMsg отправляется при выборе трека для воспроизведения
type TrackSelectedMsg struct {
	Track track.Track
}

// reindexedMsg результат перестроения индекса
type reindexedMsg struct {
	snap *track.Snapshot
	err  error
}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	track track.Track
	rel   string
}

func (i trackItem) FilterValue() string {
	return i.track.Key
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct{}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	// Название | путь относительно корня кэша
	str := fmt.Sprintf("%-40s %s",
		utils.TruncateString(i.track.Stem, 40),
		utils.TruncateString(i.rel, 60))

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана списка треков
type Model struct {
	list     list.Model
	catalog  *track.Manager
	err      error
	quitting bool
}

// NewModel создает новую модель списка треков по опубликованному снимку
func NewModel(catalog *track.Manager) *Model {
	l := list.New(nil, trackItemDelegate{}, 0, 0)
	l.Title = "Треки"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	m := &Model{
		list:    l,
		catalog: catalog,
	}
	m.setSnapshot(catalog.Current())
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// Len возвращает количество треков в списке
func (m *Model) Len() int {
	return len(m.list.Items())
}

// RefreshData обновляет элементы из текущего снимка без пересоздания модели
func (m *Model) RefreshData() {
	m.setSnapshot(m.catalog.Current())
}

func (m *Model) setSnapshot(snap *track.Snapshot) {
	if snap == nil {
		m.list.SetItems(nil)
		return
	}
	tracks := snap.Tracks()
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		rel, err := filepath.Rel(snap.Root(), t.Path)
		if err != nil {
			rel = t.Path
		}
		items[i] = trackItem{track: t, rel: rel}
	}
	m.list.SetItems(items)
}

// reindex перестраивает индекс в фоне
func (m *Model) reindex() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.catalog.Reindex(context.Background())
		return reindexedMsg{snap: snap, err: err}
	}
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4) // Оставляем место для заголовка и справки
		return m, nil

	case reindexedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.setSnapshot(msg.snap)
		}
		return m, nil

	case tea.KeyMsg:
		// Во время ввода фильтра клавиши принадлежат списку
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "r":
			return m, m.reindex()

		case "enter":
			if item, ok := m.list.SelectedItem().(trackItem); ok {
				return m, func() tea.Msg {
					return TrackSelectedMsg{Track: item.track}
				}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	if m.quitting {
		return quitTextStyle.Render("До свидания!")
	}

	view := m.list.View()
	if m.err != nil {
		view += "\n" + errorStyle.Render(m.err.Error())
	}
	extraHelp := helpStyle.Render("Enter: воспроизвести • r: переиндексировать • q: выход")
	return view + "\n" + extraHelp
}
