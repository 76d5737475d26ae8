// Package discordvoice подключает координатор воспроизведения к голосовым каналам Discord
package discordvoice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/voice"
	"github.com/disgoorg/snowflake/v2"
	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/kura-voice/internal/playback"
)

var log = logging.Logger("discordvoice")

// Ожидание событий шлюза при подключении и отключении ограничено по времени
const (
	openTimeout  = 15 * time.Second
	closeTimeout = 5 * time.Second
)

// Conn часть голосового соединения disgo, используемая менеджером
type Conn interface {
	Open(ctx context.Context, channelID snowflake.ID, selfMute, selfDeaf bool) error
	Close(ctx context.Context)
	ChannelID() *snowflake.ID
	SetOpusFrameProvider(provider voice.OpusFrameProvider)
	SetSpeaking(ctx context.Context, flags voice.SpeakingFlags) error
}

// Manager хранит голосовые сессии серверов. Реализует playback.Voice.
// Мьютекс защищает только карту сессий: подключение и отключение
// выполняются без него и не задерживают другие серверы.
type Manager struct {
	newConn func(guildID snowflake.ID) Conn

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager создает менеджер поверх клиента disgo
func NewManager(client *bot.Client) *Manager {
	return newManager(func(guildID snowflake.ID) Conn {
		return client.VoiceManager.CreateConn(guildID)
	})
}

func newManager(newConn func(guildID snowflake.ID) Conn) *Manager {
	return &Manager{
		newConn:  newConn,
		sessions: make(map[string]*Session),
	}
}

// Join подключается к голосовому каналу сервера.
// Повторный вызов для того же канала возвращает существующую сессию,
// для другого канала переподключает сервер.
func (m *Manager) Join(ctx context.Context, group, channel string) (playback.Session, error) {
	guildID, err := snowflake.Parse(group)
	if err != nil {
		return nil, fmt.Errorf("некорректный идентификатор сервера %q: %w", group, err)
	}
	channelID, err := snowflake.Parse(channel)
	if err != nil {
		return nil, fmt.Errorf("некорректный идентификатор канала %q: %w", channel, err)
	}

	m.mu.Lock()
	prev, ok := m.sessions[group]
	if ok && prev.channel() == channelID {
		m.mu.Unlock()
		return prev, nil
	}
	delete(m.sessions, group)
	m.mu.Unlock()

	if prev != nil {
		prev.close(ctx)
	}

	openCtx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	conn := m.newConn(guildID)
	if err := conn.Open(openCtx, channelID, false, true); err != nil {
		closeConn(ctx, conn)
		return nil, fmt.Errorf("ошибка подключения к каналу %s: %w", channel, err)
	}

	s := &Session{channelID: channelID, conn: conn}
	m.mu.Lock()
	stale := m.sessions[group]
	m.sessions[group] = s
	m.mu.Unlock()
	if stale != nil {
		stale.close(ctx)
	}

	log.Infow("голосовое соединение открыто", "guild", group, "channel", channel)
	return s, nil
}

// Leave закрывает соединение сервера. Отсутствие сессии не является ошибкой.
func (m *Manager) Leave(ctx context.Context, group string) error {
	s, ok := m.take(group)
	if !ok {
		return nil
	}
	s.close(ctx)
	log.Infow("голосовое соединение закрыто", "guild", group)
	return nil
}

// Session возвращает сессию сервера
func (m *Manager) Session(group string) (playback.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[group]
	if !ok {
		return nil, false
	}
	return s, true
}

// VoiceStateChanged учитывает изменение голосового состояния бота, сделанное
// не через менеджер: отключение от канала (кик, удаление канала) забывает
// сессию, перемещение запоминает новый канал.
func (m *Manager) VoiceStateChanged(group string, channelID *snowflake.ID) {
	m.mu.Lock()
	s, ok := m.sessions[group]
	if !ok {
		m.mu.Unlock()
		return
	}
	if channelID != nil {
		s.setChannel(*channelID)
		m.mu.Unlock()
		return
	}
	// Событие от закрытия прежнего соединения при переподключении
	// не относится к уже открытой сессии
	if s.conn.ChannelID() != nil {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, group)
	m.mu.Unlock()

	log.Warnw("бот отключен от голосового канала извне", "guild", group)
	s.close(context.Background())
}

// Close закрывает все соединения
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close(ctx)
	}
}

func (m *Manager) take(group string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[group]
	delete(m.sessions, group)
	return s, ok
}

func closeConn(ctx context.Context, conn Conn) {
	ctx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()
	conn.Close(ctx)
}

// Session голосовое соединение одного сервера. В каждый момент
// соединению передаются пакеты не более чем одного трека.
type Session struct {
	conn Conn

	mu        sync.Mutex
	channelID snowflake.ID
	current   *Track
}

func (s *Session) channel() snowflake.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

func (s *Session) setChannel(id snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelID = id
}

// Play открывает файл и начинает передавать его в канал
func (s *Session) Play(ctx context.Context, path string) (playback.Handle, error) {
	t, err := OpenTrack(path)
	if err != nil {
		return nil, err
	}
	t.onStop = s.detach

	s.mu.Lock()
	prev := s.current
	s.current = t
	s.conn.SetOpusFrameProvider(t)
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Stop(ctx)
	}
	if err := s.conn.SetSpeaking(ctx, voice.SpeakingFlagMicrophone); err != nil {
		log.Debugw("ошибка установки статуса речи", "error", err)
	}
	return t, nil
}

// ClearQueue останавливает передачу текущего трека
func (s *Session) ClearQueue(ctx context.Context) error {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.conn.SetOpusFrameProvider(silence{})
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Stop(ctx)
	}
	return nil
}

// detach отключает закончившийся трек от соединения
func (s *Session) detach(t *Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != t {
		return
	}
	s.current = nil
	s.conn.SetOpusFrameProvider(silence{})
}

func (s *Session) close(ctx context.Context) {
	_ = s.ClearQueue(ctx)
	closeConn(ctx, s.conn)
}

// silence поставщик без звука для соединения без трека
type silence struct{}

func (silence) ProvideOpusFrame() ([]byte, error) { return nil, nil }

func (silence) Close() {}
