// Package player содержит локальный голосовой бэкенд: треки из кэша
// воспроизводятся через динамики компьютера.
package player

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/kura-voice/internal/playback"
)

var log = logging.Logger("player")

// DefaultSampleRate частота дискретизации выхода
const DefaultSampleRate = beep.SampleRate(44100)

// SupportedExtensions расширения файлов, которые декодирует локальный плеер
var SupportedExtensions = []string{"mp3", "wav"}

// Supports сообщает, может ли локальный плеер воспроизвести файлы с расширением ext
func Supports(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return slices.Contains(SupportedExtensions, ext)
}

// Status представляет текущий статус трека
type Status struct {
	Current time.Duration // Текущая позиция
	Total   time.Duration // Общая продолжительность
	Looping bool
	Playing bool
}

// Player локальный голосовой менеджер. Реализует playback.Voice:
// каждая группа получает собственную сессию, все сессии звучат через один выход.
type Player struct {
	out        Output
	sampleRate beep.SampleRate

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewPlayer создает плеер, выводящий звук на динамики
func NewPlayer() *Player {
	return New(&speakerOutput{}, DefaultSampleRate)
}

// New создает плеер поверх произвольного выхода
func New(out Output, sr beep.SampleRate) *Player {
	return &Player{
		out:        out,
		sampleRate: sr,
		sessions:   make(map[string]*Session),
	}
}

// Join создает сессию группы. Канал для локального выхода не используется.
func (p *Player) Join(_ context.Context, group, _ string) (playback.Session, error) {
	if err := p.out.Init(p.sampleRate); err != nil {
		return nil, fmt.Errorf("ошибка инициализации динамиков: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[group]
	if !ok {
		s = &Session{player: p}
		p.sessions[group] = s
	}
	return s, nil
}

// Leave останавливает треки группы и удаляет ее сессию
func (p *Player) Leave(ctx context.Context, group string) error {
	p.mu.Lock()
	s, ok := p.sessions[group]
	delete(p.sessions, group)
	p.mu.Unlock()

	if ok {
		return s.ClearQueue(ctx)
	}
	return nil
}

// Session возвращает сессию группы
func (p *Player) Session(group string) (playback.Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[group]
	if !ok {
		return nil, false
	}
	return s, true
}

// Close останавливает все сессии
func (p *Player) Close() error {
	p.mu.Lock()
	sessions := p.sessions
	p.sessions = make(map[string]*Session)
	p.mu.Unlock()

	for _, s := range sessions {
		_ = s.ClearQueue(context.Background())
	}
	return nil
}

// Session набор треков, запущенных группой
type Session struct {
	player *Player

	mu     sync.Mutex
	tracks []*Track
}

// Play декодирует файл и начинает его воспроизведение
func (s *Session) Play(_ context.Context, path string) (playback.Handle, error) {
	t, err := s.player.open(path)
	if err != nil {
		return nil, err
	}

	t.onFinish = s.forget
	s.mu.Lock()
	s.tracks = append(s.tracks, t)
	s.mu.Unlock()

	s.player.out.Play(beep.Seq(t.ctrl, beep.Callback(t.finish)))
	log.Debugw("локальное воспроизведение", "path", path)
	return t, nil
}

// ClearQueue останавливает все треки сессии
func (s *Session) ClearQueue(ctx context.Context) error {
	s.mu.Lock()
	tracks := s.tracks
	s.tracks = nil
	s.mu.Unlock()

	for _, t := range tracks {
		_ = t.Stop(ctx)
	}
	return nil
}

// forget убирает закончившийся трек из сессии
func (s *Session) forget(t *Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = slices.DeleteFunc(s.tracks, func(x *Track) bool { return x == t })
}

func (p *Player) open(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}

	var (
		source beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		source, format, err = mp3.Decode(f)
	case ".wav":
		source, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("формат %s не поддерживается локальным плеером", ext)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ошибка декодирования %s: %w", path, err)
	}

	loop := &loopStreamer{s: source}
	var stream beep.Streamer = loop
	if format.SampleRate != p.sampleRate {
		stream = beep.Resample(4, format.SampleRate, p.sampleRate, stream)
	}
	gain := &effects.Gain{Streamer: stream}

	return &Track{
		out:    p.out,
		path:   path,
		format: format,
		file:   f,
		source: source,
		loop:   loop,
		gain:   gain,
		ctrl:   &beep.Ctrl{Streamer: gain},
		done:   make(chan struct{}),
	}, nil
}

// Track трек локального плеера. Реализует playback.Handle.
// Поля цепочки потоков меняются только под блокировкой выхода.
type Track struct {
	out    Output
	path   string
	format beep.Format
	file   *os.File
	source beep.StreamSeekCloser
	loop   *loopStreamer
	gain   *effects.Gain
	ctrl   *beep.Ctrl

	once sync.Once
	done chan struct{}
	// onFinish вызывается один раз после окончания или остановки трека
	onFinish func(*Track)
}

// SetGain задает громкость: 1 соответствует исходному уровню
func (t *Track) SetGain(_ context.Context, level float64) error {
	if level < 0 {
		return fmt.Errorf("некорректная громкость %v", level)
	}
	t.out.Lock()
	t.gain.Gain = level - 1
	t.out.Unlock()
	return nil
}

// EnableLoop включает повтор
func (t *Track) EnableLoop(context.Context) error {
	t.setLoop(true)
	return nil
}

// DisableLoop выключает повтор
func (t *Track) DisableLoop(context.Context) error {
	t.setLoop(false)
	return nil
}

func (t *Track) setLoop(enabled bool) {
	t.out.Lock()
	t.loop.enabled = enabled
	t.out.Unlock()
}

// Stop останавливает трек. Повторная остановка не является ошибкой.
func (t *Track) Stop(context.Context) error {
	t.out.Lock()
	t.ctrl.Streamer = nil
	t.out.Unlock()
	t.finish()
	return nil
}

// Done закрывается после окончания или остановки трека
func (t *Track) Done() <-chan struct{} {
	return t.done
}

// Status возвращает позицию и состояние трека
func (t *Track) Status() Status {
	select {
	case <-t.done:
		return Status{}
	default:
	}

	t.out.Lock()
	defer t.out.Unlock()
	return Status{
		Current: t.format.SampleRate.D(t.source.Position()),
		Total:   t.format.SampleRate.D(t.source.Len()),
		Looping: t.loop.enabled,
		Playing: t.ctrl.Streamer != nil,
	}
}

// finish освобождает декодер и файл
func (t *Track) finish() {
	t.once.Do(func() {
		if err := t.source.Close(); err != nil {
			log.Debugw("ошибка закрытия декодера", "path", t.path, "error", err)
		}
		_ = t.file.Close()
		close(t.done)
		if t.onFinish != nil {
			t.onFinish(t)
		}
	})
}
