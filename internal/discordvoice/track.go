package discordvoice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hazadus/kura-voice/internal/oggopus"
)

// Track воспроизводит файл Ogg Opus, передавая пакеты в голосовое соединение без перекодирования.
// Реализует playback.Handle и voice.OpusFrameProvider.
type Track struct {
	path string

	mu      sync.Mutex
	file    *os.File
	reader  *oggopus.Reader
	looping bool
	stopped bool
	gain    float64

	// onStop вызывается один раз при остановке или окончании трека
	onStop func(*Track)
}

// OpenTrack открывает файл и проверяет, что в нем есть хотя бы один пакет Opus
func OpenTrack(path string) (*Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", path, err)
	}
	t := &Track{
		path:   path,
		file:   file,
		reader: oggopus.NewReader(file),
		gain:   1,
	}

	if _, err := t.reader.ReadPacket(); err != nil {
		file.Close()
		return nil, fmt.Errorf("файл %s не содержит аудио opus: %w", path, err)
	}
	if err := t.rewindLocked(); err != nil {
		file.Close()
		return nil, fmt.Errorf("ошибка перемотки файла %s: %w", path, err)
	}
	return t, nil
}

// Path возвращает путь к файлу трека
func (t *Track) Path() string {
	return t.path
}

// ProvideOpusFrame возвращает следующий пакет Opus.
// После окончания файла при включенном повторе трек начинается заново.
func (t *Track) ProvideOpusFrame() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return nil, io.EOF
	}

	for rewound := false; ; rewound = true {
		pkt, err := t.reader.ReadPacket()
		if err == nil {
			return pkt, nil
		}
		if !errors.Is(err, io.EOF) || !t.looping || rewound {
			if !errors.Is(err, io.EOF) {
				log.Warnw("ошибка чтения трека", "path", t.path, "error", err)
			}
			t.finishLocked()
			return nil, io.EOF
		}
		if err := t.rewindLocked(); err != nil {
			log.Warnw("ошибка перемотки трека", "path", t.path, "error", err)
			t.finishLocked()
			return nil, io.EOF
		}
	}
}

// Close освобождает файл трека
func (t *Track) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finishLocked()
}

// SetGain запоминает громкость. Пакеты Opus передаются без декодирования,
// поэтому уровень, отличный от 1, не влияет на звук.
func (t *Track) SetGain(_ context.Context, level float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if level != 1 {
		log.Debugw("громкость не применяется к потоку opus", "path", t.path, "gain", level)
	}
	t.gain = level
	return nil
}

// EnableLoop включает повтор трека
func (t *Track) EnableLoop(context.Context) error {
	return t.setLoop(true)
}

// DisableLoop выключает повтор трека
func (t *Track) DisableLoop(context.Context) error {
	return t.setLoop(false)
}

// Stop останавливает трек. Повторная остановка не является ошибкой.
func (t *Track) Stop(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finishLocked()
	return nil
}

// Looping сообщает, включен ли повтор
func (t *Track) Looping() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.looping
}

// Stopped сообщает, остановлен ли трек
func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// setLoop меняет флаг повтора. У завершенного трека флаг только запоминается.
func (t *Track) setLoop(enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.looping = enabled
	return nil
}

func (t *Track) rewindLocked() error {
	if _, err := t.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	t.reader = oggopus.NewReader(t.file)
	return nil
}

func (t *Track) finishLocked() {
	if t.stopped {
		return
	}
	t.stopped = true
	if err := t.file.Close(); err != nil {
		log.Debugw("ошибка закрытия файла", "path", t.path, "error", err)
	}
	if t.onStop != nil {
		go t.onStop(t)
	}
}
