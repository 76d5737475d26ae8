// Package metadata предоставляет функционал для извлечения метаданных из файлов кэша
package metadata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"

	"github.com/hazadus/kura-voice/internal/oggopus"
	"github.com/hazadus/kura-voice/internal/track"
)

// TrackMetadata хранит метаданные трека
type TrackMetadata struct {
	Artist string
	Title  string
	Album  string
}

// Info сведения о треке из кэша
type Info struct {
	TrackMetadata
	Stem     string
	Path     string
	Format   string
	Size     int64
	Duration time.Duration
}

// Extractor извлекает метаданные из аудио файлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Describe собирает теги, размер и длительность трека.
// Если тегов нет, исполнитель и название берутся из имени файла.
func (e *Extractor) Describe(t track.Track) (*Info, error) {
	stat, err := os.Stat(t.Path)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	duration, err := e.GetDuration(t.Path)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения длительности: %w", err)
	}

	return &Info{
		TrackMetadata: e.ExtractFromFile(t.Path),
		Stem:          t.Stem,
		Path:          t.Path,
		Format:        strings.TrimPrefix(strings.ToLower(filepath.Ext(t.Path)), "."),
		Size:          stat.Size(),
		Duration:      duration,
	}, nil
}

// ExtractFromReader извлекает метаданные из io.Reader
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker, source string) TrackMetadata {
	// Сбрасываем reader в начало
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return e.getDefaultMetadata(source)
	}

	metadata, err := tag.ReadFrom(reader)
	if err != nil || (metadata.Artist() == "" && metadata.Title() == "") {
		return e.getDefaultMetadata(source)
	}

	return TrackMetadata{
		Artist: metadata.Artist(),
		Title:  metadata.Title(),
		Album:  metadata.Album(),
	}
}

// ExtractFromFile извлекает метаданные из файла
func (e *Extractor) ExtractFromFile(filePath string) TrackMetadata {
	file, err := os.Open(filePath)
	if err != nil {
		return e.getDefaultMetadata(filePath)
	}
	defer file.Close()

	return e.ExtractFromReader(file, filePath)
}

// GetDuration получает длительность файла по его расширению.
// Для неизвестных форматов возвращает 0 без ошибки.
func (e *Extractor) GetDuration(filePath string) (time.Duration, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".opus", ".ogg":
		d, err := oggopus.NewReader(file).Duration()
		if err != nil {
			return 0, fmt.Errorf("ошибка чтения ogg: %w", err)
		}
		return d, nil
	case ".mp3":
		streamer, format, err := mp3.Decode(file)
		if err != nil {
			return 0, fmt.Errorf("ошибка декодирования MP3: %w", err)
		}
		return streamDuration(streamer, format), nil
	case ".wav":
		streamer, format, err := wav.Decode(file)
		if err != nil {
			return 0, fmt.Errorf("ошибка декодирования WAV: %w", err)
		}
		return streamDuration(streamer, format), nil
	default:
		return 0, nil
	}
}

func streamDuration(s beep.StreamSeekCloser, format beep.Format) time.Duration {
	defer s.Close()
	return format.SampleRate.D(s.Len())
}

// getDefaultMetadata возвращает метаданные по умолчанию на основе имени файла
func (e *Extractor) getDefaultMetadata(source string) TrackMetadata {
	fileName := filepath.Base(source)
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	// Пытаемся разобрать имя файла в формате "Artist - Title"
	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return TrackMetadata{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}

	// Если не удалось разобрать, используем имя файла как название
	return TrackMetadata{
		Artist: "Unknown Artist",
		Title:  nameWithoutExt,
	}
}
