// Package track содержит логику индексации кэша аудиофайлов и поиска треков по имени
package track

import "strings"

// Track описывает один кэшированный аудиофайл
type Track struct {
	Stem string // Имя файла без расширения, для отображения
	Key  string // Нормализованное имя для поиска
	Path string // Путь к файлу, уникален в пределах снимка
}

// NewTrack создает трек по имени и пути файла
func NewTrack(stem, path string) Track {
	return Track{
		Stem: stem,
		Key:  Normalize(stem),
		Path: path,
	}
}

// Normalize приводит строку к виду, используемому при сравнении имен
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Snapshot неизменяемый список треков на момент индексации.
// Порядок треков совпадает с порядком обхода каталога.
type Snapshot struct {
	root   string
	tracks []Track
}

// NewSnapshot создает снимок из готового списка треков
func NewSnapshot(root string, tracks []Track) *Snapshot {
	return &Snapshot{
		root:   root,
		tracks: append([]Track(nil), tracks...),
	}
}

// Root возвращает каталог, из которого построен снимок
func (s *Snapshot) Root() string {
	return s.root
}

// Len возвращает количество треков
func (s *Snapshot) Len() int {
	return len(s.tracks)
}

// Tracks возвращает копию списка треков
func (s *Snapshot) Tracks() []Track {
	return append([]Track(nil), s.tracks...)
}
