package track

import (
	"math/rand/v2"
	"sort"
	"strings"
)

// Resolve ищет треки по запросу в два этапа: сначала по префиксу
// нормализованного имени, и только если таких нет, по вхождению подстроки.
// Пустой запрос совпадает со всеми треками снимка.
func Resolve(snap *Snapshot, query string) ([]Track, error) {
	q := Normalize(query)
	if q == "" {
		return snap.Tracks(), nil
	}

	matches := filter(snap.tracks, func(t Track) bool {
		return strings.HasPrefix(t.Key, q)
	})
	if len(matches) == 0 {
		matches = filter(snap.tracks, func(t Track) bool {
			return strings.Contains(t.Key, q)
		})
	}
	if len(matches) == 0 {
		return nil, &NoMatchError{Query: query, Root: snap.root}
	}
	return matches, nil
}

// Pick выбирает один трек равновероятно. Список не должен быть пустым.
func Pick(tracks []Track, rng *rand.Rand) Track {
	if rng == nil {
		return tracks[rand.IntN(len(tracks))]
	}
	return tracks[rng.IntN(len(tracks))]
}

// Stems возвращает отсортированные имена треков без удаления повторов
func Stems(tracks []Track) []string {
	stems := make([]string, 0, len(tracks))
	for _, t := range tracks {
		stems = append(stems, t.Stem)
	}
	sort.Strings(stems)
	return stems
}

func filter(tracks []Track, keep func(Track) bool) []Track {
	var out []Track
	for _, t := range tracks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
