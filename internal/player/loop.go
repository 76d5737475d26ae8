package player

import "github.com/gopxl/beep"

// loopStreamer перематывает источник в начало при включенном повторе
type loopStreamer struct {
	s       beep.StreamSeeker
	enabled bool
	err     error
}

func (l *loopStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		sn, sok := l.s.Stream(samples[n:])
		n += sn
		if sok && sn > 0 {
			continue
		}
		if !l.enabled || l.s.Len() == 0 {
			break
		}
		if err := l.s.Seek(0); err != nil {
			l.err = err
			break
		}
	}
	return n, n > 0
}

func (l *loopStreamer) Err() error {
	if l.err != nil {
		return l.err
	}
	return l.s.Err()
}
