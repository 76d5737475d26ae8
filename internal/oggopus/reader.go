// Package oggopus читает пакеты Opus из контейнера Ogg
package oggopus

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	pageHeaderLen = 27
	// flagContinued первый пакет страницы продолжает пакет предыдущей
	flagContinued = 0x01
	// SampleRate частота, в которой считаются гранулы Opus
	SampleRate = 48000
)

var (
	capturePattern = []byte("OggS")
	opusHead       = []byte("OpusHead")
	opusTags       = []byte("OpusTags")
)

// ErrBadPage поток не является корректным Ogg
var ErrBadPage = errors.New("некорректная страница ogg")

// Reader извлекает пакеты Opus из потока Ogg.
// Заголовочные пакеты OpusHead и OpusTags пропускаются.
type Reader struct {
	r       *bufio.Reader
	header  [pageHeaderLen]byte
	lacing  [255]byte
	pending [][]byte
	partial []byte

	granule uint64
	preSkip uint16
}

// NewReader создает читатель поверх r
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadPacket возвращает следующий аудиопакет Opus.
// В конце потока возвращает io.EOF.
func (o *Reader) ReadPacket() ([]byte, error) {
	for {
		for len(o.pending) > 0 {
			pkt := o.pending[0]
			o.pending = o.pending[1:]
			if bytes.HasPrefix(pkt, opusHead) {
				if len(pkt) >= 12 {
					o.preSkip = binary.LittleEndian.Uint16(pkt[10:12])
				}
				continue
			}
			if bytes.HasPrefix(pkt, opusTags) {
				continue
			}
			return pkt, nil
		}
		if err := o.readPage(); err != nil {
			return nil, err
		}
	}
}

// Duration дочитывает поток до конца и возвращает длительность звука
// по грануле последней страницы
func (o *Reader) Duration() (time.Duration, error) {
	for {
		_, err := o.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if o.granule <= uint64(o.preSkip) {
		return 0, nil
	}
	samples := o.granule - uint64(o.preSkip)
	return time.Duration(samples) * time.Second / SampleRate, nil
}

func (o *Reader) readPage() error {
	if _, err := io.ReadFull(o.r, o.header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: обрезанный заголовок", ErrBadPage)
		}
		return err
	}
	if !bytes.Equal(o.header[:4], capturePattern) {
		return fmt.Errorf("%w: нет сигнатуры OggS", ErrBadPage)
	}
	if o.header[4] != 0 {
		return fmt.Errorf("%w: версия %d", ErrBadPage, o.header[4])
	}

	flags := o.header[5]
	segments := int(o.header[26])
	lacing := o.lacing[:segments]
	if _, err := io.ReadFull(o.r, lacing); err != nil {
		return fmt.Errorf("%w: таблица сегментов: %v", ErrBadPage, err)
	}

	size := 0
	for _, l := range lacing {
		size += int(l)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(o.r, body); err != nil {
		return fmt.Errorf("%w: тело страницы: %v", ErrBadPage, err)
	}

	// -1 означает, что на странице не заканчивается ни один пакет
	if g := binary.LittleEndian.Uint64(o.header[6:14]); g != ^uint64(0) {
		o.granule = g
	}
	if flags&flagContinued == 0 {
		o.partial = nil
	}

	offset := 0
	for _, l := range lacing {
		o.partial = append(o.partial, body[offset:offset+int(l)]...)
		offset += int(l)
		if l < 255 {
			o.pending = append(o.pending, o.partial)
			o.partial = nil
		}
	}
	return nil
}
