package oggopus

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawPage собирает страницу Ogg с заданной таблицей сегментов
func rawPage(flags byte, lacing []byte, body []byte) []byte {
	return rawPageAt(flags, 0, lacing, body)
}

func rawPageAt(flags byte, granule uint64, lacing []byte, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("OggS")
	buf.WriteByte(0)
	buf.WriteByte(flags)
	_ = binary.Write(&buf, binary.LittleEndian, granule)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(1)) // serial
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0)) // sequence
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0)) // crc
	buf.WriteByte(byte(len(lacing)))
	buf.Write(lacing)
	buf.Write(body)
	return buf.Bytes()
}

// page собирает страницу из целых пакетов
func page(packets ...[]byte) []byte {
	var (
		lacing []byte
		body   []byte
	)
	for _, p := range packets {
		n := len(p)
		for n >= 255 {
			lacing = append(lacing, 255)
			n -= 255
		}
		lacing = append(lacing, byte(n))
		body = append(body, p...)
	}
	return rawPage(0, lacing, body)
}

func opusStream(packets ...[]byte) []byte {
	var buf bytes.Buffer
	buf.Write(page([]byte("OpusHead\x01\x02\x38\x01\x80\xbb\x00\x00\x00\x00\x00")))
	buf.Write(page([]byte("OpusTags-vendor")))
	buf.Write(page(packets...))
	return buf.Bytes()
}

func readAll(t *testing.T, r *Reader) [][]byte {
	t.Helper()
	var out [][]byte
	for {
		pkt, err := r.ReadPacket()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, pkt)
	}
}

func TestOggReader_SkipsHeaders(t *testing.T) {
	r := NewReader(bytes.NewReader(opusStream([]byte("a"), []byte("bb"), []byte("ccc"))))

	assert.Equal(t, [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}, readAll(t, r))
}

func TestOggReader_LargePacket(t *testing.T) {
	big := bytes.Repeat([]byte{0x42}, 600)
	r := NewReader(bytes.NewReader(opusStream(big, []byte("x"))))

	packets := readAll(t, r)
	require.Len(t, packets, 2)
	assert.Equal(t, big, packets[0])
}

func TestOggReader_PacketSpansPages(t *testing.T) {
	first := bytes.Repeat([]byte{1}, 255)
	rest := []byte{2, 2, 2}

	var stream bytes.Buffer
	stream.Write(rawPage(0, []byte{255}, first))
	stream.Write(rawPage(flagContinued, []byte{3, 1}, append(append([]byte{}, rest...), 9)))

	packets := readAll(t, NewReader(&stream))
	require.Len(t, packets, 2)
	assert.Equal(t, append(append([]byte{}, first...), rest...), packets[0])
	assert.Equal(t, []byte{9}, packets[1])
}

func TestOggReader_Errors(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("RIFF....WAVEfmt xxxxxxxxxxxxxxxxxxxx"))).ReadPacket()
	assert.ErrorIs(t, err, ErrBadPage)

	valid := page([]byte("abc"))
	_, err = NewReader(bytes.NewReader(valid[:len(valid)-1])).ReadPacket()
	assert.ErrorIs(t, err, ErrBadPage)

	_, err = NewReader(bytes.NewReader(nil)).ReadPacket()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_Duration(t *testing.T) {
	// pre-skip 312 сэмплов, последняя гранула 48312: ровно одна секунда
	head := []byte("OpusHead\x01\x02\x38\x01\x80\xbb\x00\x00\x00\x00\x00")
	var stream bytes.Buffer
	stream.Write(page(head))
	stream.Write(page([]byte("OpusTags-vendor")))
	stream.Write(rawPageAt(0, 24000, []byte{1}, []byte("a")))
	stream.Write(rawPageAt(0, 48312, []byte{1}, []byte("b")))

	d, err := NewReader(&stream).Duration()
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}
