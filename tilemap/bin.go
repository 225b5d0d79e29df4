package tilemap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

type BinWriter struct {
	writer       *bufio.Writer
	littleEndian bool
	endianBuf    []byte
}

func NewBinWriter(file io.Writer, littleEndian bool) *BinWriter {
	return &BinWriter{
		writer:       bufio.NewWriter(file),
		littleEndian: littleEndian,
		endianBuf:    make([]byte, 8),
	}
}

func (w *BinWriter) byteOrder() binary.ByteOrder {
	if w.littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (w *BinWriter) WriteUint8(v uint8) {
	_ = w.writer.WriteByte(v)
}

func (w *BinWriter) WriteUint16(v uint16) {
	w.byteOrder().PutUint16(w.endianBuf, v)
	_, _ = w.writer.Write(w.endianBuf[:2])
}

func (w *BinWriter) WriteUint64(v uint64) {
	w.byteOrder().PutUint64(w.endianBuf, v)
	_, _ = w.writer.Write(w.endianBuf[:8])
}

func (w *BinWriter) Write(bts []byte) {
	_, _ = w.writer.Write(bts)
}

func (w *BinWriter) Flush() error {
	return w.writer.Flush()
}

// BinReader panics on short reads; LoadBinary turns that into an error.
type BinReader struct {
	reader       io.Reader
	littleEndian bool
	endianBuf    []byte
}

func NewBinReader(file io.Reader, littleEndian bool) *BinReader {
	return &BinReader{
		reader:       bufio.NewReader(file),
		littleEndian: littleEndian,
		endianBuf:    make([]byte, 8),
	}
}

func (r *BinReader) ByteOrder() binary.ByteOrder {
	if r.littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (r *BinReader) fill(n int) []byte {
	if _, err := io.ReadFull(r.reader, r.endianBuf[:n]); err != nil {
		panic(err)
	}
	return r.endianBuf[:n]
}

func (r *BinReader) ReadUint8() uint8 {
	return r.fill(1)[0]
}

func (r *BinReader) ReadUint16() uint16 {
	return r.ByteOrder().Uint16(r.fill(2))
}

func (r *BinReader) ReadUint64() uint64 {
	return r.ByteOrder().Uint64(r.fill(8))
}

func (r *BinReader) Read(bts []byte) bool {
	_, err := io.ReadFull(r.reader, bts)
	return err == nil
}

// Binary layout, little endian:
//
//	magic "SHPG" | version u8 | width u16 | height u16
//	per chunk, row-major: kind u8 (0 open, 1 bits) [+ 16 x u64]
var binMagic = [4]byte{'S', 'H', 'P', 'G'}

const binVersion = 1

const (
	chunkOpen uint8 = 0
	chunkBits uint8 = 1
)

var ErrBadFormat = errors.New("tilemap: bad binary map")

// WriteBinary serialises g.
func (g *Grid) WriteBinary(w io.Writer) error {
	bw := NewBinWriter(w, true)
	bw.Write(binMagic[:])
	bw.WriteUint8(binVersion)
	bw.WriteUint16(uint16(g.Width()))
	bw.WriteUint16(uint16(g.Height()))
	for _, c := range g.chunks {
		if c == nil {
			bw.WriteUint8(chunkOpen)
			continue
		}
		bw.WriteUint8(chunkBits)
		for _, word := range c.bits {
			bw.WriteUint64(word)
		}
	}
	return bw.Flush()
}

// ReadBinary parses a grid written by WriteBinary.
func ReadBinary(r io.Reader) (g *Grid, err error) {
	defer func() {
		if p := recover(); p != nil {
			g = nil
			if e, ok := p.(error); ok {
				err = fmt.Errorf("%w: %w", ErrBadFormat, e)
			} else {
				err = fmt.Errorf("%w: %v", ErrBadFormat, p)
			}
		}
	}()

	br := NewBinReader(r, true)
	var magic [4]byte
	if !br.Read(magic[:]) || magic != binMagic {
		return nil, fmt.Errorf("%w: missing magic", ErrBadFormat)
	}
	if v := br.ReadUint8(); v != binVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadFormat, v)
	}
	w, h := br.ReadUint16(), br.ReadUint16()
	if g, err = New(int(w), int(h)); err != nil {
		return nil, err
	}
	for i := range g.chunks {
		switch br.ReadUint8() {
		case chunkOpen:
		case chunkBits:
			c := &chunk{}
			for j := range c.bits {
				c.bits[j] = br.ReadUint64()
			}
			c.blocked = c.count()
			if c.blocked > 0 {
				g.chunks[i] = c
			}
		default:
			return nil, fmt.Errorf("%w: chunk %d kind", ErrBadFormat, i)
		}
	}
	return g, nil
}
