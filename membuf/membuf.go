package membuf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bits-and-blooms/bitset"
)

// Image is a fixed-size memory image. Every byte starts out as the filler
// value; WriteAt overwrites bytes in place and records which offsets were
// written.
type Image struct {
	base    uint32
	buf     []byte
	covered *bitset.BitSet
}

// Span is a run of image offsets.
type Span struct {
	Offset int64 `json:"offset" cbor:"offset"`
	Len    int64 `json:"len" cbor:"len"`
}

func NewImage(base uint32, size int, filler byte) *Image {
	buf := make([]byte, size)
	if filler != 0 && size > 0 {
		buf[0] = filler
		for n := 1; n < len(buf); n *= 2 {
			copy(buf[n:], buf[:n])
		}
	}

	return &Image{
		base:    base,
		buf:     buf,
		covered: bitset.New(uint(size)),
	}
}

// Base is the address that image offset 0 corresponds to.
func (m *Image) Base() uint32 {
	return m.base
}

func (m *Image) Size() int64 {
	return int64(len(m.buf))
}

func (m *Image) Bytes() []byte {
	return m.buf
}

func (m *Image) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.buf)) {
		return 0, fmt.Errorf("write of %d bytes at offset %d outside image of %d bytes", len(p), off, len(m.buf))
	}

	copy(m.buf[off:], p)
	for i := range p {
		m.covered.Set(uint(off) + uint(i))
	}

	return len(p), nil
}

func (m *Image) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= int64(len(m.buf)) {
		return 0, io.EOF
	}

	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (m *Image) Reader() io.Reader {
	return io.NewSectionReader(m, 0, m.Size())
}

func (m *Image) WriteTo(w io.Writer) (int64, error) {
	return bytes.NewReader(m.buf).WriteTo(w)
}

// Covered is the number of bytes written at least once.
func (m *Image) Covered() int64 {
	return int64(m.covered.Count())
}

// Gaps returns the runs of bytes that still hold the filler value because no
// write touched them, in offset order.
func (m *Image) Gaps() []Span {
	var gaps []Span
	size := uint(len(m.buf))

	for i := uint(0); i < size; {
		start, ok := m.covered.NextClear(i)
		if !ok || start >= size {
			break
		}
		end, ok := m.covered.NextSet(start)
		if !ok || end > size {
			end = size
		}
		gaps = append(gaps, Span{Offset: int64(start), Len: int64(end - start)})
		i = end
	}

	return gaps
}

var _ io.WriterAt = (*Image)(nil)
var _ io.ReaderAt = (*Image)(nil)
var _ io.WriterTo = (*Image)(nil)
