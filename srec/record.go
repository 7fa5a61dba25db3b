package srec

import (
	"bytes"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// https://en.wikipedia.org/wiki/SREC_(file_format)#Record_structure

const (
	// Sentinel starts every S-record line.
	Sentinel = 'S'

	// LineLen bounds an input line, terminator included.
	LineLen = 1024

	headerLen = 4 // S, type, 2 count digits
)

var (
	ErrNotRecord       = errors.New("not an S-record")
	ErrMalformedRecord = errors.New("malformed S-record")
	ErrLineTooLong     = errors.New("line too long")
)

type RecordType uint8

// IsData is true for S1, S2 and S3, the only types that carry payload.
func (t RecordType) IsData() bool {
	return t >= 1 && t <= 3
}

var addrBytes = [10]int{2, 2, 3, 4, 0, 2, 3, 4, 3, 2}

// AddrBytes is the width of the address field, in bytes. For S5 and S6 the
// "address" is the record count.
func (t RecordType) AddrBytes() int {
	if int(t) >= len(addrBytes) {
		return 0
	}
	return addrBytes[t]
}

func (t RecordType) String() string {
	if t > 9 {
		return fmt.Sprintf("S?(%d)", uint8(t))
	}
	return fmt.Sprintf("S%d", uint8(t))
}

type Record struct {
	Type RecordType

	// Count is the declared byte count: address, data and checksum.
	Count   uint8
	Address uint32
	Data    []byte

	// Uncounted is set when Count leaves out the checksum byte that
	// follows the data.
	Uncounted bool
}

// End is one past the last address covered by the record.
func (r Record) End() uint64 {
	return uint64(r.Address) + uint64(r.PayloadLen())
}

type DecodeOptions struct {
	// Strict rejects non-hex characters and anything after the checksum.
	Strict bool

	// SkipData decodes header fields only and leaves Data nil. PayloadLen
	// still reports the payload size.
	SkipData bool
}

// PayloadLen is the number of data bytes implied by the count field.
func (r Record) PayloadLen() int {
	if !r.Type.IsData() {
		return 0
	}
	n := int(r.Count) - r.Type.AddrBytes() - 1
	if r.Uncounted {
		n++
	}
	return n
}

// Decode parses one line, without its terminator. Lines that do not start
// with the sentinel followed by a type character return ErrNotRecord.
// Records of a type other than S1-S3 are returned with only Type set. Field
// lengths are checked before anything is read, so a truncated line yields
// ErrMalformedRecord.
//
// Outside strict mode trailing spaces and tabs are ignored, and a line that
// is exactly one byte longer than its count declares is taken to have a
// count that covers only address and data. Any other excess is malformed.
func Decode(line []byte, opts DecodeOptions) (Record, error) {
	if !opts.Strict {
		line = bytes.TrimRight(line, " \t")
	}
	if len(line) < 2 || line[0] != Sentinel {
		return Record{}, ErrNotRecord
	}

	rec := Record{Type: RecordType(line[1] - '0')}
	if line[1] < '0' || line[1] > '9' {
		rec.Type = RecordType(math.MaxUint8)
	}
	if !rec.Type.IsData() {
		return Record{Type: rec.Type}, nil
	}

	if len(line) < headerLen {
		return Record{}, errors.Wrapf(ErrMalformedRecord, "%s record has no byte count", rec.Type)
	}
	if opts.Strict && !IsHex(line[2:headerLen]) {
		return Record{}, errors.Wrapf(ErrMalformedRecord, "byte count %q is not hex", line[2:headerLen])
	}
	rec.Count = HexValue[uint8](line[2:headerLen])

	addrBytes := rec.Type.AddrBytes()
	if int(rec.Count) < addrBytes+1 {
		return Record{}, errors.Wrapf(ErrMalformedRecord, "byte count %d too small for %s record", rec.Count, rec.Type)
	}

	want := headerLen + int(rec.Count)*2
	if len(line) < want {
		return Record{}, errors.Wrapf(ErrMalformedRecord, "%s record is %d characters, byte count needs %d", rec.Type, len(line), want)
	}
	switch extra := len(line) - want; {
	case extra == 0:
	case extra == 2 && !opts.Strict:
		rec.Uncounted = true
	default:
		return Record{}, errors.Wrapf(ErrMalformedRecord, "%d characters after checksum", extra)
	}
	if opts.Strict && !IsHex(line[headerLen:want]) {
		return Record{}, errors.Wrap(ErrMalformedRecord, "non-hex character in record")
	}

	addrEnd := headerLen + addrBytes*2
	rec.Address = HexValue[uint32](line[headerLen:addrEnd])

	n := rec.PayloadLen()
	if uint64(rec.Address)+uint64(n) > math.MaxUint32+1 {
		return Record{}, errors.Wrapf(ErrMalformedRecord, "%d bytes at %08X run past the 32-bit address space", n, rec.Address)
	}
	if opts.SkipData {
		return rec, nil
	}

	rec.Data = make([]byte, n)
	for i := range rec.Data {
		p := addrEnd + i*2
		rec.Data[i] = HexValue[uint8](line[p : p+2])
	}

	return rec, nil
}
