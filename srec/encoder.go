package srec

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

type Encoder struct {
	w *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w: bufio.NewWriter(w),
	}
}

// Encode writes rec as one line, filling in Count and the checksum.
func (e *Encoder) Encode(rec Record) error {
	ab := rec.Type.AddrBytes()
	if rec.Type > 9 || rec.Type == 4 {
		return errors.Errorf("can't encode %s record", rec.Type)
	}
	count := ab + len(rec.Data) + 1
	if count > 0xff {
		return errors.Errorf("%d data bytes don't fit in an %s record", len(rec.Data), rec.Type)
	}

	sum := uint8(count)
	if _, err := fmt.Fprintf(e.w, "S%d%02X", uint8(rec.Type), count); err != nil {
		return err
	}
	for i := ab - 1; i >= 0; i-- {
		b := uint8(rec.Address >> (8 * i))
		sum += b
		if _, err := fmt.Fprintf(e.w, "%02X", b); err != nil {
			return err
		}
	}
	for _, b := range rec.Data {
		sum += b
		if _, err := fmt.Fprintf(e.w, "%02X", b); err != nil {
			return err
		}
	}

	// 1's complement
	if _, err := fmt.Fprintf(e.w, "%02X\n", ^sum); err != nil {
		return err
	}

	return nil
}

// EncodeData splits data into records of at most lineBytes payload bytes
// starting at addr.
func (e *Encoder) EncodeData(t RecordType, addr uint32, data []byte, lineBytes int) error {
	if !t.IsData() {
		return errors.Errorf("%s is not a data record type", t)
	}
	if lineBytes <= 0 {
		return errors.Errorf("invalid line length %d", lineBytes)
	}

	for len(data) > 0 {
		n := min(lineBytes, len(data))
		if err := e.Encode(Record{Type: t, Address: addr, Data: data[:n]}); err != nil {
			return err
		}
		addr += uint32(n)
		data = data[n:]
	}

	return nil
}

func (e *Encoder) Flush() error {
	return e.w.Flush()
}
