package srec

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// Reader splits S-record text into lines of at most LineLen-1 characters.
type Reader struct {
	br   *bufio.Reader
	line int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		br: bufio.NewReaderSize(r, LineLen),
	}
}

// ReadLine returns the next line with its terminator removed. The slice is
// only valid until the next call. An over-long line is consumed and reported
// as ErrLineTooLong; reading may continue after it. At the end of input it
// returns io.EOF.
func (r *Reader) ReadLine() ([]byte, error) {
	line, err := r.br.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		r.line++
		for err == bufio.ErrBufferFull {
			_, err = r.br.ReadSlice('\n')
		}
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, errors.Wrapf(ErrLineTooLong, "more than %d characters", LineLen-1)
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(line) == 0 {
		return nil, io.EOF
	}

	r.line++
	return bytes.TrimRight(line, "\r\n"), nil
}

// Line is the 1-based number of the line last returned.
func (r *Reader) Line() int {
	return r.line
}
