// Package convert rebuilds a flat binary image from Motorola S-record text.
//
// Conversion takes two passes over the input. The scan pass finds the
// address range covered by the data records, the range is widened by the
// configured start offset and minimum size, and the emit pass writes every
// record's payload at its offset into a filler-initialized image. Records
// are written in file order, so where two records overlap the later one
// wins.
package convert

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/pkg/errors"

	"github.com/anupcshan/srec2bin/membuf"
	"github.com/anupcshan/srec2bin/srec"
)

const (
	DefaultFiller  = 0xff
	DefaultMaxSize = 256 << 20
)

type Config struct {
	// StartOffset lowers the image start below the first record address
	// when HasStartOffset is set. It has no effect when it is above the
	// lowest record address. Without it the image starts at the lowest
	// record address.
	StartOffset    uint32
	HasStartOffset bool

	// MinSize is the smallest image size in bytes, counted from the
	// effective start address. Images are padded up to it, never truncated.
	MinSize uint32

	// Filler is the value of every byte no record covers.
	Filler byte

	// Verbose logs every record written and a range summary.
	Verbose bool

	// Strict fails on the first malformed line instead of skipping it, and
	// rejects non-hex characters inside records.
	Strict bool

	// MaxSize caps the image size in bytes. 0 means no cap.
	MaxSize int64

	Logger  *slog.Logger
	Metrics *Metrics
}

func DefaultConfig() Config {
	return Config{
		Filler:  DefaultFiller,
		Verbose: true,
		MaxSize: DefaultMaxSize,
	}
}

// Scan is what the first pass learns about the input.
type Scan struct {
	// Min is the lowest data record address, math.MaxUint32 if there are
	// no data records.
	Min uint32

	// End is one past the highest byte covered by a data record.
	End uint64

	Records int
	Lines   int
	Skipped int

	// Uncounted is the number of data records whose byte count leaves out
	// the checksum. They are converted, with a warning.
	Uncounted int

	Types map[srec.RecordType]int
}

// Max is the last byte covered by a data record. It is only meaningful
// when End > Min.
func (s Scan) Max() uint32 {
	return uint32(s.End - 1)
}

// Range is an inclusive address range.
type Range struct {
	Min uint32 `json:"min" cbor:"min"`
	Max uint32 `json:"max" cbor:"max"`
}

func (r Range) Size() int64 {
	return int64(r.Max) - int64(r.Min) + 1
}

func (r Range) String() string {
	return fmt.Sprintf("[%08X, %08X]", r.Min, r.Max)
}

// Entry describes one data record written into the image.
type Entry struct {
	Line    int             `json:"line" cbor:"line"`
	Type    srec.RecordType `json:"type" cbor:"type"`
	Address uint32          `json:"address" cbor:"address"`
	Offset  int64           `json:"offset" cbor:"offset"`
	Len     int             `json:"len" cbor:"len"`
}

type Stats struct {
	Records int
	Bytes   int64
	Entries []Entry
}

type Result struct {
	Scan  Scan
	Range Range
	Image *membuf.Image
	Stats Stats
}

type Converter struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config) *Converter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Converter{
		cfg: cfg,
		log: logger,
	}
}

// Convert runs both passes over in and returns the finished image. in is
// rewound between the passes.
func (c *Converter) Convert(in io.ReadSeeker) (*Result, error) {
	res, err := c.convert(in)

	var size int64
	if res != nil {
		size = res.Range.Size()
	}
	c.cfg.Metrics.finished(size, err)

	return res, err
}

func (c *Converter) convert(in io.ReadSeeker) (*Result, error) {
	var (
		res Result
		err error
	)

	if res.Scan, err = c.Scan(in); err != nil {
		return nil, err
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, newError(ErrInputUnreadable, 0, errors.Wrap(err, "rewinding input"))
	}

	if res.Range, err = c.Resolve(res.Scan); err != nil {
		return nil, err
	}

	if c.cfg.Verbose {
		size := res.Range.Size()
		c.log.Info("Address range",
			"min", fmt.Sprintf("%Xh", res.Range.Min),
			"max", fmt.Sprintf("%Xh", res.Range.Max),
			"size", fmt.Sprintf("%d (%Xh) bytes", size, size),
		)
	}

	res.Image = membuf.NewImage(res.Range.Min, int(res.Range.Size()), c.cfg.Filler)
	if res.Stats, err = c.Emit(in, res.Image, res.Range); err != nil {
		return nil, err
	}

	return &res, nil
}

// Scan reads every line of r once and tracks the address span of the data
// records. Payload bytes are not decoded.
func (c *Converter) Scan(r io.Reader) (Scan, error) {
	s := Scan{
		Min:   math.MaxUint32,
		Types: make(map[srec.RecordType]int),
	}

	lines, skipped, err := c.each(r, true, func(line int, rec srec.Record) error {
		s.Types[rec.Type]++
		c.cfg.Metrics.record(rec.Type)
		if !rec.Type.IsData() {
			return nil
		}

		if rec.Uncounted {
			s.Uncounted++
			c.log.Warn("Byte count omits checksum", "line", line, "count", rec.Count, "bytes", rec.PayloadLen())
		}

		s.Records++
		s.Min = min(s.Min, rec.Address)
		s.End = max(s.End, rec.End())
		return nil
	})
	s.Lines = lines
	s.Skipped = skipped

	return s, err
}

// Resolve merges the scanned span with the configured start offset and
// minimum size. It fails with ErrEmptyRange when neither the input nor the
// configuration establishes at least one byte.
func (c *Converter) Resolve(s Scan) (Range, error) {
	var start uint32
	switch {
	case s.Records == 0:
		start = c.cfg.StartOffset
	case c.cfg.HasStartOffset:
		start = min(c.cfg.StartOffset, s.Min)
	default:
		start = s.Min
	}

	end := s.End
	end = max(end, uint64(start)+uint64(c.cfg.MinSize))
	end = min(end, math.MaxUint32+1)

	if end <= uint64(start) {
		return Range{}, newError(ErrEmptyRange, 0, errors.Errorf("%d data records, minimum size %d", s.Records, c.cfg.MinSize))
	}

	size := end - uint64(start)
	if c.cfg.MaxSize > 0 && size > uint64(c.cfg.MaxSize) {
		return Range{}, newError(ErrImageTooLarge, 0, errors.Errorf("%d bytes from %08X exceeds limit of %d bytes", size, start, c.cfg.MaxSize))
	}

	return Range{Min: start, Max: uint32(end - 1)}, nil
}

// Emit reads r again and writes every data record's payload into w at
// address - rng.Min.
func (c *Converter) Emit(r io.Reader, w io.WriterAt, rng Range) (Stats, error) {
	var st Stats
	size := rng.Size()

	_, _, err := c.each(r, false, func(line int, rec srec.Record) error {
		if !rec.Type.IsData() {
			return nil
		}

		off := int64(rec.Address) - int64(rng.Min)
		if off < 0 || off+int64(len(rec.Data)) > size {
			return newError(ErrInputUnreadable, line, errors.Errorf("%d bytes at %08X fall outside %s; input changed between passes", len(rec.Data), rec.Address, rng))
		}

		if c.cfg.Verbose {
			c.log.Info("Writing", "bytes", len(rec.Data), "offset", fmt.Sprintf("%08X", off))
		}

		if _, err := w.WriteAt(rec.Data, off); err != nil {
			return newError(ErrOutputUnwritable, line, err)
		}
		c.cfg.Metrics.wrote(len(rec.Data))

		st.Records++
		st.Bytes += int64(len(rec.Data))
		st.Entries = append(st.Entries, Entry{
			Line:    line,
			Type:    rec.Type,
			Address: rec.Address,
			Offset:  off,
			Len:     len(rec.Data),
		})
		return nil
	})

	return st, err
}

// each decodes every S-record line of r and hands it to fn. Malformed lines
// fail the pass in strict mode; otherwise they are skipped, and reported
// only on the scan pass.
func (c *Converter) each(r io.Reader, scan bool, fn func(line int, rec srec.Record) error) (lines, skipped int, err error) {
	sr := srec.NewReader(r)
	opts := srec.DecodeOptions{
		Strict:   c.cfg.Strict,
		SkipData: scan,
	}

	for {
		line, err := sr.ReadLine()
		if err == io.EOF {
			return sr.Line(), skipped, nil
		}

		var rec srec.Record
		if err == nil {
			rec, err = srec.Decode(line, opts)
			if errors.Is(err, srec.ErrNotRecord) {
				continue
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, srec.ErrMalformedRecord), errors.Is(err, srec.ErrLineTooLong):
			if c.cfg.Strict {
				return sr.Line(), skipped, newError(ErrMalformedRecord, sr.Line(), err)
			}
			skipped++
			if scan {
				c.log.Warn("Skipping malformed line", "line", sr.Line(), "err", err)
				c.cfg.Metrics.skipped()
			}
			continue
		default:
			return sr.Line(), skipped, newError(ErrInputUnreadable, 0, errors.Wrap(err, "reading input"))
		}

		if err := fn(sr.Line(), rec); err != nil {
			return sr.Line(), skipped, err
		}
	}
}
