// Package cliutil holds the pieces shared by the srec2bin and srectool
// commands: flag types, logging, file plumbing and exit codes.
package cliutil

import (
	"bytes"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/anupcshan/srec2bin/convert"
	"github.com/anupcshan/srec2bin/membuf"
)

// Exit codes. ExitInputUnreadable keeps the value srec2bin has always used
// for a missing input file.
const (
	ExitOK = iota
	ExitUsage
	ExitInputUnreadable
	ExitOutputUnwritable
	ExitEmptyRange
	ExitMalformedRecord
	ExitImageTooLarge
)

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	switch convert.KindOf(err) {
	case convert.ErrInputUnreadable:
		return ExitInputUnreadable
	case convert.ErrOutputUnwritable:
		return ExitOutputUnwritable
	case convert.ErrEmptyRange:
		return ExitEmptyRange
	case convert.ErrMalformedRecord:
		return ExitMalformedRecord
	case convert.ErrImageTooLarge:
		return ExitImageTooLarge
	}
	return ExitUsage
}

func NewLogger(w io.Writer, quiet bool) *slog.Logger {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	level.Set(slog.LevelInfo)
	if quiet {
		level.Set(slog.LevelWarn)
	}

	return logger
}

// OpenInput opens path for reading, or buffers stdin when path is "-" so
// that it can be read twice.
func OpenInput(path string, stdin io.Reader) (io.ReadSeeker, func() error, error) {
	if path == "-" {
		if stdin == nil {
			return nil, nil, &convert.Error{Kind: convert.ErrInputUnreadable, Err: errors.New("no standard input")}
		}
		buf, err := io.ReadAll(stdin)
		if err != nil {
			return nil, nil, &convert.Error{Kind: convert.ErrInputUnreadable, Err: errors.Wrap(err, "reading stdin")}
		}
		return bytes.NewReader(buf), func() error { return nil }, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &convert.Error{Kind: convert.ErrInputUnreadable, Err: err}
	}
	return f, f.Close, nil
}

// WriteOutput stores img at path, or writes it to stdout when path is "-".
func WriteOutput(path string, stdout io.Writer, img *membuf.Image, f convert.Format) error {
	if path == "-" {
		if stdout == nil {
			return &convert.Error{Kind: convert.ErrOutputUnwritable, Err: errors.New("no standard output")}
		}
		if err := convert.WriteImage(stdout, img, f); err != nil {
			return &convert.Error{Kind: convert.ErrOutputUnwritable, Err: errors.Wrap(err, "writing stdout")}
		}
		return nil
	}

	return convert.WriteFile(path, img, f)
}

// WriteMetrics dumps everything registered on g to path in the text
// exposition format, for the node_exporter textfile collector.
func WriteMetrics(path string, g prometheus.Gatherer) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, g), "writing metrics to %s", path)
}

// Job is one conversion from an input file to an output file.
type Job struct {
	In, Out string
	Format  convert.Format

	// Records, if set, is where the record manifest goes.
	Records string

	Stdin  io.Reader
	Stdout io.Writer
}

// Run opens the job's input, converts it with cfg and writes the image.
// Nothing is created at Out unless the conversion succeeds.
func Run(cfg convert.Config, job Job) (*convert.Result, error) {
	in, closeIn, err := OpenInput(job.In, job.Stdin)
	if err != nil {
		return nil, err
	}
	defer closeIn()

	res, err := convert.New(cfg).Convert(in)
	if err != nil {
		return nil, err
	}

	if err := WriteOutput(job.Out, job.Stdout, res.Image, job.Format); err != nil {
		return nil, err
	}

	if job.Records != "" {
		if err := convert.WriteManifest(job.Records, res.Manifest(cfg.Filler)); err != nil {
			return nil, err
		}
	}
	return res, nil
}
