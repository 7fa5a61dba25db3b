// Command srec2bin converts a Motorola S-record file into a flat binary
// image suitable for programming into flash or ROM.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/anupcshan/srec2bin/convert"
	"github.com/anupcshan/srec2bin/internal/cliutil"
)

const header = "SREC2BIN - Convert Motorola S-Record to binary file.\n\n"

type options struct {
	offset  cliutil.Hex32
	minSize cliutil.Hex32
	maxSize cliutil.Hex32
	filler  cliutil.Hex8
	quiet   bool
	strict  bool
	format  string
	records string
	metrics string

	in, out string
}

func parseArgs(args []string, stderr io.Writer) (*options, int) {
	opts := &options{
		filler:  cliutil.Hex8{Value: convert.DefaultFiller},
		maxSize: cliutil.Hex32{Value: convert.DefaultMaxSize},
	}

	fs := flag.NewFlagSet("srec2bin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&opts.offset, "o", "Start address `offset` (hex), default = lowest record address.")
	fs.Var(&opts.minSize, "a", "Minimum binary file `size` (hex), default = 0.")
	fs.Var(&opts.filler, "f", "Filler `byte` (hex), default = FF.")
	fs.BoolVar(&opts.quiet, "q", false, "Quiet mode.")
	fs.BoolVar(&opts.strict, "strict", false, "Fail on malformed records instead of skipping them.")
	fs.Var(&opts.maxSize, "max", "Refuse images larger than `size` bytes (hex), 0 = no limit.")
	fs.StringVar(&opts.format, "format", string(convert.FormatBinary), "Output `format`: bin or ihex.")
	fs.StringVar(&opts.records, "records", "", "Write a record manifest to `file` (.cbor for CBOR, JSON otherwise).")
	fs.StringVar(&opts.metrics, "metrics", "", "Write conversion metrics to `file` in Prometheus text format.")
	fs.Usage = func() {
		fmt.Fprint(stderr, header)
		fmt.Fprintf(stderr, "Syntax: srec2bin <options> INFILE OUTFILE\n\n")
		fmt.Fprintf(stderr, "INFILE may be - for stdin, OUTFILE - for stdout.\n\n")
		fs.PrintDefaults()
	}

	// Options may follow the file names.
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if err == flag.ErrHelp {
				return nil, cliutil.ExitOK
			}
			return nil, cliutil.ExitUsage
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	switch len(positional) {
	case 0:
		fs.Usage()
		fmt.Fprintf(stderr, "\n** No input filename specified\n")
		return nil, cliutil.ExitUsage
	case 1:
		fs.Usage()
		fmt.Fprintf(stderr, "\n** No output filename specified\n")
		return nil, cliutil.ExitUsage
	case 2:
	default:
		fs.Usage()
		fmt.Fprintf(stderr, "\n** Too many filenames: %q\n", positional[2:])
		return nil, cliutil.ExitUsage
	}
	opts.in, opts.out = positional[0], positional[1]

	return opts, cliutil.ExitOK
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, code := parseArgs(args, stderr)
	if opts == nil {
		return code
	}

	format, err := convert.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return cliutil.ExitUsage
	}

	logger := cliutil.NewLogger(stderr, opts.quiet)
	if !opts.quiet {
		fmt.Fprint(stderr, header)
		logger.Info("Input Motorola S-Record file", "path", opts.in)
		logger.Info("Output binary file", "path", opts.out, "format", format)
	}

	cfg := convert.Config{
		StartOffset:    opts.offset.Value,
		HasStartOffset: opts.offset.IsSet,
		MinSize:        opts.minSize.Value,
		Filler:         opts.filler.Value,
		Verbose:        !opts.quiet,
		Strict:         opts.strict,
		MaxSize:        int64(opts.maxSize.Value),
		Logger:         logger,
	}

	var reg *prometheus.Registry
	if opts.metrics != "" {
		reg = prometheus.NewRegistry()
		cfg.Metrics = convert.NewMetrics(reg)
	}

	_, err = cliutil.Run(cfg, cliutil.Job{
		In:      opts.in,
		Out:     opts.out,
		Format:  format,
		Records: opts.records,
		Stdin:   stdin,
		Stdout:  stdout,
	})
	if reg != nil {
		if merr := cliutil.WriteMetrics(opts.metrics, reg); merr != nil {
			logger.Error("Can't write metrics", "err", merr)
		}
	}
	if err != nil {
		logger.Error("Conversion failed", "err", err)
		return cliutil.ExitCode(err)
	}

	logger.Info("Processing complete")
	return cliutil.ExitOK
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
