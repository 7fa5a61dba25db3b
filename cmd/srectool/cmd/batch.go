package cmd

import (
	"context"
	"log"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/anupcshan/srec2bin/convert"
	"github.com/anupcshan/srec2bin/internal/cliutil"
)

func newBatchCmd() *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch IN:OUT...",
		Short: "Convert several S-record files in parallel",
		Long: `Convert each IN S-record file into the OUT image. Conversions are independent
and run in parallel; the first failure stops conversions that have not
started yet and sets the exit status.

Example:
  srectool batch -j 4 boot.s19:boot.bin app.s37:app.bin
  srectool batch --format ihex --records app.s37:app.hex`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBatch,
	}

	addRangeFlags(batchCmd)
	batchCmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Number of conversions to run at once")
	batchCmd.Flags().String("format", string(convert.FormatBinary), "Output format: bin or ihex")
	batchCmd.Flags().Bool("records", false, "Write OUT.records manifests next to the images")
	batchCmd.Flags().String("metrics", "", "Write conversion metrics to this file in Prometheus text format")
	batchCmd.Flags().BoolP("quiet", "q", false, "Only log warnings and errors")
	return batchCmd
}

func parseJobs(args []string) ([]cliutil.Job, error) {
	jobs := make([]cliutil.Job, 0, len(args))
	for _, arg := range args {
		i := strings.LastIndexByte(arg, ':')
		if i <= 0 || i == len(arg)-1 {
			return nil, errors.Errorf("%q is not of the form IN:OUT", arg)
		}
		in, out := arg[:i], arg[i+1:]
		if in == "-" || out == "-" {
			return nil, errors.Errorf("%q: batch jobs cannot read stdin or write stdout", arg)
		}
		jobs = append(jobs, cliutil.Job{In: in, Out: out})
	}
	return jobs, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	log.SetFlags(log.Lmicroseconds | log.Lshortfile)

	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	jobs, err := parseJobs(args)
	if err != nil {
		return err
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := convert.ParseFormat(formatName)
	if err != nil {
		return err
	}
	withRecords, _ := cmd.Flags().GetBool("records")
	metricsFile, _ := cmd.Flags().GetString("metrics")
	quiet, _ := cmd.Flags().GetBool("quiet")
	limit, _ := cmd.Flags().GetInt("jobs")
	if limit < 1 {
		return errors.Errorf("--jobs must be at least 1, got %d", limit)
	}

	cfg.Verbose = false
	logger := cliutil.NewLogger(cmd.ErrOrStderr(), quiet)

	var reg *prometheus.Registry
	if metricsFile != "" {
		reg = prometheus.NewRegistry()
		cfg.Metrics = convert.NewMetrics(reg)
	}

	eg, egCtx := errgroup.WithContext(context.Background())
	eg.SetLimit(limit)

	for _, job := range jobs {
		job.Format = format
		if withRecords {
			job.Records = job.Out + ".records"
		}

		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			jobCfg := cfg
			jobCfg.Logger = logger.With("input", job.In)

			res, err := cliutil.Run(jobCfg, job)
			if err != nil {
				return errors.Wrapf(err, "converting %s", job.In)
			}

			if !quiet {
				log.Printf("%s -> %s: %d records, %d bytes at %Xh", job.In, job.Out, res.Stats.Records, res.Range.Size(), res.Range.Min)
			}
			return nil
		})
	}

	err = eg.Wait()
	if reg != nil {
		if merr := cliutil.WriteMetrics(metricsFile, reg); merr != nil && err == nil {
			err = merr
		}
	}
	return err
}
