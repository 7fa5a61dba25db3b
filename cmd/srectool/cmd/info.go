package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/anupcshan/srec2bin/convert"
	"github.com/anupcshan/srec2bin/internal/cliutil"
	"github.com/anupcshan/srec2bin/srec"
)

func newInfoCmd() *cobra.Command {
	infoCmd := &cobra.Command{
		Use:   "info FILE",
		Short: "Report the address range and layout of an S-record file",
		Long: `Scan an S-record file and report its record counts, the address range the
binary image would cover, and the stretches of the image no record fills.
Nothing is written.

Example:
  srectool info firmware.s19
  srectool info -o 0 -a 10000 firmware.s19`,
		Args: cobra.ExactArgs(1),
		RunE: runInfo,
	}

	addRangeFlags(infoCmd)
	return infoCmd
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}
	cfg.Verbose = false

	in, closeIn, err := cliutil.OpenInput(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer closeIn()

	res, err := convert.New(cfg).Convert(in)
	if err != nil {
		return err
	}

	printInfo(cmd.OutOrStdout(), args[0], res)
	return nil
}

func printInfo(w io.Writer, name string, res *convert.Result) {
	fmt.Fprintf(w, "File:             %s\n", name)
	fmt.Fprintf(w, "Lines:            %d\n", res.Scan.Lines)

	types := make([]srec.RecordType, 0, len(res.Scan.Types))
	for t := range res.Scan.Types {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-4s records:   %d\n", t, res.Scan.Types[t])
	}
	if res.Scan.Skipped > 0 {
		fmt.Fprintf(w, "Malformed lines:  %d\n", res.Scan.Skipped)
	}

	size := res.Range.Size()
	fmt.Fprintf(w, "Minimum address:  %Xh\n", res.Range.Min)
	fmt.Fprintf(w, "Maximum address:  %Xh\n", res.Range.Max)
	fmt.Fprintf(w, "Binary file size: %d (%Xh) bytes\n", size, size)
	fmt.Fprintf(w, "Covered bytes:    %d\n", res.Image.Covered())

	gaps := res.Image.Gaps()
	if len(gaps) == 0 {
		return
	}
	fmt.Fprintf(w, "Gaps:\n")
	for _, g := range gaps {
		start := uint64(res.Range.Min) + uint64(g.Offset)
		fmt.Fprintf(w, "  %08X-%08X (%d bytes)\n", start, start+uint64(g.Len)-1, g.Len)
	}
}
