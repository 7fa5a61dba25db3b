package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/anupcshan/srec2bin/internal/cliutil"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "srectool",
		Short: "Inspect and convert Motorola S-record files",
		Long: `srectool works with Motorola S-record (S19/S28/S37) firmware files.

It reports the address range and layout of a file, and converts many files
to flat binary or Intel HEX images in parallel. For single conversions with
the classic option set use srec2bin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newBatchCmd())
	return rootCmd
}

// Execute builds the command tree and runs it against os.Args.
func Execute() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if code := cliutil.ExitCode(err); code != cliutil.ExitOK {
		return code
	}
	return cliutil.ExitUsage
}
