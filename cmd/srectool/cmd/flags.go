package cmd

import (
	"github.com/spf13/cobra"

	"github.com/anupcshan/srec2bin/convert"
	"github.com/anupcshan/srec2bin/internal/cliutil"
)

func addRangeFlags(c *cobra.Command) {
	offset := &cliutil.Hex32{}
	minSize := &cliutil.Hex32{}
	maxSize := &cliutil.Hex32{Value: convert.DefaultMaxSize}
	filler := &cliutil.Hex8{Value: convert.DefaultFiller}

	c.Flags().VarP(offset, "offset", "o", "Start address offset (hex)")
	c.Flags().VarP(minSize, "min-size", "a", "Minimum image size (hex)")
	c.Flags().VarP(filler, "filler", "f", "Filler byte (hex)")
	c.Flags().Var(maxSize, "max", "Largest allowed image size in bytes (hex), 0 = no limit")
	c.Flags().Bool("strict", false, "Fail on malformed records instead of skipping them")
}

func configFromFlags(c *cobra.Command) (convert.Config, error) {
	cfg := convert.DefaultConfig()

	offset := c.Flags().Lookup("offset").Value.(*cliutil.Hex32)
	cfg.StartOffset = offset.Value
	cfg.HasStartOffset = offset.IsSet
	cfg.MinSize = c.Flags().Lookup("min-size").Value.(*cliutil.Hex32).Value
	cfg.Filler = c.Flags().Lookup("filler").Value.(*cliutil.Hex8).Value
	cfg.MaxSize = int64(c.Flags().Lookup("max").Value.(*cliutil.Hex32).Value)

	strict, err := c.Flags().GetBool("strict")
	if err != nil {
		return cfg, err
	}
	cfg.Strict = strict

	return cfg, nil
}
