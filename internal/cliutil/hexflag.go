package cliutil

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/anupcshan/srec2bin/srec"
)

// Hex32 is a flag value holding a 32-bit number written in hex, with or
// without a 0x prefix. It satisfies both flag.Value and pflag.Value.
type Hex32 struct {
	Value uint32
	IsSet bool
}

func (h *Hex32) String() string {
	if h == nil {
		return "0"
	}
	return fmt.Sprintf("%X", h.Value)
}

func (h *Hex32) Set(s string) error {
	digits, err := hexDigits(s, 8)
	if err != nil {
		return err
	}
	h.Value = srec.ParseHex(digits)
	h.IsSet = true
	return nil
}

func (h *Hex32) Type() string {
	return "hex"
}

// Hex8 is a one-byte hex flag value.
type Hex8 struct {
	Value byte
}

func (h *Hex8) String() string {
	if h == nil {
		return "0"
	}
	return fmt.Sprintf("%02X", h.Value)
}

func (h *Hex8) Set(s string) error {
	digits, err := hexDigits(s, 2)
	if err != nil {
		return err
	}
	h.Value = srec.HexValue[uint8](digits)
	return nil
}

func (h *Hex8) Type() string {
	return "hex"
}

func hexDigits(s string, width int) (string, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	digits = strings.TrimRight(digits, "hH")
	if !srec.IsHex(digits) {
		return "", errors.Errorf("%q is not a hex number", s)
	}
	digits = strings.TrimLeft(digits, "0")
	if len(digits) > width {
		return "", errors.Errorf("%q does not fit in %d bits", s, width*4)
	}
	return digits, nil
}
