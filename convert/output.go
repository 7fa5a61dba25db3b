package convert

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"

	"github.com/anupcshan/srec2bin/membuf"
)

type Format string

const (
	FormatBinary   Format = "bin"
	FormatIntelHex Format = "ihex"
)

const ihexLineLen = 16

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatBinary, FormatIntelHex:
		return f, nil
	case "hex":
		return FormatIntelHex, nil
	}
	return "", errors.Errorf("unknown output format %q (want %s or %s)", s, FormatBinary, FormatIntelHex)
}

// WriteImage writes img to w. Intel HEX output keeps the image's base
// address.
func WriteImage(w io.Writer, img *membuf.Image, f Format) error {
	switch f {
	case FormatBinary, "":
		_, err := img.WriteTo(w)
		return err
	case FormatIntelHex:
		mem := gohex.NewMemory()
		if err := mem.AddBinary(img.Base(), img.Bytes()); err != nil {
			return err
		}
		return mem.DumpIntelHex(w, ihexLineLen)
	}
	return errors.Errorf("unknown output format %q", f)
}

// WriteFile writes img to path through a temporary file in the same
// directory, so path is either left alone or holds the complete image.
func WriteFile(path string, img *membuf.Image, f Format) error {
	err := atomicWriteFile(path, 0644, func(w io.Writer) error {
		return WriteImage(w, img, f)
	})
	if err != nil {
		return newError(ErrOutputUnwritable, 0, errors.Wrapf(err, "writing %s", path))
	}
	return nil
}

func atomicWriteFile(path string, perm os.FileMode, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
