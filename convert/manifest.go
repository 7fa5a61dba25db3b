package convert

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/anupcshan/srec2bin/membuf"
)

// Manifest describes where each record of the input landed in the image.
// It is written next to the image, as hex2bin writes its .records file.
type Manifest struct {
	Range   Range         `json:"range" cbor:"range"`
	Size    int64         `json:"size" cbor:"size"`
	Filler  byte          `json:"filler" cbor:"filler"`
	Records []Entry       `json:"records" cbor:"records"`
	Gaps    []membuf.Span `json:"gaps" cbor:"gaps"`
}

func (r *Result) Manifest(filler byte) Manifest {
	return Manifest{
		Range:   r.Range,
		Size:    r.Range.Size(),
		Filler:  filler,
		Records: r.Stats.Entries,
		Gaps:    r.Image.Gaps(),
	}
}

func isCBOR(path string) bool {
	return filepath.Ext(path) == ".cbor"
}

// WriteManifest stores m as CBOR when path ends in .cbor and as JSON
// otherwise.
func WriteManifest(path string, m Manifest) error {
	err := atomicWriteFile(path, 0644, func(w io.Writer) error {
		if isCBOR(path) {
			return cbor.NewEncoder(w).Encode(m)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	})
	if err != nil {
		return newError(ErrOutputUnwritable, 0, errors.Wrapf(err, "writing manifest %s", path))
	}
	return nil
}

func ReadManifest(path string) (Manifest, error) {
	var m Manifest

	f, err := os.Open(path)
	if err != nil {
		return m, err
	}
	defer f.Close()

	if isCBOR(path) {
		err = cbor.NewDecoder(f).Decode(&m)
	} else {
		err = json.NewDecoder(f).Decode(&m)
	}
	return m, errors.Wrapf(err, "decoding manifest %s", path)
}
