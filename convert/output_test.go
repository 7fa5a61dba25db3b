package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/marcinbor85/gohex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anupcshan/srec2bin/srec"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"bin": FormatBinary, "BIN": FormatBinary, "ihex": FormatIntelHex, "hex": FormatIntelHex} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("elf")
	assert.Error(t, err)
}

func TestWriteFileBinary(t *testing.T) {
	t.Parallel()

	res := mustConvert(t, quiet(), encode(t,
		srec.Record{Type: 1, Address: 0x10, Data: []byte{1, 2}},
		srec.Record{Type: 1, Address: 0x14, Data: []byte{3}},
	))

	path := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, WriteFile(path, res.Image, FormatBinary))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 0xff, 0xff, 3}, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestWriteFileIntelHex(t *testing.T) {
	t.Parallel()

	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}
	res := mustConvert(t, quiet(), encode(t,
		srec.Record{Type: 3, Address: 0x0800fff0, Data: data[:200]},
		srec.Record{Type: 3, Address: 0x0801010c, Data: data[200:]},
	))

	path := filepath.Join(t.TempDir(), "out.hex")
	require.NoError(t, WriteFile(path, res.Image, FormatIntelHex))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	mem := gohex.NewMemory()
	require.NoError(t, mem.ParseIntelHex(f))
	got := mem.ToBinary(res.Image.Base(), uint32(res.Image.Size()), 0)
	if diff := cmp.Diff(res.Image.Bytes(), got); diff != "" {
		t.Errorf("Intel HEX round trip (-want +got):\n%s", diff)
	}
}

func TestWriteFileUnwritable(t *testing.T) {
	t.Parallel()

	res := mustConvert(t, quiet(), "S1040000AA51")
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "out.bin"), res.Image, FormatBinary)
	assert.ErrorIs(t, err, ErrOutputUnwritable)
}

func TestManifestRoundTrip(t *testing.T) {
	t.Parallel()

	res := mustConvert(t, quiet(), encode(t,
		srec.Record{Type: 2, Address: 0x10000, Data: []byte{1, 2}},
		srec.Record{Type: 2, Address: 0x10004, Data: []byte{3}},
	))
	m := res.Manifest(0xff)
	assert.Equal(t, int64(5), m.Size)
	require.Len(t, m.Records, 2)
	assert.Equal(t, Entry{Line: 2, Type: 2, Address: 0x10004, Offset: 4, Len: 1}, m.Records[1])

	dir := t.TempDir()
	for _, name := range []string{"out.records", "out.records.cbor"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteManifest(path, m))

		got, err := ReadManifest(path)
		require.NoError(t, err)
		if diff := cmp.Diff(m, got); diff != "" {
			t.Errorf("%s (-want +got):\n%s", name, diff)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "out.records"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"gaps": [`)
}
