package cliutil

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anupcshan/srec2bin/convert"
	"github.com/anupcshan/srec2bin/membuf"
)

func TestHex32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want uint32
		err  bool
	}{
		{"0", 0, false},
		{"10", 0x10, false},
		{"0x8000", 0x8000, false},
		{"FFFFh", 0xffff, false},
		{"deadbeef", 0xdeadbeef, false},
		{"00000000100", 0x100, false},
		{"", 0, true},
		{"12z", 0, true},
		{"100000000", 0, true},
	}

	for _, tt := range tests {
		var h Hex32
		err := h.Set(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			assert.False(t, h.IsSet)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, h.Value, tt.in)
		assert.True(t, h.IsSet)
	}

	assert.Equal(t, "hex", (&Hex32{}).Type())
	assert.Equal(t, "1F", (&Hex32{Value: 0x1f}).String())
}

func TestHex8(t *testing.T) {
	t.Parallel()

	var h Hex8
	require.NoError(t, h.Set("a5"))
	assert.Equal(t, byte(0xa5), h.Value)
	require.NoError(t, h.Set("0"))
	assert.Equal(t, byte(0), h.Value)
	assert.Error(t, h.Set("100"))
	assert.Equal(t, "00", h.String())
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitUsage, ExitCode(errors.New("bad flag")))
	assert.Equal(t, ExitInputUnreadable, ExitCode(&convert.Error{Kind: convert.ErrInputUnreadable}))
	assert.Equal(t, ExitOutputUnwritable, ExitCode(errors.Wrap(&convert.Error{Kind: convert.ErrOutputUnwritable}, "job")))
	assert.Equal(t, ExitEmptyRange, ExitCode(&convert.Error{Kind: convert.ErrEmptyRange}))
	assert.Equal(t, ExitMalformedRecord, ExitCode(&convert.Error{Kind: convert.ErrMalformedRecord, Line: 3}))
	assert.Equal(t, ExitImageTooLarge, ExitCode(&convert.Error{Kind: convert.ErrImageTooLarge}))
}

func TestNewLoggerQuiet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, true)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestRunJobStdio(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	cfg := convert.DefaultConfig()
	cfg.Verbose = false
	res, err := Run(cfg, Job{
		In:     "-",
		Out:    "-",
		Format: convert.FormatBinary,
		Stdin:  strings.NewReader("S104000011EA\nS104000222D7\n"),
		Stdout: &stdout,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Records)
	assert.Equal(t, []byte{0x11, 0xff, 0x22}, stdout.Bytes())
}

func TestOpenInputMissing(t *testing.T) {
	t.Parallel()

	_, _, err := OpenInput(filepath.Join(t.TempDir(), "nope"), nil)
	assert.ErrorIs(t, err, convert.ErrInputUnreadable)

	_, _, err = OpenInput("-", iotestErrReader{})
	assert.ErrorIs(t, err, convert.ErrInputUnreadable)

	_, _, err = OpenInput("-", nil)
	assert.ErrorIs(t, err, convert.ErrInputUnreadable)
}

func TestWriteOutputNoStdout(t *testing.T) {
	t.Parallel()

	err := WriteOutput("-", nil, membuf.NewImage(0, 1, 0xff), convert.FormatBinary)
	assert.ErrorIs(t, err, convert.ErrOutputUnwritable)
}

type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}
