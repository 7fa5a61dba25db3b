package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anupcshan/srec2bin/convert"
	"github.com/anupcshan/srec2bin/internal/cliutil"
)

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "in.s19")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeInput(t, dir, "S00600004844521B\nS104000011EA\nS104000222D7\nS9030000FC\n")
	out := filepath.Join(dir, "out.bin")

	var stderr bytes.Buffer
	code := run([]string{in, out}, nil, nil, &stderr)
	require.Equal(t, cliutil.ExitOK, code, stderr.String())

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 0xff, 0x22}, got)
	assert.Contains(t, stderr.String(), "SREC2BIN")
	assert.Contains(t, stderr.String(), "Processing complete")
}

func TestRunOptions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeInput(t, dir, "S1040010AA41\n")
	out := filepath.Join(dir, "out.bin")
	records := filepath.Join(dir, "out.records")
	metrics := filepath.Join(dir, "out.prom")

	var stderr bytes.Buffer
	code := run([]string{"-q", in, "-o", "0C", "-a", "10", "-f", "0", out, "-records", records, "-metrics", metrics}, nil, nil, &stderr)
	require.Equal(t, cliutil.ExitOK, code, stderr.String())
	assert.Empty(t, stderr.String())

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	want := make([]byte, 0x10)
	want[4] = 0xaa
	assert.Equal(t, want, got)

	m, err := convert.ReadManifest(records)
	require.NoError(t, err)
	assert.Equal(t, convert.Range{Min: 0x0c, Max: 0x1b}, m.Range)
	require.Len(t, m.Records, 1)
	assert.Equal(t, int64(4), m.Records[0].Offset)

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `srec2bin_conversions_total{result="ok"} 1`)
}

func TestRunStdio(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run([]string{"-q", "-", "-"}, strings.NewReader("S1030000AAFC"), &stdout, &stderr)
	require.Equal(t, cliutil.ExitOK, code, stderr.String())
	assert.Equal(t, []byte{0xaa}, stdout.Bytes())
	assert.Contains(t, stderr.String(), "Byte count omits checksum")
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.s19")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	bad := filepath.Join(dir, "bad.s19")
	require.NoError(t, os.WriteFile(bad, []byte("S1050000AA\n"), 0644))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"help", []string{"-help"}, cliutil.ExitOK},
		{"no files", []string{}, cliutil.ExitUsage},
		{"no output", []string{empty}, cliutil.ExitUsage},
		{"too many files", []string{empty, "a", "b"}, cliutil.ExitUsage},
		{"bad flag", []string{"-z", empty, "out"}, cliutil.ExitUsage},
		{"bad hex", []string{"-o", "xyz", empty, "out"}, cliutil.ExitUsage},
		{"bad format", []string{"-format", "elf", empty, "out"}, cliutil.ExitUsage},
		{"missing input", []string{filepath.Join(dir, "nope.s19"), filepath.Join(dir, "out1")}, cliutil.ExitInputUnreadable},
		{"empty input", []string{empty, filepath.Join(dir, "out2")}, cliutil.ExitEmptyRange},
		{"unwritable output", []string{"-a", "1", empty, filepath.Join(dir, "missing", "out")}, cliutil.ExitOutputUnwritable},
		{"strict", []string{"-strict", bad, filepath.Join(dir, "out3")}, cliutil.ExitMalformedRecord},
		{"too large", []string{"-max", "8", "-a", "10", empty, filepath.Join(dir, "out4")}, cliutil.ExitImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, tt.want, run(tt.args, nil, nil, &stderr), stderr.String())
		})
	}

	_, err := os.Stat(filepath.Join(dir, "out2"))
	assert.True(t, os.IsNotExist(err), "empty input must not create an output file")
}
