package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gernest/covmap/batch"
	"github.com/gernest/covmap/format"
	"github.com/stretchr/testify/require"
)

// isolate keeps stray .covmap.yaml files and COVMAP_* variables out of tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var o bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&o)
	cmd.SetErr(&o)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return o.String(), err
}

func writeInput(t *testing.T, dir, name string, number int32, seg format.Segment) {
	t.Helper()
	var b bytes.Buffer
	require.NoError(t, format.Encode(&b, number, []format.Segment{seg}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), b.Bytes(), 0600))
}

func TestDecodeAndShow(t *testing.T) {
	root := isolate(t)
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	db := filepath.Join(root, "results.db")
	metrics := filepath.Join(root, "metrics.prom")
	require.NoError(t, os.Mkdir(in, 0755))

	writeInput(t, in, "res1_complete.bin", 1, format.Segment{Start: 0x1000, End: 0x1008, Size: 1, Bitmap: []byte{0b00101101}})
	writeInput(t, in, "res1_timeout.bin", 1, format.Segment{Start: 0x2000, End: 0x2010, Size: 2, Bitmap: []byte{0xFF, 0x00}})
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("ignored"), 0600))

	got, err := execute(t, "decode", in,
		"--output", out, "--workers", "2", "--db", db, "--metrics-file", metrics, "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, got, "Using 2 workers for decoding 2 files...")
	require.Contains(t, got, "Summary written to "+filepath.Join(out, batch.SummaryName))

	summary, err := os.ReadFile(filepath.Join(out, batch.SummaryName))
	require.NoError(t, err)
	require.Equal(t, `# EXEC hidden instructions per file (res*_complete.bin)
res1_complete.bin: 4
Total EXEC hidden instructions: 4

# TIMEOUT hidden instructions per file (res*_timeout.bin)
res1_timeout.bin: 8
Total TIMEOUT hidden instructions: 8
`, string(summary))

	listing, err := os.ReadFile(filepath.Join(out, "res1_complete_decoded.txt"))
	require.NoError(t, err)
	require.Contains(t, string(listing), "[0x00001002, 0x00001004]\n")

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(prom), `covmap_instructions_total{kind="TIMEOUT"} 8`)

	got, err = execute(t, "show", "--db", db)
	require.NoError(t, err)
	require.Contains(t, got, "TIMEOUT")

	got, err = execute(t, "show", "--db", db, "--ranges", "res1_timeout.bin")
	require.NoError(t, err)
	require.Contains(t, got, "# file: res1_timeout.bin, kind=TIMEOUT, file_number=1, ranges=1, instructions=8")
	require.Contains(t, got, "[0x00002000, 0x00002008]\n")
}

func TestDecodeNoFiles(t *testing.T) {
	root := isolate(t)
	got, err := execute(t, "decode", root, "--output", filepath.Join(root, "out"))
	require.NoError(t, err)
	require.Contains(t, got, "no bitmap files found")
	require.NoDirExists(t, filepath.Join(root, "out"))
}

func TestDecodeMissingInput(t *testing.T) {
	root := isolate(t)
	_, err := execute(t, "decode", filepath.Join(root, "missing"))
	require.Error(t, err)
}

func TestDecodeFailure(t *testing.T) {
	root := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "res1_complete.bin"),
		[]byte{1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 64, 0, 0, 0, 8, 0, 0, 0, 0xFF}, 0600))
	out := filepath.Join(root, "out")
	_, err := execute(t, "decode", root, "--output", out)

	var te *batch.TaskError
	require.ErrorAs(t, err, &te)
	require.Equal(t, "res1_complete.bin", te.Name)
	var be *format.BitmapError
	require.ErrorAs(t, err, &be)
	require.Equal(t, format.BitmapError{Index: 0, Expected: 8, Actual: 1}, *be)
	require.NoFileExists(t, filepath.Join(out, batch.SummaryName))
}

func TestShowRequiresDB(t *testing.T) {
	isolate(t)
	_, err := execute(t, "show")
	require.Error(t, err)
}
