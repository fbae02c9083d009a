package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/malt3/swap-tool/api/report"
	"github.com/malt3/swap-tool/pkg/guard"
	"github.com/malt3/swap-tool/pkg/swaps"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testingListing = "Filename\t\t\t\tType\t\tSize\t\tUsed\t\tPriority\n" +
	"/dev/sda2                               partition\t2097152\t\t0\t\t-2\n" +
	"/swapfile                               file\t\t1536\t\t512\t\t-3\n" +
	"/mnt/bad\\377name                        file\t\t4\t\t0\t\t-4\n"

func TestList(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	out, err := runCmd(t, "list", "--swaps-file", testingSwapsFile(t))
	require.NoError(err)
	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(lines, 4)
	assert.Equal([]string{"SOURCE", "TYPE", "SIZE", "USED", "PRIORITY"}, fields(lines[0]))
	assert.Equal([]string{"/dev/sda2", "partition", "2.0", "GiB", "0", "B", "-2"}, fields(lines[1]))
	assert.Equal([]string{"/swapfile", "file", "1.5", "MiB", "512", "KiB", "-3"}, fields(lines[2]))
	assert.Contains(string(lines[3]), `"/mnt/bad\xffname"`)
}

func TestListJSON(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	out, err := runCmd(t, "list", "--json", "--swaps-file", testingSwapsFile(t))
	require.NoError(err)

	var got report.Swaps
	require.NoError(json.Unmarshal([]byte(out), &got))
	require.Len(got, 3)
	assert.Equal(report.Swap{
		Source:   "/dev/sda2",
		Type:     "partition",
		Size:     "2097152",
		Used:     "0",
		Priority: "-2",
	}, got[0])
	assert.Empty(got[1].SourceRaw)
	assert.Equal("/mnt/bad�name", got[2].Source)
	assert.Equal([]byte("/mnt/bad\xffname"), got[2].SourceRaw)
}

func TestListEmptyTable(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "swaps")
	require.NoError(os.WriteFile(path, []byte("Filename Type Size Used Priority\n"), 0o644))

	out, err := runCmd(t, "list", "--json", "--swaps-file", path)
	require.NoError(err)
	require.JSONEq("[]", out)
}

func TestListUnavailable(t *testing.T) {
	assert := assert.New(t)

	_, err := runCmd(t, "list", "--swaps-file", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(err, swaps.ErrSourceUnavailable)
}

func TestListMalformed(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "swaps")
	assert.NoError(os.WriteFile(path, []byte("Filename Type Size Used Priority\n/dev/sda2 partition 1024 0\n"), 0o644))

	out, err := runCmd(t, "list", "--swaps-file", path)
	assert.ErrorIs(err, swaps.ErrMalformedRecord)
	assert.Empty(out)
}

func TestCheck(t *testing.T) {
	testCases := map[string]struct {
		args     []string
		wantOut  string
		wantBusy bool
	}{
		"free path": {
			args:    []string{"/other"},
			wantOut: "/other: free\n",
		},
		"swapped path": {
			args:     []string{"/swapfile"},
			wantOut:  "/swapfile: swapped\n",
			wantBusy: true,
		},
		"mixed paths": {
			args:     []string{"/other", "/dev/sda2"},
			wantOut:  "/other: free\n/dev/sda2: swapped\n",
			wantBusy: true,
		},
		"quiet": {
			args:     []string{"-q", "/swapfile"},
			wantBusy: true,
		},
		"path is cleaned": {
			args:     []string{"/dev/../dev/sda2"},
			wantOut:  "/dev/sda2: swapped\n",
			wantBusy: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			args := append([]string{"check", "--no-color", "--swaps-file", testingSwapsFile(t)}, tc.args...)
			out, err := runCmd(t, args...)
			if tc.wantBusy {
				assert.ErrorIs(err, guard.ErrBusy)
			} else {
				assert.NoError(err)
			}
			assert.Equal(tc.wantOut, out)
		})
	}
}

func TestCheckPartitionsOnFile(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	image := filepath.Join(t.TempDir(), "image.raw")
	require.NoError(os.WriteFile(image, make([]byte, 4096), 0o644))

	out, err := runCmd(t, "check", "--no-color", "-p", "--swaps-file", testingSwapsFile(t), image)
	assert.NoError(err)
	assert.Equal(image+": free\n", out)
}

func TestCheckJSON(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	out, err := runCmd(t, "check", "--json", "--swaps-file", testingSwapsFile(t), "/swapfile", "/other")
	assert.ErrorIs(err, guard.ErrBusy)

	var got report.Checks
	require.NoError(json.Unmarshal([]byte(out), &got))
	assert.Equal(report.Checks{
		{Path: "/swapfile", Swapped: true, Busy: true},
		{Path: "/other"},
	}, got)
}

func TestCheckRequiresPath(t *testing.T) {
	_, err := runCmd(t, "check", "--swaps-file", testingSwapsFile(t))
	assert.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := runCmd(t, "list", "--log-level", "loud", "--swaps-file", testingSwapsFile(t))
	assert.ErrorContains(t, err, "parsing log level")
}

func TestHumanKiB(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("0 B", humanKiB([]byte("0")))
	assert.Equal("2.0 GiB", humanKiB([]byte("2097152")))
	assert.Equal("-2", humanKiB([]byte("-2")))
	assert.Equal(`"\xff"`, humanKiB([]byte{0xff}))
}

func TestDisplayBytes(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("/dev/sda2", displayBytes([]byte("/dev/sda2")))
	assert.Equal("/mnt/my swap", displayBytes([]byte("/mnt/my swap")))
	assert.Equal(`"/mnt/tab\there"`, displayBytes([]byte("/mnt/tab\there")))
	assert.Equal(`"\xfe"`, displayBytes([]byte{0xfe}))
}

func testingSwapsFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swaps")
	require.NoError(t, os.WriteFile(path, []byte(testingListing), 0o644))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores flag defaults, since commands are package globals.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func fields(line []byte) []string {
	var out []string
	for _, f := range bytes.Fields(line) {
		out = append(out, string(f))
	}
	return out
}
