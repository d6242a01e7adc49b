package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newTestRoot(out io.Writer) *cobra.Command {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: level,
	}))

	root := newRootCmd(logger, level)
	root.SetOut(out)
	root.SetErr(io.Discard)

	return root
}

func TestPlanCommandDefaultLength(t *testing.T) {
	var buf bytes.Buffer
	root := newTestRoot(&buf)
	root.SetArgs([]string{"plan"})

	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 70)

	require.Equal(t,
		"./target/release/examples/comparison -f prio -d 1 -c 10000",
		lines[0])
	require.Equal(t,
		"./target/release/examples/comparison -f dprio -d 1 -c 1000000",
		lines[69])
}

func TestPlanCommandCustomGrid(t *testing.T) {
	var buf bytes.Buffer
	root := newTestRoot(&buf)
	root.SetArgs([]string{
		"plan",
		"--bin", "/opt/comparison",
		"--dimensions", "2",
		"--clients", "100",
		"--modes", "prio",
		"--repeats", "1",
	})

	require.NoError(t, root.Execute())

	want := "/opt/comparison -f prio -d 2 -c 10000\n" +
		"/opt/comparison -f prio -d 1 -c 100\n"
	require.Equal(t, want, buf.String())
}

func TestPlanCommandRejectsBadFlags(t *testing.T) {
	var buf bytes.Buffer
	root := newTestRoot(&buf)
	root.SetArgs([]string{"plan", "--repeats", "0"})

	require.Error(t, root.Execute())
}

func TestRunCommandRejectsUnknownMode(t *testing.T) {
	var buf bytes.Buffer
	root := newTestRoot(&buf)
	root.SetArgs([]string{"run", "--modes", "fastest"})

	err := root.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown mode")
}

func TestPlanCommandFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.hcl")

	src := `
sweep {
  binary     = "/opt/comparison"
  modes      = [prio]
  dimensions = [4]
  clients    = [100]
  repeats    = 1
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	var buf bytes.Buffer
	root := newTestRoot(&buf)
	root.SetArgs([]string{"plan", "--config", path})

	require.NoError(t, root.Execute())

	want := "/opt/comparison -f prio -d 4 -c 10000\n" +
		"/opt/comparison -f prio -d 1 -c 100\n"
	require.Equal(t, want, buf.String())
}
