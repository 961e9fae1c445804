package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/mstk/pkg/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := ExecuteContext(context.Background())
	return out.String(), err
}

func TestIsotopesCommand(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "absent.yaml")
	out, err := run(t, "--config", cfgPath, "isotopes", "--formula", "H2O", "--charge", "0")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "mz\tabundance", lines[0])
	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 2)
	mz, err := strconv.ParseFloat(fields[0], 64)
	require.NoError(t, err)
	assert.InDelta(t, 18.0105633, mz, 1e-6)
}

func TestInitConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mstk.yaml")
	_, err := run(t, "--config", path, "init-config")
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Xic, loaded.Xic)
}
