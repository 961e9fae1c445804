package pipeline

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/ChrisMcGann/mstk/pkg/config"
	"github.com/ChrisMcGann/mstk/pkg/core"
	"github.com/ChrisMcGann/mstk/pkg/psf"
	"github.com/ChrisMcGann/mstk/pkg/writer/tsv"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// envelope returns a charge 2 isotope envelope over scans 1..5 plus a
// lone noise centroid.
func envelope() []core.Centroid {
	profile := []float64{1, 3, 5, 3, 1}
	var cs []core.Centroid
	for k, mz := range []float64{500.0, 500.50143432, 501.00286864} {
		scale := 1 - 0.3*float64(k)
		for i, ab := range profile {
			cs = append(cs, core.Centroid{
				Mz:            mz,
				RetentionTime: 10 + float64(i),
				ScanNumber:    uint32(i + 1),
				Abundance:     ab * scale,
			})
		}
	}
	return append(cs, core.Centroid{Mz: 800, RetentionTime: 12, ScanNumber: 3, Abundance: 4})
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	w := tsv.NewWriter(f)
	require.NoError(t, w.WriteCentroids(envelope()))
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())
	return path
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		opts   []Option
	}{
		{"scan boxes", func(*config.Config) {}, nil},
		{"fwhm boxes from unfitted model", func(c *config.Config) {
			c.Xic.Boxes = "fwhm"
			c.Fwhm.Model = "constant"
		}, nil},
		{"fwhm boxes with learned width", func(c *config.Config) { c.Xic.Boxes = "fwhm" }, []Option{WithFwhm(psf.ConstantFwhm(0.01))}},
		{"nearest disambiguation", func(c *config.Config) { c.Xic.Disambiguator = "nearest" }, nil},
		{"rt gap splitter", func(c *config.Config) { c.Pattern.Splitter = "rt-gap" }, nil},
		{"mz gap splitter", func(c *config.Config) { c.Pattern.Splitter = "mz-gap" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)
			p, err := New(cfg, append(tt.opts, WithLogger(zaptest.NewLogger(t)))...)
			require.NoError(t, err)

			cs := envelope()
			res, err := p.Process(context.Background(), "a.tsv", cs)
			require.NoError(t, err)
			assert.Equal(t, "a.tsv", res.SourceFile)
			assert.Equal(t, len(cs), res.NumCentroids)
			assert.Len(t, res.Xics, 3, "the noise centroid is too short for an XIC")
			require.Len(t, res.Patterns, 1)
			assert.Equal(t, []int{2}, res.Patterns[0].Charges)
			assert.InDeltaSlice(t, []float64{500.0, 500.50143432, 501.00286864}, res.Patterns[0].Mzs(), 1e-9)
		})
	}
}

func TestProcessFiltered(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Filter.Mz.Max = 500.9
	p, err := New(cfg)
	require.NoError(t, err)

	res, err := p.Process(context.Background(), "a.tsv", envelope())
	require.NoError(t, err)
	assert.Len(t, res.Xics, 2)
	require.Len(t, res.Patterns, 1)
	assert.Equal(t, 2, res.Patterns[0].Len())
}

func TestNewInvalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pattern.Charges = []int{0}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRunFilesTSV(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	paths := []string{writeInput(t, in, "a.tsv"), writeInput(t, in, "b.tsv")}

	cfg := config.DefaultConfig()
	cfg.Threads = 2
	cfg.Output.Format = "tsv"
	cfg.Output.Path = out
	logger := zaptest.NewLogger(t)
	p, err := New(cfg, WithLogger(logger))
	require.NoError(t, err)
	sink, err := NewSink(cfg, logger)
	require.NoError(t, err)

	require.NoError(t, p.RunFiles(context.Background(), paths, sink))
	require.NoError(t, sink.Close())

	for _, name := range []string{"a", "b"} {
		data, err := os.ReadFile(filepath.Join(out, name+".patterns.tsv"))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[1], "0\t2\t"), lines[1])

		data, err = os.ReadFile(filepath.Join(out, name+".xics.tsv"))
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 4)
	}
}

func TestRunFilesSQLite(t *testing.T) {
	in := t.TempDir()
	paths := []string{writeInput(t, in, "a.tsv"), writeInput(t, in, "b.tsv"), writeInput(t, in, "c.tsv")}
	dbPath := filepath.Join(t.TempDir(), "features.db")

	cfg := config.DefaultConfig()
	cfg.Output.Path = dbPath
	p, err := New(cfg)
	require.NoError(t, err)
	sink, err := NewSink(cfg, nil)
	require.NoError(t, err)

	require.NoError(t, p.RunFiles(context.Background(), paths, sink))
	require.NoError(t, sink.Close())

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var runs, xics, patterns int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM RunTable`).Scan(&runs))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM XicTable`).Scan(&xics))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM PatternTable`).Scan(&patterns))
	assert.Equal(t, 3, runs)
	assert.Equal(t, 9, xics)
	assert.Equal(t, 3, patterns)

	var params string
	require.NoError(t, db.QueryRow(`SELECT Parameters FROM RunTable LIMIT 1`).Scan(&params))
	assert.Contains(t, params, "min_depth: 0.76")
}

func TestRunFilesErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Format = "tsv"
	cfg.Output.Path = t.TempDir()
	p, err := New(cfg)
	require.NoError(t, err)
	sink, err := NewSink(cfg, nil)
	require.NoError(t, err)
	defer sink.Close()

	err = p.RunFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing.tsv")}, sink)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.tsv")
	require.NoError(t, os.WriteFile(bad, []byte("mz\trt\tscan\tabundance\n500\tx\t1\t1\n"), 0644))
	err = p.RunFiles(context.Background(), []string{bad}, sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.RunFiles(ctx, []string{writeInput(t, t.TempDir(), "a.tsv")}, sink)
	assert.ErrorIs(t, err, context.Canceled)
}
