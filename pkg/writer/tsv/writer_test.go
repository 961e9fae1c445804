package tsv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/mstk/pkg/core"
	"github.com/ChrisMcGann/mstk/pkg/fe"
	"github.com/ChrisMcGann/mstk/pkg/reader/centroid"
)

func TestCentroidRoundTrip(t *testing.T) {
	cs := []core.Centroid{
		{Mz: 500.123456789, RetentionTime: 12.25, ScanNumber: 3, Abundance: 1e6},
		{Mz: 501.5, RetentionTime: 13, ScanNumber: 4, Abundance: 0},
	}
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteCentroids(cs))
	require.NoError(t, w.Flush())

	got, err := centroid.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, cs, got)
}

func TestWritePatterns(t *testing.T) {
	x := fe.NewXic([]core.Centroid{
		{Mz: 500, RetentionTime: 10, ScanNumber: 1, Abundance: 1},
		{Mz: 500, RetentionTime: 11, ScanNumber: 2, Abundance: 1},
	})
	y := fe.NewXic([]core.Centroid{
		{Mz: 500.5, RetentionTime: 10, ScanNumber: 1, Abundance: 1},
		{Mz: 500.5, RetentionTime: 11, ScanNumber: 2, Abundance: 1},
	})

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteXics([]fe.Xic{x, y}))
	require.NoError(t, w.WritePatterns([]fe.IsotopePattern{fe.NewIsotopePattern([]fe.Xic{y, x}, []int{2})}))
	require.NoError(t, w.WriteSpectrum(core.Spectrum{Elements: []core.SpectrumElement{{Mz: 1, Abundance: 2}}}))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 9)
	assert.Equal(t, []string{"0", "500", "0", "10.5"}, fields[:4])
	assert.Equal(t, []string{"1", "1", "2", "2"}, fields[5:])
	assert.Equal(t, "0\t2\t10.5\t2\t500,500.5", lines[4])
	assert.Equal(t, "1\t2", lines[6])
}
