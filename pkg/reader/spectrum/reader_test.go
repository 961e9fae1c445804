package spectrum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

const twoScans = `# exported profile spectra
Name: scan=12 RetentionTime=34.5
Charge: 2+
Num peaks: 3
400.10	1000
400.11	2000	"peak"
400.12	1000

Name: unnamed
Scan: 13
RT: 35.0
Comment: File=run1.raw
NumPeaks: 1
500.0 10
`

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader(twoScans), "spectra.txt")
	spectra, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, spectra, 2)

	first := spectra[0]
	assert.Equal(t, 12, first.ScanNumber)
	assert.Equal(t, 34.5, first.RetentionTime)
	assert.Equal(t, 2, first.PrecursorCharge)
	assert.Equal(t, "spectra.txt", first.SourceFile)
	assert.Equal(t, []core.SpectrumElement{
		{Mz: 400.10, Abundance: 1000},
		{Mz: 400.11, Abundance: 2000},
		{Mz: 400.12, Abundance: 1000},
	}, first.Elements)

	second := spectra[1]
	assert.Equal(t, 13, second.ScanNumber)
	assert.Equal(t, 35.0, second.RetentionTime)
	assert.Equal(t, "run1.raw", second.SourceFile)
	assert.Equal(t, []core.SpectrumElement{{Mz: 500, Abundance: 10}}, second.Elements)
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad header", "Name scan=1\nNum peaks: 0\n"},
		{"bad scan", "Scan: x\nNum peaks: 0\n"},
		{"bad peak", "Scan: 1\nNum peaks: 1\n400.0\n"},
		{"bad abundance", "Scan: 1\nNum peaks: 1\n400.0 many\n"},
		{"short block", "Scan: 1\nNum peaks: 2\n400.0 1\n\nScan: 2\n"},
		{"truncated", "Scan: 1\nNum peaks: 2\n400.0 1\n"},
		{"bad num peaks", "Scan: 1\nNum peaks: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), "")
			for r.Next() {
			}
			assert.Error(t, r.Err())
		})
	}
}

func TestReaderEmpty(t *testing.T) {
	r := NewReader(strings.NewReader("\n# nothing here\n"), "")
	assert.False(t, r.Next())
	assert.NoError(t, r.Err())
	assert.Nil(t, r.Spectrum())

	r = NewReader(strings.NewReader("Scan: 3\nNum peaks: 0\n"), "")
	require.True(t, r.Next())
	assert.Equal(t, 3, r.Spectrum().ScanNumber)
	assert.Empty(t, r.Spectrum().Elements)
}
