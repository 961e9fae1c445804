package centroid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

func TestReader(t *testing.T) {
	input := "mz\trt\tscan\tabundance\n" +
		"# first scan\n" +
		"500.25\t12.5\t3\t1000\n" +
		"\n" +
		"501.25 12.5 3 500.5\n"

	cs, err := NewReader(strings.NewReader(input)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []core.Centroid{
		{Mz: 500.25, RetentionTime: 12.5, ScanNumber: 3, Abundance: 1000},
		{Mz: 501.25, RetentionTime: 12.5, ScanNumber: 3, Abundance: 500.5},
	}, cs)
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few fields", "500.25 12.5 3\n"},
		{"bad m/z", "x 12.5 3 1\n"},
		{"bad rt", "500 x 3 1\n"},
		{"negative scan", "500 12.5 -3 1\n"},
		{"bad abundance", "500 12.5 3 x\n"},
		{"negative abundance", "500 12.5 3 -1\n"},
		{"NaN m/z", "NaN 12.5 3 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input))
			assert.False(t, r.Next())
			require.Error(t, r.Err())
			assert.Contains(t, r.Err().Error(), "line 1")
		})
	}
}
