package fe

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

func makeCentroids(mz, rt []float64, sn []uint32, ab []float64) []core.Centroid {
	cs := make([]core.Centroid, len(ab))
	for i := range ab {
		cs[i] = core.Centroid{Mz: mz[i], RetentionTime: rt[i], ScanNumber: sn[i], Abundance: ab[i]}
	}
	return cs
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func sequence(from, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func scans(from uint32, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = from + uint32(i)
	}
	return out
}

func abundances(x Xic) []float64 {
	out := make([]float64, len(x.Centroids))
	for i, c := range x.Centroids {
		out[i] = c.Abundance
	}
	return out
}

func TestXicRecalculate(t *testing.T) {
	x := NewXic(makeCentroids(
		[]float64{100.004, 100.0, 100.002},
		[]float64{14, 10, 12},
		[]uint32{3, 1, 2},
		[]float64{1, 1, 2},
	))

	require.Equal(t, 3, x.Len())
	assert.Equal(t, []uint32{1, 2, 3}, []uint32{x.Centroids[0].ScanNumber, x.Centroids[1].ScanNumber, x.Centroids[2].ScanNumber})
	assert.InDelta(t, 100.002, x.Mz(), 1e-9)
	assert.InDelta(t, 12, x.RetentionTime(), 1e-12)
	assert.InDelta(t, 6, x.Abundance(), 1e-12)
	assert.InDelta(t, 1.7888544, x.RetentionTimeSigma(), 1e-6)
	assert.InDelta(t, 0.0017888544, x.MzSigma(), 1e-6)
	assert.Equal(t, uint32(1), x.FirstScan())
	assert.Equal(t, uint32(3), x.LastScan())
}

func TestXicDegenerate(t *testing.T) {
	var empty Xic
	empty.Recalculate()
	assert.Zero(t, empty.Abundance())
	assert.Zero(t, empty.FirstScan())

	single := NewXic([]core.Centroid{{Mz: 500, RetentionTime: 10, ScanNumber: 4, Abundance: 7}})
	assert.Equal(t, 7.0, single.Abundance())
	assert.Equal(t, 500.0, single.Mz())
	assert.Zero(t, single.MzSigma())
	assert.Zero(t, single.RetentionTimeSigma())

	zeros := NewXic(makeCentroids([]float64{100, 102}, []float64{1, 3}, []uint32{1, 2}, []float64{0, 0}))
	assert.Equal(t, 101.0, zeros.Mz())
	assert.Equal(t, 2.0, zeros.RetentionTime())
	assert.Zero(t, zeros.Abundance())
}

func TestXicMergeDuplicates(t *testing.T) {
	x := NewXic(makeCentroids(
		[]float64{100, 102, 100, 102, 50},
		[]float64{1, 1, 2, 2, 3},
		[]uint32{1, 1, 2, 2, 3},
		[]float64{1, 3, 0, 0, 1},
	))
	want := []core.Centroid{
		{Mz: 101.5, RetentionTime: 1, ScanNumber: 1, Abundance: 4},
		{Mz: 101, RetentionTime: 2, ScanNumber: 2, Abundance: 0},
		{Mz: 50, RetentionTime: 3, ScanNumber: 3, Abundance: 1},
	}
	if diff := cmp.Diff(want, x.Centroids, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("merged centroids mismatch (-want +got):\n%s", diff)
	}
}

func TestXicCorrelate(t *testing.T) {
	a := NewXic(makeCentroids(constant(100, 3), sequence(10, 1, 3), scans(1, 3), []float64{1, 2, 1}))
	b := NewXic(makeCentroids(constant(100, 3), sequence(11, 1, 3), scans(2, 3), []float64{2, 1, 1}))
	c := NewXic(makeCentroids(constant(100, 3), sequence(20, 1, 3), scans(10, 3), []float64{2, 1, 1}))

	assert.InDelta(t, 5.0/6.0, a.Correlate(b), 1e-12)
	assert.InDelta(t, 5.0/6.0, UncenteredCorrelation{}.Correlate(b, a), 1e-12)
	assert.InDelta(t, 1.0, a.Correlate(a), 1e-12)
	assert.Zero(t, a.Correlate(c))
	assert.Zero(t, a.Correlate(Xic{}))
}

func TestSmoothing(t *testing.T) {
	ab := []float64{1, 2, 3, 2, 1, 0, 1, 2, 0.5, 0.1}
	x := NewXic(makeCentroids(constant(100, 10), sequence(10, 1, 10), scans(1, 10), ab))
	want := []float64{1, 2, 2.3333333, 2, 1, 0.6666667, 1, 1.1666667, 0.8666667, 0.1}

	got := abundances(x.Smoothed())
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("smoothed mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ab, abundances(x), "smoothing must not touch the original")

	short := makeCentroids(constant(100, 2), sequence(10, 1, 2), scans(1, 2), []float64{1, 5})
	assert.Equal(t, short, RunningMeanSmoother{}.Smooth(short))
}

func TestXicSplit(t *testing.T) {
	mz := []float64{100.001, 100.003, 100.002, 100.005, 100.001, 100.003, 100.001, 100.004, 100.0, 100.01}
	rt := sequence(10, 1, 10)
	sn := scans(1, 10)

	tests := []struct {
		name     string
		ab       []float64
		minDepth float64
		want     [][]float64
	}{
		{"single peak", []float64{1, 2, 3, 2, 1, 0.5}, DefaultMinDepth, [][]float64{{1, 2, 3, 2, 1, 0.5}}},
		{"shallow tail", []float64{1, 2, 3, 2, 1, 0.1}, DefaultMinDepth, [][]float64{{1, 2, 3, 2, 1, 0.1}}},
		{
			"two peaks",
			[]float64{1, 2, 3, 2, 1, 0, 1, 2, 0.5, 0.1},
			DefaultMinDepth,
			[][]float64{{1, 2, 3, 2, 1}, {0, 1, 2, 0.5, 0.1}},
		},
		{
			"valley not deep enough",
			[]float64{1, 2, 3, 2, 1, 0, 1, 2, 0.5, 0.1},
			0.5,
			[][]float64{{1, 2, 3, 2, 1, 0, 1, 2, 0.5, 0.1}},
		},
		{"too short", []float64{3, 1, 3}, DefaultMinDepth, [][]float64{{3, 1, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.ab)
			x := NewXic(makeCentroids(mz[:n], rt[:n], sn[:n], tt.ab))
			parts := x.Split(tt.minDepth)
			var got [][]float64
			for _, p := range parts {
				got = append(got, abundances(p))
			}
			assert.Equal(t, tt.want, got)

			// splitting is idempotent
			for _, p := range parts {
				assert.Len(t, p.Split(tt.minDepth), 1)
			}
		})
	}
}

func TestXicSplitRealWorld(t *testing.T) {
	rt := []float64{35.054338, 35.082955, 35.124493, 35.148760, 35.187350, 35.201423, 35.221842,
		35.245268, 35.259378, 35.275875, 35.303758, 35.317743, 35.343372, 35.362485, 35.382055,
		35.405510, 35.419758, 35.440430, 35.459777, 35.474085, 35.490142, 35.506402, 35.530067,
		35.553845, 35.572822}
	ab := []float64{34898.0, 0.0, 40727.0, 59495.0, 135552.0, 225115.0, 333659.0, 469826.0,
		468061.0, 565953.0, 855597.0, 1064007.0, 1252753.0, 1094078.0, 1286880.0, 1220093.0,
		1003690.0, 968112.0, 589395.0, 704491.0, 480898.0, 485505.0, 196695.0, 112505.0, 68079.0}
	x := NewXic(makeCentroids(constant(500, 25), rt, scans(1, 25), ab))
	assert.Len(t, x.Split(DefaultMinDepth), 1)

	rt = []float64{2111.24, 2112.09, 2113.31, 2114.72, 2115.56, 2116.55, 2118.23, 2119.06, 2120.6,
		2121.75, 2122.92, 2124.33, 2125.19, 2126.43, 2127.59, 2128.45, 2129.41, 2130.38, 2131.8,
		2133.23, 2134.37}
	sn := []uint32{4000, 4002, 4005, 4009, 4011, 4013, 4017, 4019, 4023, 4026, 4029, 4033, 4035,
		4038, 4041, 4043, 4045, 4047, 4048, 4052, 4055}
	ab = []float64{472009.0, 905473.0, 1291190.0, 1828580.0, 1817710.0, 2244620.0, 3388290.0,
		4188030.0, 5001190.0, 4322550.0, 4969260.0, 4725260.0, 4004990.0, 3754450.0, 2327370.0,
		2761370.0, 1909930.0, 1926350.0, 756566.0, 400389.0, 242239.0}
	x = NewXic(makeCentroids(constant(548.813, 21), rt, sn, ab))
	assert.Len(t, x.Split(DefaultMinDepth), 1)
}

func TestLocalMinSplitterRanges(t *testing.T) {
	ab := []float64{1, 2, 3, 2, 1, 0, 1, 2, 0.5, 0.1}
	cs := makeCentroids(constant(100, 10), sequence(10, 1, 10), scans(1, 10), ab)
	s := NewLocalMinSplitter(DefaultMinDepth)

	assert.Equal(t, []Range{{0, 5}, {5, 10}}, s.Split(cs, RunningMeanSmoother{}.Smooth(cs)))
	assert.Nil(t, s.Split(nil, nil))
	assert.Equal(t, 5, Range{5, 10}.Len())
}
