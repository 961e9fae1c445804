package fe

import (
	"math"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// Correlator scores the co-elution of two XICs in [0, 1].
type Correlator interface {
	Correlate(a, b Xic) float64
}

// UncenteredCorrelation is the cosine of the abundance vectors of two XICs
// aligned by scan number. A scan observed on one side only adds to that
// side's norm.
type UncenteredCorrelation struct{}

func (UncenteredCorrelation) Correlate(a, b Xic) float64 {
	return uncentered(a.Centroids, b.Centroids)
}

// Correlate returns the uncentered correlation of x and y.
func (x Xic) Correlate(y Xic) float64 {
	return uncentered(x.Centroids, y.Centroids)
}

// uncentered expects both sides sorted by scan number.
func uncentered(lhs, rhs []core.Centroid) float64 {
	var lr, lsq, rsq float64
	i, j := 0, 0
	for i < len(lhs) || j < len(rhs) {
		switch {
		case j == len(rhs) || (i < len(lhs) && lhs[i].ScanNumber < rhs[j].ScanNumber):
			lsq += lhs[i].Abundance * lhs[i].Abundance
			i++
		case i == len(lhs) || rhs[j].ScanNumber < lhs[i].ScanNumber:
			rsq += rhs[j].Abundance * rhs[j].Abundance
			j++
		default:
			l, r := lhs[i].Abundance, rhs[j].Abundance
			lr += l * r
			lsq += l * l
			rsq += r * r
			i++
			j++
		}
	}
	if lr == 0 {
		return 0
	}
	return lr / math.Sqrt(lsq*rsq)
}
