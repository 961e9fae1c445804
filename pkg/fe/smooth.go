package fe

import "github.com/ChrisMcGann/mstk/pkg/core"

// Smoother smooths the abundances of a scan-sorted trace.
type Smoother interface {
	// Smooth returns a smoothed copy of cs of the same length.
	Smooth(cs []core.Centroid) []core.Centroid
}

// RunningMeanSmoother is a sparse three-point running mean in which the
// neighbours are weighted by their relative rt distance. The first and last
// entries are left untouched.
type RunningMeanSmoother struct{}

func (RunningMeanSmoother) Smooth(cs []core.Centroid) []core.Centroid {
	out := append([]core.Centroid(nil), cs...)
	if len(cs) < 3 {
		return out
	}
	for i := 1; i+1 < len(cs); i++ {
		l, c, r := cs[i-1], cs[i], cs[i+1]
		span := r.RetentionTime - l.RetentionTime
		if span <= 0 {
			continue
		}
		dl := c.RetentionTime - l.RetentionTime
		dr := r.RetentionTime - c.RetentionTime
		out[i].Abundance = (2*((1-dl/span)*l.Abundance+(1-dr/span)*r.Abundance) + c.Abundance) / 3
	}
	return out
}

// Smoothed returns a copy of x with running-mean smoothed abundances. The
// summaries are not recalculated.
func (x Xic) Smoothed() Xic {
	s := x.Clone()
	s.Centroids = RunningMeanSmoother{}.Smooth(x.Centroids)
	return s
}
