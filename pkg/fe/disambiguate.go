package fe

import (
	"math"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// Disambiguator resolves centroids that share a scan within one connected
// component.
type Disambiguator interface {
	// Disambiguate takes a scan-sorted component and returns one centroid
	// per scan. It may reuse the backing array of cs.
	Disambiguate(cs []core.Centroid) []core.Centroid
}

// WeightedMeanDisambiguator merges same-scan centroids into one with the
// abundance-weighted mean m/z and the summed abundance. Zero-abundance
// centroids are kept, as they matter for splitting.
type WeightedMeanDisambiguator struct{}

func (WeightedMeanDisambiguator) Disambiguate(cs []core.Centroid) []core.Centroid {
	return mergeBy(cs, func(a, b core.Centroid) bool { return a.ScanNumber == b.ScanNumber })
}

// NearestDisambiguator keeps, per scan, the centroid closest in m/z to the
// abundance-weighted m/z of the whole component. Ties go to the more
// abundant centroid.
type NearestDisambiguator struct{}

func (NearestDisambiguator) Disambiguate(cs []core.Centroid) []core.Centroid {
	if len(cs) == 0 {
		return cs
	}
	center := weightedMz(cs)

	out := cs[:0]
	for p := 0; p < len(cs); {
		best := cs[p]
		q := p + 1
		for ; q < len(cs) && cs[q].ScanNumber == best.ScanNumber; q++ {
			d, bd := math.Abs(cs[q].Mz-center), math.Abs(best.Mz-center)
			if d < bd || (d == bd && cs[q].Abundance > best.Abundance) {
				best = cs[q]
			}
		}
		out = append(out, best)
		p = q
	}
	return out
}

func weightedMz(cs []core.Centroid) float64 {
	var wm, w, m float64
	for _, c := range cs {
		wm += c.Mz * c.Abundance
		w += c.Abundance
		m += c.Mz
	}
	if w > 0 {
		return wm / w
	}
	return m / float64(len(cs))
}
