// Package fe extracts features from centroided LC-MS data: ion chromatograms
// (XICs) assembled across scans and charge-assigned isotope patterns built
// from correlated XICs.
package fe

import (
	"math"
	"sort"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// Xic is an extracted ion chromatogram: centroids of one m/z locus over
// consecutive scans, sorted by scan number with at most one centroid per
// scan. The scalar summaries are valid after Recalculate.
type Xic struct {
	Centroids []core.Centroid

	mz        float64
	mzSigma   float64
	rt        float64
	rtSigma   float64
	abundance float64
}

// NewXic copies cs into a new Xic and computes its summaries.
func NewXic(cs []core.Centroid) Xic {
	x := Xic{Centroids: append([]core.Centroid(nil), cs...)}
	x.Recalculate()
	return x
}

// Len returns the number of centroids.
func (x Xic) Len() int { return len(x.Centroids) }

// Mz returns the abundance-weighted mean m/z.
func (x Xic) Mz() float64 { return x.mz }

// MzSigma returns the abundance-weighted m/z standard deviation.
func (x Xic) MzSigma() float64 { return x.mzSigma }

// RetentionTime returns the abundance-weighted mean retention time.
func (x Xic) RetentionTime() float64 { return x.rt }

// RetentionTimeSigma returns the abundance-weighted rt standard deviation.
func (x Xic) RetentionTimeSigma() float64 { return x.rtSigma }

// Abundance returns the trapezoidal integral of abundance over rt.
func (x Xic) Abundance() float64 { return x.abundance }

// FirstScan and LastScan bound the scan range; both are 0 for an empty Xic.
func (x Xic) FirstScan() uint32 {
	if len(x.Centroids) == 0 {
		return 0
	}
	return x.Centroids[0].ScanNumber
}

func (x Xic) LastScan() uint32 {
	if len(x.Centroids) == 0 {
		return 0
	}
	return x.Centroids[len(x.Centroids)-1].ScanNumber
}

// Clone returns a deep copy.
func (x Xic) Clone() Xic {
	c := x
	c.Centroids = append([]core.Centroid(nil), x.Centroids...)
	return c
}

// Recalculate sorts the centroids by scan number, merges same-scan
// duplicates and recomputes the summaries.
func (x *Xic) Recalculate() {
	sortByScan(x.Centroids)
	x.MergeDuplicates()

	x.mz, x.mzSigma, x.rt, x.rtSigma, x.abundance = 0, 0, 0, 0, 0
	n := len(x.Centroids)
	if n == 0 {
		return
	}
	x.abundance = trapezoid(x.Centroids)

	var swm, swsm, swr, swsr, sw, ssw float64
	for _, c := range x.Centroids {
		wm := c.Abundance * c.Mz
		swm += wm
		swsm += wm * c.Mz
		wr := c.Abundance * c.RetentionTime
		swr += wr
		swsr += wr * c.RetentionTime
		sw += c.Abundance
		ssw += c.Abundance * c.Abundance
	}

	if sw == 0 {
		for _, c := range x.Centroids {
			x.mz += c.Mz
			x.rt += c.RetentionTime
		}
		x.mz /= float64(n)
		x.rt /= float64(n)
		return
	}
	x.mz = swm / sw
	x.rt = swr / sw

	denom := sw*sw - ssw
	if n < 2 || denom <= 0 {
		return
	}
	// weighted variances can come out slightly negative
	m := math.Abs((swsm*sw - swm*swm) / denom)
	r := math.Abs((swsr*sw - swr*swr) / denom)
	x.mzSigma = math.Sqrt(m)
	x.rtSigma = math.Sqrt(r)
}

// MergeDuplicates merges runs of consecutive centroids that share a scan
// number. The merged m/z is the abundance-weighted mean, or the arithmetic
// mean if all merged abundances are zero; abundances are summed.
func (x *Xic) MergeDuplicates() {
	x.Centroids = mergeBy(x.Centroids, func(a, b core.Centroid) bool {
		return a.ScanNumber == b.ScanNumber
	})
}

// mergeBy collapses runs of consecutive centroids for which same holds.
func mergeBy(cs []core.Centroid, same func(a, b core.Centroid) bool) []core.Centroid {
	out := cs[:0]
	for p := 0; p < len(cs); {
		cur := cs[p]
		wMz := cur.Mz * cur.Abundance
		sMz := cur.Mz
		sAb := cur.Abundance
		q := p + 1
		for ; q < len(cs) && same(cur, cs[q]); q++ {
			wMz += cs[q].Mz * cs[q].Abundance
			sMz += cs[q].Mz
			sAb += cs[q].Abundance
		}
		if sAb > 0 {
			cur.Mz = wMz / sAb
		} else {
			cur.Mz = sMz / float64(q-p)
		}
		cur.Abundance = sAb
		out = append(out, cur)
		p = q
	}
	return out
}

// trapezoid integrates abundance over rt; a single centroid integrates to
// its abundance.
func trapezoid(cs []core.Centroid) float64 {
	if len(cs) == 1 {
		return cs[0].Abundance
	}
	var sum float64
	for i := 1; i < len(cs); i++ {
		l, r := cs[i-1], cs[i]
		sum += (r.RetentionTime - l.RetentionTime) *
			(math.Min(l.Abundance, r.Abundance) + 0.5*math.Abs(l.Abundance-r.Abundance))
	}
	return sum
}

func sortByScan(cs []core.Centroid) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].ScanNumber != cs[j].ScanNumber {
			return cs[i].ScanNumber < cs[j].ScanNumber
		}
		return cs[i].RetentionTime < cs[j].RetentionTime
	})
}

// LessByMz orders XICs by m/z.
func LessByMz(a, b Xic) bool { return a.mz < b.mz }

// LessByRetentionTime orders XICs by retention time.
func LessByRetentionTime(a, b Xic) bool { return a.rt < b.rt }

// LessByAbundance orders XICs by abundance.
func LessByAbundance(a, b Xic) bool { return a.abundance < b.abundance }
