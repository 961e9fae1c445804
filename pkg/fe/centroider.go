package fe

import (
	"math"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// BumpFinder delimits peaks in a profile spectrum.
type BumpFinder interface {
	// FindBump returns the exclusive end of the bump starting at s[0].
	FindBump(s []core.SpectrumElement) int
}

// MeanAccumulator estimates the m/z of a bump.
type MeanAccumulator interface {
	Mean(bump []core.SpectrumElement) float64
}

// AbundanceAccumulator estimates the abundance of a bump.
type AbundanceAccumulator interface {
	Abundance(bump []core.SpectrumElement) float64
}

// SimpleBumpFinder ends a bump where the abundance rises again after having
// fallen: ramp up (rising or level), fall, ramp down (falling or level), rise.
type SimpleBumpFinder struct{}

func (SimpleBumpFinder) FindBump(s []core.SpectrumElement) int {
	const (
		rampUp = iota
		rampDown
	)
	if len(s) < 2 {
		return len(s)
	}
	state := rampUp
	for right := 1; right < len(s); right++ {
		up := s[right-1].Abundance < s[right].Abundance
		down := s[right].Abundance < s[right-1].Abundance
		switch state {
		case rampUp:
			if down {
				state = rampDown
			}
		case rampDown:
			if up {
				return right
			}
		}
	}
	return len(s)
}

// GaussianMeanAccumulator fits a Gaussian through the maximum and its two
// neighbours after trimming leading zeros and everything from the first
// zero after them. With one neighbour it falls back to the weighted mean.
type GaussianMeanAccumulator struct{}

func (GaussianMeanAccumulator) Mean(bump []core.SpectrumElement) float64 {
	start := 0
	for start < len(bump) && bump[start].Abundance == 0 {
		start++
	}
	if start == len(bump) {
		var m float64
		for _, e := range bump {
			m += e.Mz
		}
		return m / float64(len(bump))
	}
	stop, mx := len(bump), start
	for i := start; i < len(bump); i++ {
		if bump[i].Abundance > bump[mx].Abundance {
			mx = i
		}
		if bump[i].Abundance == 0 {
			stop = i
			break
		}
	}

	hasLeft := mx > start
	hasRight := mx+1 < stop
	m := bump[mx]
	switch {
	case hasLeft && hasRight:
		l, r := bump[mx-1], bump[mx+1]
		lm, mm, rm := math.Log(l.Abundance), math.Log(m.Abundance), math.Log(r.Abundance)
		num := (mm-rm)*l.Mz*l.Mz + (rm-lm)*m.Mz*m.Mz + (lm-mm)*r.Mz*r.Mz
		den := 2 * ((mm-rm)*l.Mz + (rm-lm)*m.Mz + (lm-mm)*r.Mz)
		if den != 0 {
			if mz := num / den; mz >= l.Mz && mz <= r.Mz {
				return mz
			}
		}
		return weightedMean(l, m, r)
	case hasLeft:
		return weightedMean(bump[mx-1], m)
	case hasRight:
		return weightedMean(m, bump[mx+1])
	}
	return m.Mz
}

func weightedMean(es ...core.SpectrumElement) float64 {
	var wm, w, sm float64
	for _, e := range es {
		wm += e.Mz * e.Abundance
		w += e.Abundance
		sm += e.Mz
	}
	if w > 0 {
		return wm / w
	}
	return sm / float64(len(es))
}

// SumAbundanceAccumulator sums the abundances of a bump.
type SumAbundanceAccumulator struct{}

func (SumAbundanceAccumulator) Abundance(bump []core.SpectrumElement) float64 {
	var ab float64
	for _, e := range bump {
		ab += e.Abundance
	}
	return ab
}

// Centroider reduces profile spectra to centroids.
type Centroider struct {
	Bumps     BumpFinder
	Mean      MeanAccumulator
	Abundance AbundanceAccumulator
	Logger    *zap.Logger
}

// NewCentroider returns a Centroider with the simple bump finder, the
// Gaussian mean and the summed abundance.
func NewCentroider(logger *zap.Logger) *Centroider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Centroider{
		Bumps:     SimpleBumpFinder{},
		Mean:      GaussianMeanAccumulator{},
		Abundance: SumAbundanceAccumulator{},
		Logger:    logger,
	}
}

// Centroid returns one centroid per bump of the m/z-sorted profile spectrum
// s, stamped with the spectrum's scan number and retention time. Bumps with
// zero abundance are dropped.
func (c *Centroider) Centroid(s core.Spectrum) ([]core.Centroid, error) {
	if !s.IsSorted() {
		return nil, core.Precondition("fe.Centroider.Centroid", "spectrum of scan %d is not sorted by m/z", s.ScanNumber)
	}
	var out []core.Centroid
	for first := 0; first < len(s.Elements); {
		last := first + c.Bumps.FindBump(s.Elements[first:])
		if last <= first {
			last = first + 1
		}
		bump := s.Elements[first:last]
		if ab := c.Abundance.Abundance(bump); ab > 0 {
			out = append(out, core.Centroid{
				Mz:            c.Mean.Mean(bump),
				RetentionTime: s.RetentionTime,
				ScanNumber:    uint32(s.ScanNumber),
				Abundance:     ab,
			})
		}
		first = last
	}
	if c.Logger != nil {
		c.Logger.Debug("centroided spectrum",
			zap.Int("scan", s.ScanNumber),
			zap.Int("profile", len(s.Elements)),
			zap.Int("centroids", len(out)))
	}
	return out, nil
}
