package fe

import (
	"math"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// CentroidBoxGenerator yields the query box of a centroid. All boxes of one
// generator share the meaning of dimension 0.
type CentroidBoxGenerator interface {
	Box(c core.Centroid) Box
}

// ScanBoxGenerator boxes centroids in scan space: +-ScanTolerance scans
// (widened by 0.1) and +-Ppm parts per million.
type ScanBoxGenerator struct {
	ScanTolerance int
	Ppm           float64
}

func (g ScanBoxGenerator) Box(c core.Centroid) Box {
	sn := float64(c.ScanNumber)
	tol := float64(g.ScanTolerance) + 0.1
	shift := g.Ppm * 1e-6
	return Box{
		Lo: [2]float64{sn - tol, c.Mz * (1 - shift)},
		Hi: [2]float64{sn + tol, c.Mz * (1 + shift)},
	}
}

// FwhmBoxGenerator boxes centroids in rt space: +-RtTolerance seconds and
// +-MzFactor times the peak FWHM at the centroid's m/z.
type FwhmBoxGenerator struct {
	Fwhm        func(mz float64) float64
	MzFactor    float64
	RtTolerance float64
}

func (g FwhmBoxGenerator) Box(c core.Centroid) Box {
	dmz := g.MzFactor * g.Fwhm(c.Mz)
	return Box{
		Lo: [2]float64{c.RetentionTime - g.RtTolerance, c.Mz - dmz},
		Hi: [2]float64{c.RetentionTime + g.RtTolerance, c.Mz + dmz},
	}
}

// IsotopeSpacing is the mean m/z distance between consecutive peptide
// isotopologues at charge 1, as used by MaxQuant.
const IsotopeSpacing = 1.00286864

// isotopeSpread is the spread of isotopologue mass differences in Da.
const isotopeSpread = 0.0109135

// XicBoxGenerator boxes the expected position of the next isotopologue of a
// Xic at a given charge: the rt window is the Xic's rt sigma clamped to
// RtRange, the m/z window is centered at mz+Shift/charge with a width
// derived from the Xic's m/z sigma and the isotope spread, clamped to
// PpmRange.
type XicBoxGenerator struct {
	Shift    float64
	RtRange  [2]float64
	PpmRange [2]float64
	charge   int
}

// NewXicBoxGenerator returns a generator for the given non-zero charge.
func NewXicBoxGenerator(shift float64, rtRange, ppmRange [2]float64, charge int) (XicBoxGenerator, error) {
	if charge == 0 {
		return XicBoxGenerator{}, core.Precondition("fe.NewXicBoxGenerator", "charge must not be zero")
	}
	if rtRange[0] > rtRange[1] || ppmRange[0] > ppmRange[1] {
		return XicBoxGenerator{}, core.Precondition("fe.NewXicBoxGenerator",
			"empty tolerance range rt=%v ppm=%v", rtRange, ppmRange)
	}
	if charge < 0 {
		charge = -charge
	}
	return XicBoxGenerator{Shift: shift, RtRange: rtRange, PpmRange: ppmRange, charge: charge}, nil
}

// XicBoxGenerators returns one generator per charge.
func XicBoxGenerators(charges []int, shift float64, rtRange, ppmRange [2]float64) ([]XicBoxGenerator, error) {
	gens := make([]XicBoxGenerator, 0, len(charges))
	for _, z := range charges {
		g, err := NewXicBoxGenerator(shift, rtRange, ppmRange, z)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return gens, nil
}

// Charge returns the absolute charge the generator searches for.
func (g XicBoxGenerator) Charge() int { return g.charge }

func (g XicBoxGenerator) Box(x Xic) Box {
	rt := x.RetentionTime()
	rtTol := clamp(x.RetentionTimeSigma(), g.RtRange[0], g.RtRange[1])

	z := float64(g.charge)
	mz := x.Mz() + g.Shift/z
	spread := isotopeSpread / z
	est := math.Sqrt(x.MzSigma()*x.MzSigma() + spread*spread)
	mzTol := clamp(est, mz*g.PpmRange[0]*1e-6, mz*g.PpmRange[1]*1e-6)

	return Box{
		Lo: [2]float64{rt - rtTol, mz - mzTol},
		Hi: [2]float64{rt + rtTol, mz + mzTol},
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
