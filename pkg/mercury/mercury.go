// Package mercury computes theoretical isotope distributions with the
// Mercury7 sparse binary-convolution algorithm.
package mercury

import (
	"fmt"
	"math"

	"github.com/ChrisMcGann/mstk/pkg/chem"
	"github.com/ChrisMcGann/mstk/pkg/core"
)

// Particle is the charge carrier.
type Particle int

const (
	// Electron charges leave the composition unchanged.
	Electron Particle = iota
	// Proton charges add (or remove) one hydrogen per charge.
	Proton
)

func (p Particle) String() string {
	switch p {
	case Electron:
		return "electron"
	case Proton:
		return "proton"
	}
	return fmt.Sprintf("particle(%d)", int(p))
}

// ParseParticle accepts "electron" or "proton".
func ParseParticle(s string) (Particle, error) {
	switch s {
	case "electron", "e":
		return Electron, nil
	case "proton", "p", "H+":
		return Proton, nil
	}
	return 0, core.Precondition("mercury.ParseParticle", "unknown particle %q", s)
}

const (
	// ElectronMass in Da.
	ElectronMass = 0.00054857990946
	// DefaultLimit is the default pruning threshold.
	DefaultLimit = 1e-26
)

// Mercury returns the theoretical isotope distribution of s at the given
// charge, sorted by ascending m/z. Entries with abundance <= limit are pruned
// from the envelope flanks after every convolution; a zero limit disables
// pruning.
func Mercury(s chem.Stoichiometry, charge int, particle Particle, limit float64) (core.Spectrum, error) {
	const op = "mercury.Mercury"

	if limit < 0 || math.IsNaN(limit) {
		return core.Spectrum{}, core.Precondition(op, "pruning limit must be non-negative, got %g", limit)
	}
	if !s.NonNegative() {
		return core.Spectrum{}, core.Precondition(op, "stoichiometry %s has negative counts", s)
	}
	if s.IsEmpty() {
		return core.Spectrum{}, nil
	}

	if charge != 0 && particle == Proton {
		adjusted, err := protonate(s, charge)
		if err != nil {
			return core.Spectrum{}, err
		}
		s = adjusted
	}

	d, err := isotopeDistribution(s, limit)
	if err != nil {
		return core.Spectrum{}, err
	}

	if charge != 0 {
		z := math.Abs(float64(charge))
		for i := range d {
			d[i].Mz = (d[i].Mz - float64(charge)*ElectronMass) / z
		}
	}
	return core.Spectrum{Elements: []core.SpectrumElement(d), PrecursorCharge: charge}, nil
}

// protonate adds |charge| hydrogens for positive charges and removes them
// for negative charges.
func protonate(s chem.Stoichiometry, charge int) (chem.Stoichiometry, error) {
	const op = "mercury.protonate"

	h, err := chem.ElementBySymbol("H")
	if err != nil {
		return chem.Stoichiometry{}, err
	}
	r := s.Clone()
	n := math.Abs(float64(charge))
	if charge > 0 {
		r.Add(h.ID, n)
		return r, nil
	}
	have := r.Get(h.ID)
	if have == 0 {
		return chem.Stoichiometry{}, core.Invariant(op, "requested deprotonation of %s but no hydrogens present", s)
	}
	if have < n {
		return chem.Stoichiometry{}, core.Invariant(op,
			"requested deprotonation by %d of %s but number of hydrogens is insufficient", -charge, s)
	}
	r.Add(h.ID, -n)
	return r, nil
}

// isotopeDistribution splits s into integer and fractional contributions,
// convolves each and combines them.
func isotopeDistribution(s chem.Stoichiometry, limit float64) (distribution, error) {
	var intPart, fracPart distribution
	hasInt, hasFrac := false, false

	for _, id := range s.Elements() {
		e, err := chem.GetElement(id)
		if err != nil {
			return nil, err
		}
		if len(e.Isotopes) == 0 {
			return nil, core.Invariant("mercury.isotopeDistribution", "element %s has no isotopes", e)
		}
		count := s.Get(id)
		whole := math.Trunc(count)
		frac := count - whole

		if whole > 0 {
			esa := make(distribution, len(e.Isotopes))
			for i, iso := range e.Isotopes {
				esa[i] = core.SpectrumElement{Mz: iso.Mz, Abundance: iso.Abundance}
			}
			p := power(esa, uint64(whole), limit)
			if hasInt {
				intPart = prune(convolve(intPart, p), limit)
			} else {
				intPart = p
				hasInt = true
			}
		}
		if frac > 0 {
			f := fractionalDistribution(e.Isotopes, frac)
			if hasFrac {
				fracPart = convolve(f, fracPart)
			} else {
				fracPart = f
				hasFrac = true
			}
		}
	}

	switch {
	case hasInt && hasFrac:
		return prune(convolve(intPart, fracPart), limit), nil
	case hasInt:
		return intPart, nil
	default:
		return fracPart, nil
	}
}

// fractionalDistribution is the one-shot contribution of a fractional atom:
// the monoisotope keeps the probability mass not taken by heavier isotopes,
// which are placed relative to the scaled monoisotopic mass.
func fractionalDistribution(isotopes []chem.Isotope, f float64) distribution {
	d := make(distribution, len(isotopes))
	mono := isotopes[0]
	d[0] = core.SpectrumElement{Mz: mono.Mz * f, Abundance: (1 - f) + mono.Abundance*f}
	for u := 1; u < len(isotopes); u++ {
		d[u] = core.SpectrumElement{
			Mz:        isotopes[u].Mz - mono.Mz + d[0].Mz,
			Abundance: isotopes[u].Abundance * f,
		}
	}
	return d
}
