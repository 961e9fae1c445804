package mercury

import (
	"math"

	"github.com/ChrisMcGann/mstk/pkg/chem"
)

// MonoisotopicMass sums count times the lightest isotope mass of every element.
func MonoisotopicMass(s chem.Stoichiometry) (float64, error) {
	return s.MonoisotopicMass()
}

// AverageMass sums count times the abundance-weighted mass of every element.
func AverageMass(s chem.Stoichiometry) (float64, error) {
	return s.AverageMass()
}

// Mz converts a neutral mass to m/z. Proton charges add one proton per
// charge; electron charges remove (or add) electrons.
func Mz(mass float64, charge int, particle Particle) float64 {
	if charge == 0 {
		return mass
	}
	z := float64(charge)
	switch particle {
	case Proton:
		return (mass + z*chem.ProtonMass) / math.Abs(z)
	default:
		return (mass - z*ElectronMass) / math.Abs(z)
	}
}
