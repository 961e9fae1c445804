package chem

// MonoisotopicMass sums count times the lightest isotope mass of each element.
func (s Stoichiometry) MonoisotopicMass() (float64, error) {
	return s.sumMass(Element.MonoisotopicMass)
}

// AverageMass sums count times the abundance-weighted isotope mass of each
// element.
func (s Stoichiometry) AverageMass() (float64, error) {
	return s.sumMass(Element.AverageMass)
}

func (s Stoichiometry) sumMass(mass func(Element) float64) (float64, error) {
	total := 0.0
	for _, id := range s.Elements() {
		e, err := GetElement(id)
		if err != nil {
			return 0, err
		}
		total += s.counts[id] * mass(e)
	}
	return total, nil
}
