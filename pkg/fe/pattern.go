package fe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// IsotopePattern is a group of co-eluting XICs, sorted by m/z, with the set
// of charges consistent with their spacing.
type IsotopePattern struct {
	Xics    []Xic
	Charges []int
}

// NewIsotopePattern sorts a copy of xics by m/z.
func NewIsotopePattern(xics []Xic, charges []int) IsotopePattern {
	p := IsotopePattern{
		Xics:    append([]Xic(nil), xics...),
		Charges: normalizeCharges(charges),
	}
	sort.SliceStable(p.Xics, func(i, j int) bool { return LessByMz(p.Xics[i], p.Xics[j]) })
	return p
}

// Len returns the number of member XICs.
func (p IsotopePattern) Len() int { return len(p.Xics) }

// Abundance is the sum of the member abundances.
func (p IsotopePattern) Abundance() float64 {
	var ab float64
	for _, x := range p.Xics {
		ab += x.Abundance()
	}
	return ab
}

// Mzs returns the member m/z values in pattern order.
func (p IsotopePattern) Mzs() []float64 {
	mzs := make([]float64, len(p.Xics))
	for i, x := range p.Xics {
		mzs[i] = x.Mz()
	}
	return mzs
}

// RetentionTime is the abundance-weighted rt of the members.
func (p IsotopePattern) RetentionTime() float64 {
	var w, wrt float64
	for _, x := range p.Xics {
		w += x.Abundance()
		wrt += x.Abundance() * x.RetentionTime()
	}
	if w == 0 {
		return 0
	}
	return wrt / w
}

// HasCharge reports whether z is a candidate charge.
func (p IsotopePattern) HasCharge(z int) bool {
	i := sort.SearchInts(p.Charges, z)
	return i < len(p.Charges) && p.Charges[i] == z
}

// AsSpectrum returns the members as (m/z, abundance) pairs sorted by m/z.
// The precursor charge is set only when the charge is unambiguous.
func (p IsotopePattern) AsSpectrum() core.Spectrum {
	var s core.Spectrum
	for _, x := range p.Xics {
		s.Elements = append(s.Elements, core.SpectrumElement{Mz: x.Mz(), Abundance: x.Abundance()})
	}
	s.Sort()
	if len(p.Charges) == 1 {
		s.PrecursorCharge = p.Charges[0]
	}
	s.RetentionTime = p.RetentionTime()
	return s
}

func (p IsotopePattern) String() string {
	cs := make([]string, len(p.Charges))
	for i, z := range p.Charges {
		cs[i] = fmt.Sprint(z)
	}
	return fmt.Sprintf("%d\t%s\t%g", p.Len(), strings.Join(cs, ","), p.Abundance())
}

// normalizeCharges returns the sorted distinct charges.
func normalizeCharges(cs []int) []int {
	if len(cs) == 0 {
		return nil
	}
	out := append([]int(nil), cs...)
	sort.Ints(out)
	k := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[k-1] {
			out[k] = out[i]
			k++
		}
	}
	return out[:k]
}
