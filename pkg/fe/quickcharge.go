package fe

import (
	"math"
	"sort"
)

// quickChargeWindow is the m/z window searched to the right of each peak.
const quickChargeWindow = 1.1

// QuickCharge derives plausible charge states from the m/z spacing of a
// sorted peak list (after M. Hoopman, MacCoss lab). Cumulative distances
// within a 1.1 Th window to the right of every peak are inverted and
// rounded to a charge.
type QuickCharge struct {
	// Tolerance, if positive, accepts a charge q for distance d only when
	// |q*d - 1| < Tolerance. Off by default because 0.01 already rejects
	// the distances that yield charges 3, 6 and 13 on typical spacings.
	Tolerance float64
	// MaxCharge, if positive, bounds the reported charges.
	MaxCharge int
}

// Charges returns the distinct charges in discovery order.
func (q QuickCharge) Charges(mzs []float64) []int {
	n := len(mzs)
	if n < 2 {
		return nil
	}

	seen := make(map[int]bool)
	var out []int
	for i := 0; i+1 < n; i++ {
		delta := 0.0
		old := 0
		for j := i; j+1 < n; j++ {
			delta += mzs[j+1] - mzs[j]
			if delta > quickChargeWindow {
				break
			}
			if delta <= 0 {
				continue
			}
			z := int(math.Floor(1/delta + 0.5))
			if z == old {
				continue
			}
			old = z
			if !q.accept(z, delta) || seen[z] {
				continue
			}
			seen[z] = true
			out = append(out, z)
		}
	}
	return out
}

// ChargeSet returns the distinct charges in ascending order.
func (q QuickCharge) ChargeSet(mzs []float64) []int {
	cs := q.Charges(mzs)
	sort.Ints(cs)
	return cs
}

func (q QuickCharge) accept(z int, delta float64) bool {
	if z < 1 {
		return false
	}
	if q.MaxCharge > 0 && z > q.MaxCharge {
		return false
	}
	if q.Tolerance > 0 && math.Abs(float64(z)*delta-1) >= q.Tolerance {
		return false
	}
	return true
}
