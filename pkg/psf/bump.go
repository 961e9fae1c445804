// Package psf measures spectral peak shapes and learns peak-parameter models
// such as the full width at half maximum as a function of m/z.
package psf

import (
	"github.com/ChrisMcGann/mstk/pkg/core"
)

// Extractor reads one coordinate (m/z or abundance) of a sequence element.
type Extractor[T any] func(T) float64

// FindBump returns the inclusive index range [first, last] of the first
// bump in seq: a strictly rising run, a top, then a strictly falling run.
// The bump ends where the sequence rises again or levels off. An equal pair
// before the top restarts the search. If no bump exists, both indices are
// len(seq).
func FindBump[T any](seq []T, less func(a, b T) bool) (first, last int) {
	n := len(seq)
	if n < 2 {
		return n, n
	}

	leftEdge := 0
	increasing := false
	foundTop := false

	cur := 0
	for ; cur+1 < n; cur++ {
		next := cur + 1
		switch {
		case less(seq[cur], seq[next]):
			if foundTop {
				return leftEdge, cur
			}
			if !increasing {
				increasing = true
				leftEdge = cur
			}
		case less(seq[next], seq[cur]):
			if increasing {
				foundTop = true
			}
		default:
			if foundTop {
				return leftEdge, cur
			}
			leftEdge = next
			increasing = false
		}
	}

	if foundTop {
		return leftEdge, cur
	}
	return n, n
}

// LessBy orders elements by the extracted value.
func LessBy[T any](get Extractor[T]) func(a, b T) bool {
	return func(a, b T) bool { return get(a) < get(b) }
}

// maxIndex returns the index of the first maximal element.
func maxIndex[T any](peak []T, ab Extractor[T]) int {
	m := 0
	for i := 1; i < len(peak); i++ {
		if ab(peak[i]) > ab(peak[m]) {
			m = i
		}
	}
	return m
}

// minIndex returns the index of the first minimal element of peak[from:to].
func minIndex[T any](peak []T, ab Extractor[T], from, to int) int {
	m := from
	for i := from + 1; i < to; i++ {
		if ab(peak[i]) < ab(peak[m]) {
			m = i
		}
	}
	return m
}

// Height returns the maximal abundance of a non-empty peak.
func Height[T any](peak []T, ab Extractor[T]) (float64, error) {
	if len(peak) == 0 {
		return 0, core.Precondition("psf.Height", "empty peak")
	}
	return ab(peak[maxIndex(peak, ab)]), nil
}

// Lowness returns 1 - max(leftMin, rightMin)/max, where the flank minima are
// taken on either side of the maximum (maximum included). Singletons,
// equiabundant and all-zero peaks have lowness 0.
func Lowness[T any](peak []T, ab Extractor[T]) (float64, error) {
	if len(peak) == 0 {
		return 0, core.Precondition("psf.Lowness", "empty peak")
	}
	mx := maxIndex(peak, ab)
	top := ab(peak[mx])
	if top == 0 {
		return 0, nil
	}
	rightMin := ab(peak[minIndex(peak, ab, mx, len(peak))])
	leftMin := ab(peak[minIndex(peak, ab, 0, mx+1)])
	higher := leftMin
	if rightMin > higher {
		higher = rightMin
	}
	return 1 - higher/top, nil
}

// FullWidthAtFractionOfMaximum returns the m/z distance between the two
// linearly interpolated crossings of fraction*max on either flank of the
// peak maximum. It fails with Starvation when a flank never drops below the
// target.
func FullWidthAtFractionOfMaximum[T any](peak []T, mz, ab Extractor[T], fraction float64) (float64, error) {
	const op = "psf.FullWidthAtFractionOfMaximum"

	if fraction < 0 || fraction > 1 {
		return 0, core.Precondition(op, "fraction %g out of [0, 1]", fraction)
	}
	if len(peak) == 0 {
		return 0, core.Precondition(op, "empty peak")
	}

	mx := maxIndex(peak, ab)
	target := ab(peak[mx]) * fraction
	end := len(peak) - 1

	aboveLeft := mx
	for i := 0; i <= mx; i++ {
		if ab(peak[i]) > target {
			aboveLeft = i
			break
		}
	}
	belowLeft := aboveLeft - 1
	if aboveLeft == 0 {
		if target < ab(peak[0]) {
			return 0, core.Starvation(op, "no element left of the maximum at %g below target abundance %g", mz(peak[mx]), target)
		}
		belowLeft = aboveLeft
	}

	aboveRight := mx
	for i := end; i >= mx; i-- {
		if ab(peak[i]) > target {
			aboveRight = i
			break
		}
	}
	belowRight := aboveRight + 1
	if aboveRight == end {
		if target < ab(peak[end]) {
			return 0, core.Starvation(op, "no element right of the maximum at %g below target abundance %g", mz(peak[mx]), target)
		}
		belowRight = aboveRight
	}

	left, err := interpolate(peak[belowLeft], peak[aboveLeft], mz, ab, target)
	if err != nil {
		return 0, err
	}
	right, err := interpolate(peak[belowRight], peak[aboveRight], mz, ab, target)
	if err != nil {
		return 0, err
	}
	return right - left, nil
}

// interpolate returns the m/z at which the line through a and b reaches target.
func interpolate[T any](a, b T, mz, ab Extractor[T], target float64) (float64, error) {
	if mz(a) == mz(b) {
		return mz(b), nil
	}
	if ab(a) == ab(b) {
		return 0, core.Invariant("psf.interpolate",
			"cannot interpolate between equal abundances %g at m/z %g and %g", ab(a), mz(a), mz(b))
	}
	slope := (ab(b) - ab(a)) / (mz(b) - mz(a))
	shift := ab(a) - slope*mz(a)
	return (target - shift) / slope, nil
}

// Width is a measured (m/z of maximum, full width) pair.
type Width struct {
	Mz    float64
	Width float64
}

// MeasureFullWidths walks the bumps of a m/z-sorted sequence and returns the
// full width at fraction of maximum of every pure bump, i.e. one with
// lowness >= 1-fraction and height >= minHeight, in ascending m/z order.
// Consecutive bumps may share their boundary element.
func MeasureFullWidths[T any](seq []T, mz, ab Extractor[T], fraction, minHeight float64) ([]Width, error) {
	if fraction < 0 || fraction > 1 {
		return nil, core.Precondition("psf.MeasureFullWidths", "fraction %g out of [0, 1]", fraction)
	}

	var widths []Width
	requiredLowness := 1 - fraction
	less := LessBy(ab)

	start := 0
	for start < len(seq) {
		first, last := FindBump(seq[start:], less)
		if first == len(seq)-start {
			break
		}
		bump := seq[start+first : start+last+1]

		height, err := Height(bump, ab)
		if err != nil {
			return nil, err
		}
		lowness, err := Lowness(bump, ab)
		if err != nil {
			return nil, err
		}
		if lowness >= requiredLowness && height >= minHeight {
			w, err := FullWidthAtFractionOfMaximum(bump, mz, ab, fraction)
			if err != nil {
				return nil, err
			}
			widths = append(widths, Width{Mz: mz(bump[maxIndex(bump, ab)]), Width: w})
		}

		start += last
	}
	return widths, nil
}
