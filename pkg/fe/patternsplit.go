package fe

import "sort"

// PatternSplitter cuts a candidate pattern into parts.
type PatternSplitter interface {
	// Split takes members sorted by m/z and returns groups of indices into
	// xics, each in ascending order.
	Split(xics []Xic) [][]int
}

// NopSplitter keeps patterns as they are.
type NopSplitter struct{}

func (NopSplitter) Split(xics []Xic) [][]int {
	return [][]int{span(0, len(xics))}
}

// RtGapSplitter cuts a pattern where the retention times of rt-adjacent
// members differ by more than MaxGap.
type RtGapSplitter struct {
	MaxGap float64
}

func (s RtGapSplitter) Split(xics []Xic) [][]int {
	if len(xics) < 2 {
		return [][]int{span(0, len(xics))}
	}
	byRt := span(0, len(xics))
	sort.SliceStable(byRt, func(i, j int) bool { return LessByRetentionTime(xics[byRt[i]], xics[byRt[j]]) })

	var parts [][]int
	start := 0
	for i := 1; i <= len(byRt); i++ {
		if i == len(byRt) || xics[byRt[i]].RetentionTime()-xics[byRt[i-1]].RetentionTime() > s.MaxGap {
			part := append([]int(nil), byRt[start:i]...)
			sort.Ints(part)
			parts = append(parts, part)
			start = i
		}
	}
	return parts
}

// MzGapSplitter cuts a pattern between m/z-adjacent members further apart
// than Threshold at the heavier member's m/z.
type MzGapSplitter struct {
	Threshold func(mz float64) float64
}

func (s MzGapSplitter) Split(xics []Xic) [][]int {
	var parts [][]int
	start := 0
	for j := 1; j < len(xics); j++ {
		if xics[j].Mz()-xics[j-1].Mz() > s.Threshold(xics[j].Mz()) {
			parts = append(parts, span(start, j))
			start = j
		}
	}
	return append(parts, span(start, len(xics)))
}

// IsotopeGapThreshold allows one isotopologue step at the lowest charge of
// interest, plus tolerance.
func IsotopeGapThreshold(minCharge int, tolerance float64) func(float64) float64 {
	if minCharge < 1 {
		minCharge = 1
	}
	return func(float64) float64 {
		return IsotopeSpacing/float64(minCharge) + tolerance
	}
}

func span(from, to int) []int {
	s := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		s = append(s, i)
	}
	return s
}
