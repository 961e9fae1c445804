package fe

import (
	"go.uber.org/zap"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// DefaultMinDepth is the relative valley depth required to split a trace,
// following the MaxQuant criterion.
const DefaultMinDepth = 0.76

// Range is a half-open index range [First, Last).
type Range struct {
	First, Last int
}

// Len returns the number of indices in r.
func (r Range) Len() int { return r.Last - r.First }

// XicSplitter cuts a trace into sub-traces.
type XicSplitter interface {
	// Split returns ranges into raw, decided on the parallel smoothed trace.
	Split(raw, smoothed []core.Centroid) []Range
}

// LocalMinSplitter splits a trace at local minima that are deeper than
// MinDepth times the lower of the two enclosing maxima. Each minimum starts
// the fragment to its right.
type LocalMinSplitter struct {
	MinDepth float64
	Logger   *zap.Logger
}

// NewLocalMinSplitter returns a LocalMinSplitter with the given depth.
func NewLocalMinSplitter(minDepth float64) LocalMinSplitter {
	return LocalMinSplitter{MinDepth: minDepth}
}

func (s LocalMinSplitter) Split(raw, smoothed []core.Centroid) []Range {
	n := len(smoothed)
	if n == 0 {
		return nil
	}
	if n < 4 {
		return []Range{{0, n}}
	}
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ab := func(i int) float64 { return smoothed[i].Abundance }

	const none = -1
	currentMin, previousMax := none, none
	lastMin := 0
	if ab(1) <= ab(0) {
		previousMax = 0
	}

	var ranges []Range
	for i := 1; i+1 < n-1; i++ {
		l, c, r := ab(i-1), ab(i), ab(i+1)
		if l >= c && c < r {
			currentMin = i
		}
		if !(l < c && c >= r) {
			continue
		}
		if previousMax == none {
			previousMax = i
			continue
		}
		nextMax := i
		if currentMin != none && ab(currentMin) < s.MinDepth*min(ab(previousMax), ab(nextMax)) {
			if currentMin-lastMin > 1 {
				log.Debug("splitting trace",
					zap.Float64("rt", smoothed[currentMin].RetentionTime),
					zap.Float64("valley", ab(currentMin)))
				ranges = append(ranges, Range{lastMin, currentMin})
				lastMin = currentMin
			}
			previousMax = nextMax
		} else if ab(nextMax) > ab(previousMax) {
			previousMax = nextMax
		}
	}

	ranges = append(ranges, Range{lastMin, len(raw)})
	return ranges
}

// Split cuts x at deep local minima of its smoothed trace and returns the
// recalculated fragments.
func (x Xic) Split(minDepth float64) []Xic {
	x = x.Clone()
	sortByScan(x.Centroids)
	x.MergeDuplicates()

	var out []Xic
	for _, r := range NewLocalMinSplitter(minDepth).Split(x.Centroids, RunningMeanSmoother{}.Smooth(x.Centroids)) {
		out = append(out, NewXic(x.Centroids[r.First:r.Last]))
	}
	return out
}
