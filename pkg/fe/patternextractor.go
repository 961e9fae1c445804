package fe

import (
	"sort"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// PatternExtractor groups correlated XICs at isotopologue distances into
// charge-assigned isotope patterns.
type PatternExtractor struct {
	correlator  Correlator
	splitter    PatternSplitter
	quickCharge QuickCharge
	logger      *zap.Logger
}

// PatternOption configures a PatternExtractor.
type PatternOption func(*PatternExtractor)

// WithCorrelator replaces the default UncenteredCorrelation.
func WithCorrelator(c Correlator) PatternOption {
	return func(e *PatternExtractor) { e.correlator = c }
}

// WithPatternSplitter replaces the default NopSplitter.
func WithPatternSplitter(s PatternSplitter) PatternOption {
	return func(e *PatternExtractor) { e.splitter = s }
}

// WithQuickCharge configures the charge detection.
func WithQuickCharge(q QuickCharge) PatternOption {
	return func(e *PatternExtractor) { e.quickCharge = q }
}

// WithPatternLogger sets the logger.
func WithPatternLogger(l *zap.Logger) PatternOption {
	return func(e *PatternExtractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewPatternExtractor creates a PatternExtractor.
func NewPatternExtractor(opts ...PatternOption) *PatternExtractor {
	e := &PatternExtractor{
		correlator: UncenteredCorrelation{},
		splitter:   NopSplitter{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type link struct{ a, b int }

func newLink(i, j int) link {
	if i > j {
		i, j = j, i
	}
	return link{i, j}
}

// Extract returns the isotope patterns with at least minSize members. Two
// XICs are linked when the centre of one lies in a generator box of the
// other and their correlation reaches minCorr; each link remembers the
// charges of the generators that produced it. A pattern's charges are the
// QuickCharge charges of its m/z values that are also carried by links
// between m/z-adjacent members. Patterns without a charge are dropped, so
// single-XIC patterns never survive.
func (e *PatternExtractor) Extract(xics []Xic, gens []XicBoxGenerator, minCorr float64, minSize int) ([]IsotopePattern, error) {
	const op = "fe.PatternExtractor.Extract"
	if len(gens) == 0 {
		return nil, core.Precondition(op, "require at least one box generator")
	}
	if minCorr < 0 || minCorr > 1 {
		return nil, core.Precondition(op, "minimal correlation %g out of [0, 1]", minCorr)
	}
	if minSize < 1 {
		return nil, core.Precondition(op, "minimal pattern size %d must be positive", minSize)
	}
	if len(xics) == 0 {
		return nil, nil
	}

	centres := make([]Box, len(xics))
	for i, x := range xics {
		centres[i] = pointBox(x.RetentionTime(), x.Mz())
	}
	idx := newBoxIndex(centres)

	corr := make(map[link]float64)
	charges := make(map[link][]int)
	uf := newUnionFind(len(xics))
	for i, x := range xics {
		for _, g := range gens {
			q := g.Box(x)
			if !finiteBox(q) {
				continue
			}
			idx.query(q, func(j int) {
				if j == i {
					return
				}
				l := newLink(i, j)
				c, ok := corr[l]
				if !ok {
					c = e.correlator.Correlate(xics[l.a], xics[l.b])
					corr[l] = c
				}
				if c < minCorr {
					return
				}
				charges[l] = appendUnique(charges[l], g.Charge())
				uf.union(i, j)
			})
		}
	}

	components := uf.components()
	e.logger.Debug("primary isotope patterns", zap.Int("xics", len(xics)), zap.Int("components", len(components)), zap.Int("links", len(charges)))

	var patterns []IsotopePattern
	for _, comp := range components {
		if len(comp) < minSize {
			continue
		}
		sort.SliceStable(comp, func(a, b int) bool { return LessByMz(xics[comp[a]], xics[comp[b]]) })
		members := make([]Xic, len(comp))
		for k, i := range comp {
			members[k] = xics[i]
		}

		for _, part := range e.splitter.Split(members) {
			if len(part) < minSize || len(part) == 0 {
				continue
			}
			ids := make([]int, len(part))
			for k, p := range part {
				ids[k] = comp[p]
			}

			zs := e.charges(xics, ids, charges)
			if len(zs) == 0 {
				e.logger.Debug("rejecting pattern without charge", zap.Float64("mz", xics[ids[0]].Mz()), zap.Int("size", len(ids)))
				continue
			}
			sel := make([]Xic, len(ids))
			for k, i := range ids {
				sel[k] = xics[i]
			}
			patterns = append(patterns, NewIsotopePattern(sel, zs))
		}
	}

	e.logger.Debug("extracted isotope patterns", zap.Int("patterns", len(patterns)))
	return patterns, nil
}

// charges intersects the QuickCharge charges of the members (ids in m/z
// order) with the link evidence.
func (e *PatternExtractor) charges(xics []Xic, ids []int, links map[link][]int) []int {
	var evidence []int
	for k := 0; k+1 < len(ids); k++ {
		for _, z := range links[newLink(ids[k], ids[k+1])] {
			evidence = appendUnique(evidence, z)
		}
	}
	if len(evidence) == 0 {
		for a := 0; a < len(ids); a++ {
			for b := a + 1; b < len(ids); b++ {
				for _, z := range links[newLink(ids[a], ids[b])] {
					evidence = appendUnique(evidence, z)
				}
			}
		}
	}

	mzs := make([]float64, len(ids))
	for k, i := range ids {
		mzs[k] = xics[i].Mz()
	}
	var out []int
	for _, z := range e.quickCharge.ChargeSet(mzs) {
		if containsInt(evidence, z) {
			out = append(out, z)
		}
	}
	return out
}

func appendUnique(s []int, v int) []int {
	if containsInt(s, v) {
		return s
	}
	return append(s, v)
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
