package fe

import (
	"go.uber.org/zap"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// XicExtractor assembles XICs from centroids: box intersection, connected
// components, disambiguation, smoothing and splitting.
type XicExtractor struct {
	disambiguator Disambiguator
	smoother      Smoother
	splitter      XicSplitter
	logger        *zap.Logger
}

// XicOption configures an XicExtractor.
type XicOption func(*XicExtractor)

// WithDisambiguator replaces the default WeightedMeanDisambiguator.
func WithDisambiguator(d Disambiguator) XicOption {
	return func(e *XicExtractor) { e.disambiguator = d }
}

// WithSmoother replaces the default RunningMeanSmoother.
func WithSmoother(s Smoother) XicOption {
	return func(e *XicExtractor) { e.smoother = s }
}

// WithSplitter replaces the LocalMinSplitter built from the minDepth passed
// to Extract.
func WithSplitter(s XicSplitter) XicOption {
	return func(e *XicExtractor) { e.splitter = s }
}

// WithXicLogger sets the logger.
func WithXicLogger(l *zap.Logger) XicOption {
	return func(e *XicExtractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewXicExtractor creates an XicExtractor.
func NewXicExtractor(opts ...XicOption) *XicExtractor {
	e := &XicExtractor{
		disambiguator: WeightedMeanDisambiguator{},
		smoother:      RunningMeanSmoother{},
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the XICs spanning at least minLength scans. Centroids may
// come in any order; the input is not modified. The order of the returned
// XICs is unspecified.
func (e *XicExtractor) Extract(centroids []core.Centroid, gen CentroidBoxGenerator, minLength int, minDepth float64) ([]Xic, error) {
	const op = "fe.XicExtractor.Extract"
	if gen == nil {
		return nil, core.Precondition(op, "no box generator")
	}
	if minDepth < 0 || minDepth > 1 {
		return nil, core.Precondition(op, "mindepth %g out of [0, 1]", minDepth)
	}
	if len(centroids) == 0 {
		return nil, nil
	}

	boxes := make([]Box, 0, len(centroids))
	kept := make([]core.Centroid, 0, len(centroids))
	for _, c := range centroids {
		b := gen.Box(c)
		if !finiteBox(b) {
			e.logger.Debug("skipping centroid with invalid box", zap.Float64("mz", c.Mz), zap.Uint32("scan", c.ScanNumber))
			continue
		}
		boxes = append(boxes, b)
		kept = append(kept, c)
	}

	components := connectedComponents(intersectSelf(boxes))
	e.logger.Debug("primary XICs", zap.Int("centroids", len(kept)), zap.Int("components", len(components)))

	splitter := e.splitter
	if splitter == nil {
		splitter = LocalMinSplitter{MinDepth: minDepth, Logger: e.logger}
	}

	var xics []Xic
	for _, comp := range components {
		cs := make([]core.Centroid, len(comp))
		for k, i := range comp {
			cs[k] = kept[i]
		}
		sortByScan(cs)
		cs = e.disambiguator.Disambiguate(cs)
		if len(cs) < minLength {
			continue
		}

		for _, r := range splitter.Split(cs, e.smoother.Smooth(cs)) {
			if r.Len() <= 1 || r.Len() < minLength {
				continue
			}
			xics = append(xics, NewXic(cs[r.First:r.Last]))
		}
	}

	e.logger.Debug("extracted XICs", zap.Int("xics", len(xics)))
	return xics, nil
}
