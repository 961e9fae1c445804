// Package pipeline runs feature extraction over centroid files: filtering,
// XIC extraction, isotope pattern extraction and persistence.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/mstk/pkg/config"
	"github.com/ChrisMcGann/mstk/pkg/core"
	"github.com/ChrisMcGann/mstk/pkg/fe"
	"github.com/ChrisMcGann/mstk/pkg/psf"
	"github.com/ChrisMcGann/mstk/pkg/reader/centroid"
)

// Result is the extraction output of one input.
type Result struct {
	SourceFile   string
	NumCentroids int
	Xics         []fe.Xic
	Patterns     []fe.IsotopePattern
}

// Sink persists results. Implementations must be safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, r Result) error
	Close() error
}

// Pipeline holds the components built from a configuration.
type Pipeline struct {
	cfg      *config.Config
	logger   *zap.Logger
	fwhm     *psf.Fwhm
	boxes    fe.CentroidBoxGenerator
	xics     *fe.XicExtractor
	patterns *fe.PatternExtractor
	gens     []fe.XicBoxGenerator
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithFwhm supplies a learned peak width for fwhm boxes. Without it the
// configured model is used unfitted, which yields the fallback width.
func WithFwhm(f *psf.Fwhm) Option {
	return func(p *Pipeline) { p.fwhm = f }
}

// New validates cfg and builds the pipeline components.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	p := &Pipeline{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	switch cfg.Xic.Boxes {
	case "scan":
		p.boxes = fe.ScanBoxGenerator{ScanTolerance: cfg.Xic.ScanTolerance, Ppm: cfg.Xic.Ppm}
	case "fwhm":
		if p.fwhm == nil {
			model, err := psf.NewModel(cfg.Fwhm.Model)
			if err != nil {
				return nil, err
			}
			p.fwhm = psf.NewFwhm(model, psf.WithLogger(p.logger), psf.WithMinHeight(cfg.Fwhm.MinHeight))
		}
		p.boxes = fe.FwhmBoxGenerator{
			Fwhm:        p.fwhm.Func(cfg.Fwhm.Fallback),
			MzFactor:    cfg.Xic.MzFactor,
			RtTolerance: cfg.Xic.RtTolerance,
		}
	}

	var disambiguator fe.Disambiguator = fe.WeightedMeanDisambiguator{}
	if cfg.Xic.Disambiguator == "nearest" {
		disambiguator = fe.NearestDisambiguator{}
	}
	p.xics = fe.NewXicExtractor(
		fe.WithDisambiguator(disambiguator),
		fe.WithXicLogger(p.logger.Named("xic")),
	)

	gens, err := fe.XicBoxGenerators(cfg.Pattern.Charges, cfg.Pattern.Shift, cfg.Pattern.RtRange, cfg.Pattern.PpmRange)
	if err != nil {
		return nil, err
	}
	p.gens = gens

	p.patterns = fe.NewPatternExtractor(
		fe.WithPatternSplitter(patternSplitter(cfg.Pattern)),
		fe.WithQuickCharge(fe.QuickCharge{Tolerance: cfg.Pattern.ChargeTolerance, MaxCharge: cfg.Pattern.MaxCharge}),
		fe.WithPatternLogger(p.logger.Named("pattern")),
	)
	return p, nil
}

func patternSplitter(c config.PatternConfig) fe.PatternSplitter {
	switch c.Splitter {
	case "rt-gap":
		return fe.RtGapSplitter{MaxGap: c.MaxRtGap}
	case "mz-gap":
		minCharge := 0
		for _, z := range c.Charges {
			if z < 0 {
				z = -z
			}
			if minCharge == 0 || z < minCharge {
				minCharge = z
			}
		}
		return fe.MzGapSplitter{Threshold: fe.IsotopeGapThreshold(minCharge, c.MzGapSlack)}
	default:
		return fe.NopSplitter{}
	}
}

// Process filters the centroids of one input and extracts its XICs and
// isotope patterns. The input is not modified.
func (p *Pipeline) Process(ctx context.Context, source string, cs []core.Centroid) (Result, error) {
	res := Result{SourceFile: source, NumCentroids: len(cs)}
	start := time.Now()

	kept, err := p.cfg.Filter.Apply(cs)
	if err != nil {
		return res, fmt.Errorf("%s: %w", source, err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	xics, err := p.xics.Extract(kept, p.boxes, p.cfg.Xic.MinLength, p.cfg.Xic.MinDepth)
	if err != nil {
		return res, fmt.Errorf("%s: %w", source, err)
	}
	res.Xics = xics
	if err := ctx.Err(); err != nil {
		return res, err
	}

	patterns, err := p.patterns.Extract(xics, p.gens, p.cfg.Pattern.MinCorrelation, p.cfg.Pattern.MinSize)
	if err != nil {
		return res, fmt.Errorf("%s: %w", source, err)
	}
	res.Patterns = patterns

	p.logger.Info("processed",
		zap.String("source", source),
		zap.Int("centroids", len(cs)),
		zap.Int("filtered", len(kept)),
		zap.Int("xics", len(xics)),
		zap.Int("patterns", len(patterns)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// ProcessFile reads a centroid table and processes it.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{SourceFile: path}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	cs, err := centroid.NewReader(f).ReadAll()
	if err != nil {
		return Result{SourceFile: path}, fmt.Errorf("%s: %w", path, err)
	}
	return p.Process(ctx, filepath.Base(path), cs)
}

// RunFiles processes paths with at most cfg.Threads files in flight and
// writes every result to sink. The first error cancels the remaining work.
func (p *Pipeline) RunFiles(ctx context.Context, paths []string, sink Sink) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Threads)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.ProcessFile(gctx, path)
			if err != nil {
				return err
			}
			if err := sink.Write(gctx, res); err != nil {
				return fmt.Errorf("failed to write results of %s: %w", path, err)
			}
			return nil
		})
	}
	return g.Wait()
}
