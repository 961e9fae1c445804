package psf

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// DefaultMinHeight is the minimal peak height considered when learning.
const DefaultMinHeight = 0

// Fwhm is a learnable full width at half maximum, as a function of m/z.
type Fwhm struct {
	model     Model
	fraction  float64
	minHeight float64
	logger    *zap.Logger
}

// FwhmOption configures a Fwhm.
type FwhmOption func(*Fwhm)

// WithLogger sets the logger used while learning.
func WithLogger(l *zap.Logger) FwhmOption {
	return func(f *Fwhm) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMinHeight ignores peaks lower than h when learning.
func WithMinHeight(h float64) FwhmOption {
	return func(f *Fwhm) { f.minHeight = h }
}

// NewFwhm wraps a peak-parameter model.
func NewFwhm(model Model, opts ...FwhmOption) *Fwhm {
	f := &Fwhm{
		model:     model,
		fraction:  0.5,
		minHeight: DefaultMinHeight,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// OrbitrapFwhm is a Fwhm over a LinearSqrtModel.
func OrbitrapFwhm(opts ...FwhmOption) *Fwhm { return NewFwhm(NewLinearSqrtModel(), opts...) }

// OrbitrapWithOriginFwhm is a Fwhm over a LinearSqrtOriginModel.
func OrbitrapWithOriginFwhm(opts ...FwhmOption) *Fwhm {
	return NewFwhm(NewLinearSqrtOriginModel(), opts...)
}

// TofFwhm is a Fwhm over a SqrtModel.
func TofFwhm(opts ...FwhmOption) *Fwhm { return NewFwhm(NewSqrtModel(), opts...) }

// FtIcrFwhm is a Fwhm over a QuadraticModel.
func FtIcrFwhm(opts ...FwhmOption) *Fwhm { return NewFwhm(NewQuadraticModel(), opts...) }

// ConstantFwhm returns a Fwhm that is width everywhere.
func ConstantFwhm(width float64, opts ...FwhmOption) *Fwhm {
	m := NewConstantModel()
	m.params[0] = width
	return NewFwhm(m, opts...)
}

// Model returns the wrapped model.
func (f *Fwhm) Model() Model { return f.model }

// At returns the FWHM at mz > 0.
func (f *Fwhm) At(mz float64) (float64, error) {
	if !(mz > 0) {
		return 0, core.Precondition("psf.Fwhm.At", "m/z %g must be positive", mz)
	}
	w := f.model.At(mz)
	if !(w > 0) || math.IsInf(w, 0) {
		return 0, core.Invariant("psf.Fwhm.At", "non-positive FWHM %g at m/z %g from %s", w, mz, Describe(f.model))
	}
	return w, nil
}

// Func adapts f to a plain function, falling back to fallback wherever the
// model is undefined.
func (f *Fwhm) Func(fallback float64) func(float64) float64 {
	return func(mz float64) float64 {
		w, err := f.At(mz)
		if err != nil {
			return fallback
		}
		return w
	}
}

// LearnFrom measures the pure peaks of a m/z-sorted sequence and fits the
// model to their widths by non-negative least squares. It fails with
// Starvation if no pure peak is found or the fit is degenerate; the model is
// unchanged on failure.
func LearnFrom[T any](f *Fwhm, seq []T, mz, ab Extractor[T]) error {
	const op = "psf.LearnFrom"

	widths, err := MeasureFullWidths(seq, mz, ab, f.fraction, f.minHeight)
	if err != nil {
		return err
	}
	if len(widths) == 0 {
		f.logger.Warn("no pure peaks to learn from", zap.Int("elements", len(seq)))
		return core.Starvation(op, "no pure peaks among %d elements", len(seq))
	}
	return f.fit(widths)
}

// LearnFromWidths fits the model to already measured widths.
func (f *Fwhm) LearnFromWidths(widths []Width) error {
	if len(widths) == 0 {
		return core.Starvation("psf.Fwhm.LearnFromWidths", "no widths to learn from")
	}
	return f.fit(widths)
}

func (f *Fwhm) fit(widths []Width) error {
	n := f.model.NumberOfParameters()
	design := mat.NewDense(len(widths), n, nil)
	obs := mat.NewVecDense(len(widths), nil)
	for r, w := range widths {
		slope := f.model.Slope(w.Mz)
		for c := 0; c < n; c++ {
			design.Set(r, c, slope[c])
		}
		obs.SetVec(r, w.Width-slope[n])
	}

	sol, err := nnls(design, obs)
	if err != nil {
		f.logger.Warn("FWHM regression failed", zap.Int("peaks", len(widths)), zap.Error(err))
		return core.Starvation("psf.Fwhm.fit", "regression over %d peaks failed: %v", len(widths), err)
	}
	for i := 0; i < n; i++ {
		if err := f.model.SetParameter(i, sol.AtVec(i)); err != nil {
			return err
		}
	}

	f.logger.Info("learned FWHM",
		zap.Int("peaks", len(widths)),
		zap.String("model", Describe(f.model)),
		zap.Float64("fwhm_at_400", f.model.At(400)))
	return nil
}
