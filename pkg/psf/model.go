package psf

import (
	"fmt"
	"math"
	"strings"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// Model is a peak-parameter model: a function of m/z that is linear in its
// parameters, so it can be fitted by linear least squares.
type Model interface {
	// At evaluates the model at x >= 0.
	At(x float64) float64
	NumberOfParameters() int
	Parameter(i int) (float64, error)
	SetParameter(i int, v float64) error
	// Slope returns the generalized slope in parameter space at x: one
	// coefficient per parameter followed by a constant bias.
	Slope(x float64) []float64
}

const defaultParameter = 0.1

// params backs the built-in models.
type params []float64

func (p params) NumberOfParameters() int { return len(p) }

func (p params) Parameter(i int) (float64, error) {
	if i < 0 || i >= len(p) {
		return 0, core.Precondition("psf.Model.Parameter", "parameter index %d out of range [0, %d)", i, len(p))
	}
	return p[i], nil
}

func (p params) SetParameter(i int, v float64) error {
	if i < 0 || i >= len(p) {
		return core.Precondition("psf.Model.SetParameter", "parameter index %d out of range [0, %d)", i, len(p))
	}
	p[i] = v
	return nil
}

func newParams(n int) params {
	p := make(params, n)
	for i := range p {
		p[i] = defaultParameter
	}
	return p
}

// ConstantModel is f(x) = a.
type ConstantModel struct{ params }

// NewConstantModel returns a ConstantModel with a = 0.1.
func NewConstantModel() *ConstantModel { return &ConstantModel{newParams(1)} }

func (m *ConstantModel) At(float64) float64 { return m.params[0] }

func (m *ConstantModel) Slope(float64) []float64 { return []float64{1, 0} }

// LinearSqrtModel is f(x) = a*x*sqrt(x) + b, the Orbitrap peak width.
type LinearSqrtModel struct{ params }

// NewLinearSqrtModel returns a LinearSqrtModel with a = b = 0.1.
func NewLinearSqrtModel() *LinearSqrtModel { return &LinearSqrtModel{newParams(2)} }

func (m *LinearSqrtModel) At(x float64) float64 { return m.params[0]*x*math.Sqrt(x) + m.params[1] }

func (m *LinearSqrtModel) Slope(x float64) []float64 { return []float64{x * math.Sqrt(x), 1, 0} }

// LinearSqrtOriginModel is f(x) = a*x*sqrt(x).
type LinearSqrtOriginModel struct{ params }

// NewLinearSqrtOriginModel returns a LinearSqrtOriginModel with a = 0.1.
func NewLinearSqrtOriginModel() *LinearSqrtOriginModel { return &LinearSqrtOriginModel{newParams(1)} }

func (m *LinearSqrtOriginModel) At(x float64) float64 { return m.params[0] * x * math.Sqrt(x) }

func (m *LinearSqrtOriginModel) Slope(x float64) []float64 { return []float64{x * math.Sqrt(x), 0} }

// SqrtModel is f(x) = a*sqrt(x) + b, the TOF peak width.
type SqrtModel struct{ params }

// NewSqrtModel returns a SqrtModel with a = b = 0.1.
func NewSqrtModel() *SqrtModel { return &SqrtModel{newParams(2)} }

func (m *SqrtModel) At(x float64) float64 { return m.params[0]*math.Sqrt(x) + m.params[1] }

func (m *SqrtModel) Slope(x float64) []float64 { return []float64{math.Sqrt(x), 1, 0} }

// QuadraticModel is f(x) = a*x^2 + b, the FT-ICR peak width.
type QuadraticModel struct{ params }

// NewQuadraticModel returns a QuadraticModel with a = b = 0.1.
func NewQuadraticModel() *QuadraticModel { return &QuadraticModel{newParams(2)} }

func (m *QuadraticModel) At(x float64) float64 { return m.params[0]*x*x + m.params[1] }

func (m *QuadraticModel) Slope(x float64) []float64 { return []float64{x * x, 1, 0} }

// ModelNames lists the names accepted by NewModel.
var ModelNames = []string{"constant", "orbitrap", "orbitrap-origin", "tof", "ft-icr"}

// NewModel returns a fresh model by instrument or model name.
func NewModel(name string) (Model, error) {
	switch strings.ToLower(name) {
	case "constant":
		return NewConstantModel(), nil
	case "orbitrap", "linear-sqrt":
		return NewLinearSqrtModel(), nil
	case "orbitrap-origin", "linear-sqrt-origin":
		return NewLinearSqrtOriginModel(), nil
	case "tof", "sqrt":
		return NewSqrtModel(), nil
	case "ft-icr", "fticr", "quadratic":
		return NewQuadraticModel(), nil
	}
	return nil, core.Precondition("psf.NewModel", "unknown model %q, want one of %s", name, strings.Join(ModelNames, ", "))
}

// Describe renders the model parameters.
func Describe(m Model) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%T(", m)
	for i := 0; i < m.NumberOfParameters(); i++ {
		v, _ := m.Parameter(i)
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%g", v)
	}
	b.WriteString(")")
	return b.String()
}
