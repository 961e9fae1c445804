package psf

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// nnls solves min ||a*x - b|| subject to x >= 0 with the Lawson-Hanson
// active set method. The unconstrained sub-problems are solved by gonum's
// QR/LQ based least squares.
func nnls(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	const op = "psf.nnls"

	m, n := a.Dims()
	if b.Len() != m {
		return nil, core.Precondition(op, "design matrix has %d rows, observations %d", m, b.Len())
	}
	if m == 0 || n == 0 {
		return nil, core.Precondition(op, "empty %dx%d design matrix", m, n)
	}

	tol := 10 * math.Nextafter(1, 2) * mat.Norm(a, 1) * float64(max(m, n))
	x := mat.NewVecDense(n, nil)
	passive := make([]bool, n)
	w := mat.NewVecDense(n, nil)

	gradient := func() {
		var r mat.VecDense
		r.MulVec(a, x)
		r.SubVec(b, &r)
		w.MulVec(a.T(), &r)
	}

	gradient()
	for iter := 0; iter < 3*n; iter++ {
		j := -1
		for i := 0; i < n; i++ {
			if !passive[i] && w.AtVec(i) > tol && (j < 0 || w.AtVec(i) > w.AtVec(j)) {
				j = i
			}
		}
		if j < 0 {
			break
		}
		passive[j] = true

		for {
			z, err := solvePassive(a, b, passive)
			if err != nil {
				return nil, err
			}

			feasible := true
			for i := 0; i < n; i++ {
				if passive[i] && z.AtVec(i) <= 0 {
					feasible = false
					break
				}
			}
			if feasible {
				x.CopyVec(z)
				break
			}

			alpha, blocking := math.Inf(1), -1
			for i := 0; i < n; i++ {
				if passive[i] && z.AtVec(i) <= 0 {
					xi := x.AtVec(i)
					step := 0.0
					if d := xi - z.AtVec(i); d > 0 {
						step = xi / d
					}
					if step < alpha {
						alpha, blocking = step, i
					}
				}
			}
			for i := 0; i < n; i++ {
				xi := x.AtVec(i)
				x.SetVec(i, xi+alpha*(z.AtVec(i)-xi))
				if passive[i] && (i == blocking || x.AtVec(i) <= 0) {
					passive[i] = false
					x.SetVec(i, 0)
				}
			}
			if !anyTrue(passive) {
				break
			}
		}
		gradient()
	}
	return x, nil
}

// solvePassive solves the unconstrained least squares problem over the
// passive columns and scatters the result into a full-length vector.
func solvePassive(a *mat.Dense, b *mat.VecDense, passive []bool) (*mat.VecDense, error) {
	m, n := a.Dims()
	var cols []int
	for i, p := range passive {
		if p {
			cols = append(cols, i)
		}
	}

	sub := mat.NewDense(m, len(cols), nil)
	for k, c := range cols {
		for r := 0; r < m; r++ {
			sub.Set(r, k, a.At(r, c))
		}
	}

	var sol mat.VecDense
	if err := sol.SolveVec(sub, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, core.Starvation("psf.nnls", "singular least squares sub-problem: %v", err)
		}
	}

	z := mat.NewVecDense(n, nil)
	for k, c := range cols {
		v := sol.AtVec(k)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.Starvation("psf.nnls", "least squares solution is not finite")
		}
		z.SetVec(c, v)
	}
	return z, nil
}

func anyTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}
