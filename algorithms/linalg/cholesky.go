package linalg

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Cholesky computes the lower-triangular factor L of a Hermitian positive
// definite matrix, a = L·Lᴴ, with a positive real diagonal. Only the lower
// triangle of a is read. A non-positive pivot means the matrix is not
// positive definite and returns ErrNotPositiveDefinite; that error is the
// trigger for the generalized eigensolver's fallback path.
func Cholesky(a *mat.CDense) (*mat.CDense, error) {
	n, m := a.Dims()
	if n != m {
		return nil, fmt.Errorf("matrix is %d×%d: %w", n, m, ErrShape)
	}
	l := mat.NewCDense(n, n, nil)
	for j := 0; j < n; j++ {
		d := real(a.At(j, j))
		for k := 0; k < j; k++ {
			v := l.At(j, k)
			d -= real(v)*real(v) + imag(v)*imag(v)
		}
		if d <= 0 || math.IsNaN(d) {
			return nil, fmt.Errorf("pivot %d is %v: %w", j, d, ErrNotPositiveDefinite)
		}
		ljj := math.Sqrt(d)
		l.Set(j, j, complex(ljj, 0))
		for i := j + 1; i < n; i++ {
			s := a.At(i, j)
			for k := 0; k < j; k++ {
				s -= l.At(i, k) * cmplx.Conj(l.At(j, k))
			}
			l.Set(i, j, s/complex(ljj, 0))
		}
	}
	return l, nil
}

// forwardSolveVec solves L·x = b for lower-triangular L.
func forwardSolveVec(l *mat.CDense, b []complex128) []complex128 {
	n := len(b)
	x := make([]complex128, n)
	for i := 0; i < n; i++ {
		s := b[i]
		for k := 0; k < i; k++ {
			s -= l.At(i, k) * x[k]
		}
		x[i] = s / l.At(i, i)
	}
	return x
}

// forwardSolveConjVec solves conj(L)·x = b for lower-triangular L.
func forwardSolveConjVec(l *mat.CDense, b []complex128) []complex128 {
	n := len(b)
	x := make([]complex128, n)
	for i := 0; i < n; i++ {
		s := b[i]
		for k := 0; k < i; k++ {
			s -= cmplx.Conj(l.At(i, k)) * x[k]
		}
		x[i] = s / cmplx.Conj(l.At(i, i))
	}
	return x
}

// backSolveHermVec solves Lᴴ·x = b, a back substitution against the upper
// triangular conjugate transpose of L.
func backSolveHermVec(l *mat.CDense, b []complex128) []complex128 {
	n := len(b)
	x := make([]complex128, n)
	for i := n - 1; i >= 0; i-- {
		s := b[i]
		for k := i + 1; k < n; k++ {
			s -= cmplx.Conj(l.At(k, i)) * x[k]
		}
		x[i] = s / cmplx.Conj(l.At(i, i))
	}
	return x
}

// whiten computes S = L⁻¹·a·L⁻ᴴ, the congruence transform that turns the
// Hermitian-definite pair (a, L·Lᴴ) into the ordinary Hermitian problem for
// S. The result is symmetrized to remove floating-point drift before
// eigendecomposition.
func whiten(l *mat.CDense, a *mat.CDense) *mat.CDense {
	n, _ := a.Dims()

	// W = L⁻¹·a, column by column.
	w := mat.NewCDense(n, n, nil)
	col := make([]complex128, n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			col[i] = a.At(i, j)
		}
		x := forwardSolveVec(l, col)
		for i := 0; i < n; i++ {
			w.Set(i, j, x[i])
		}
	}

	// S = W·L⁻ᴴ, row by row: conj(L)·Sᵀ = Wᵀ.
	s := mat.NewCDense(n, n, nil)
	row := make([]complex128, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			row[j] = w.At(i, j)
		}
		x := forwardSolveConjVec(l, row)
		for j := 0; j < n; j++ {
			s.Set(i, j, x[j])
		}
	}

	// ½(S + Sᴴ)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := 0.5 * (s.At(i, j) + cmplx.Conj(s.At(j, i)))
			s.Set(i, j, v)
			s.Set(j, i, cmplx.Conj(v))
		}
	}
	return s
}
