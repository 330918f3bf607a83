package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Solve solves the complex linear system a·x = b for x, with a square n×n
// and b n×k. The system is solved through one LU factorization of the real
// embedding, never by forming an explicit inverse. A singular or
// near-singular a returns ErrSingular; no pseudo-inverse is substituted.
func Solve(a, b *mat.CDense) (*mat.CDense, error) {
	n, m := a.Dims()
	if n != m {
		return nil, fmt.Errorf("system matrix is %d×%d: %w", n, m, ErrShape)
	}
	br, k := b.Dims()
	if br != n {
		return nil, fmt.Errorf("right-hand side has %d rows, want %d: %w", br, n, ErrShape)
	}

	var lu mat.LU
	lu.Factorize(embedDense(a))

	var x mat.Dense
	if err := lu.SolveTo(&x, false, stackRHS(b)); err != nil {
		return nil, fmt.Errorf("solve: %w", ErrSingular)
	}
	return unstackSolution(&x, n, k), nil
}

// SolveVec solves a·x = b for a single right-hand side vector.
func SolveVec(a *mat.CDense, b []complex128) ([]complex128, error) {
	n, m := a.Dims()
	if n != m || len(b) != n {
		return nil, fmt.Errorf("system is %d×%d with %d-vector: %w", n, m, len(b), ErrShape)
	}
	rhs := mat.NewCDense(n, 1, nil)
	for i, v := range b {
		rhs.Set(i, 0, v)
	}
	x, err := Solve(a, rhs)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, n)
	for i := range out {
		out[i] = x.At(i, 0)
	}
	return out, nil
}
