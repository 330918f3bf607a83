package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DominantHermitianDefinite solves the Hermitian-definite generalized
// eigenproblem a·v = λ·b·v for the eigenpair with the largest eigenvalue.
// a must be Hermitian and b Hermitian positive definite. The problem is
// reduced by Cholesky whitening, b = L·Lᴴ and S = L⁻¹·a·L⁻ᴴ, solved as an
// ordinary Hermitian problem, and back-transformed with v = L⁻ᴴ·u, so the
// returned eigenvector satisfies vᴴ·b·v = 1.
//
// A b that is not positive definite returns ErrNotPositiveDefinite, the
// condition callers use to switch to the general solver.
func DominantHermitianDefinite(a, b *mat.CDense) ([]complex128, float64, error) {
	if err := checkPair(a, b); err != nil {
		return nil, 0, err
	}

	l, err := Cholesky(b)
	if err != nil {
		return nil, 0, err
	}

	var he HermEigen
	if err := he.Factorize(whiten(l, a)); err != nil {
		return nil, 0, err
	}
	u, val := he.Dominant()

	v := backSolveHermVec(l, u)
	canonicalizePhase(v)
	return v, val, nil
}

// DominantGeneral solves the general generalized eigenproblem a·v = λ·b·v
// for the eigenpair whose eigenvalue has the largest real part, by reducing
// to the ordinary problem for b⁻¹·a. Eigenvalues may be complex; the
// eigenvector is unit norm. A singular b returns ErrSingular.
func DominantGeneral(a, b *mat.CDense) ([]complex128, complex128, error) {
	if err := checkPair(a, b); err != nil {
		return nil, 0, err
	}

	x, err := Solve(b, a)
	if err != nil {
		return nil, 0, err
	}
	return genEigenDominant(x)
}

func checkPair(a, b *mat.CDense) error {
	an, am := a.Dims()
	bn, bm := b.Dims()
	if an != am || bn != bm || an != bn {
		return fmt.Errorf("matrix pair is %d×%d and %d×%d: %w", an, am, bn, bm, ErrShape)
	}
	return nil
}
