package linalg

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/mat"
)

// HermEigen is the eigendecomposition of a Hermitian matrix. Eigenvalues
// are real and returned in ascending order; eigenvectors are unit norm with
// canonical phase.
type HermEigen struct {
	n       int
	values  []float64
	vectors *mat.Dense
}

// Factorize computes the decomposition of the Hermitian matrix a through
// the symmetric eigendecomposition of its real embedding. Each eigenvalue
// of a appears twice in the embedding's ascending spectrum, so adjacent
// pairs collapse to one eigenvalue of a.
func (e *HermEigen) Factorize(a *mat.CDense) error {
	n, m := a.Dims()
	if n != m {
		return fmt.Errorf("matrix is %d×%d: %w", n, m, ErrShape)
	}

	var es mat.EigenSym
	if ok := es.Factorize(embedSym(a), true); !ok {
		return fmt.Errorf("hermitian factorization: %w", ErrEigenFailed)
	}

	e.n = n
	embedded := es.Values(nil)
	e.values = make([]float64, n)
	for i := 0; i < n; i++ {
		e.values[i] = embedded[2*i]
	}
	e.vectors = &mat.Dense{}
	es.VectorsTo(e.vectors)
	return nil
}

// Values returns the eigenvalues in ascending order.
func (e *HermEigen) Values() []float64 {
	out := make([]float64, len(e.values))
	copy(out, e.values)
	return out
}

// Dominant returns the unit-norm eigenvector for the largest eigenvalue
// together with that eigenvalue. Any real eigenvector [x; y] of the
// embedding recovers the complex eigenvector z = x + iy; orthonormal
// embedded vectors make z unit norm automatically.
func (e *HermEigen) Dominant() ([]complex128, float64) {
	z := e.vectorAt(2*e.n - 1)
	canonicalizePhase(z)
	return z, e.values[e.n-1]
}

func (e *HermEigen) vectorAt(col int) []complex128 {
	z := make([]complex128, e.n)
	for i := 0; i < e.n; i++ {
		z[i] = complex(e.vectors.At(i, col), e.vectors.At(e.n+i, col))
	}
	return z
}

// genEigenDominant returns the eigenpair of a general complex matrix whose
// eigenvalue has the largest real part, with a unit-norm canonical-phase
// eigenvector.
//
// The embedding's spectrum is spec(X) together with its conjugate. An
// embedded eigenvector [x; y] for value µ recovers z = x + iy with
// X·z = µ·z whenever z is nonzero; a vanishing z marks a vector from the
// conjugate copy, whose conjugate reconstruction conj(x) + i·conj(y) is an
// eigenvector for conj(µ). Both candidates share the real part, so the
// largest-real-part selection is unaffected by which copy a pair came from.
func genEigenDominant(x *mat.CDense) ([]complex128, complex128, error) {
	n, _ := x.Dims()

	var eg mat.Eigen
	if ok := eg.Factorize(embedDense(x), mat.EigenRight); !ok {
		return nil, 0, fmt.Errorf("general factorization: %w", ErrEigenFailed)
	}
	values := eg.Values(nil)
	var vectors mat.CDense
	eg.VectorsTo(&vectors)

	var (
		best    []complex128
		bestVal complex128
		found   bool
	)
	re := make([]complex128, n)
	im := make([]complex128, n)
	for j := 0; j < 2*n; j++ {
		for i := 0; i < n; i++ {
			re[i] = vectors.At(i, j)
			im[i] = vectors.At(n+i, j)
		}
		colNorm := math.Hypot(norm2(re), norm2(im))
		if colNorm == 0 {
			continue
		}

		val := values[j]
		z := make([]complex128, n)
		for i := 0; i < n; i++ {
			z[i] = re[i] + 1i*im[i]
		}
		if norm2(z) <= 1e-8*colNorm {
			// conjugate-copy vector; reconstruct for conj(µ)
			for i := 0; i < n; i++ {
				z[i] = cmplx.Conj(re[i]) + 1i*cmplx.Conj(im[i])
			}
			val = cmplx.Conj(val)
			if norm2(z) <= 1e-8*colNorm {
				continue
			}
		}

		if !found || real(val) > real(bestVal) {
			best = z
			bestVal = val
			found = true
		}
	}
	if !found {
		return nil, 0, fmt.Errorf("no recoverable eigenvector: %w", ErrEigenFailed)
	}

	cmplxs.Scale(complex(1/norm2(best), 0), best)
	canonicalizePhase(best)
	return best, bestVal, nil
}
