// Package linalg provides the complex dense linear algebra the beamforming
// solvers need: linear solves, Cholesky factorization, and Hermitian,
// general and generalized eigendecompositions, all in double-precision
// complex arithmetic.
//
// gonum's mat package factorizes real matrices only, so every complex M×M
// problem is mapped onto a real 2M×2M problem through the standard embedding
//
//	embed(A) = [[Re A, -Im A], [Im A, Re A]]
//
// which preserves products and maps conjugate transposition to real
// transposition. A Hermitian A embeds to a symmetric matrix whose spectrum
// is that of A with every eigenvalue doubled, and any real eigenvector
// [x; y] of the embedding recovers a complex eigenvector z = x + iy.
package linalg

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// embedDense returns the real 2n×2n embedding of a square complex matrix.
func embedDense(a *mat.CDense) *mat.Dense {
	n, _ := a.Dims()
	e := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a.At(i, j)
			re, im := real(v), imag(v)
			e.Set(i, j, re)
			e.Set(i, n+j, -im)
			e.Set(n+i, j, im)
			e.Set(n+i, n+j, re)
		}
	}
	return e
}

// embedSym returns the embedding of a Hermitian matrix as a SymDense. The
// embedding of an exactly Hermitian matrix is symmetric; SymDense reads the
// upper triangle, so residual asymmetry from floating-point drift is
// resolved in favor of the upper triangle, as LAPACK's Hermitian drivers do.
func embedSym(a *mat.CDense) *mat.SymDense {
	n, _ := a.Dims()
	data := make([]float64, 4*n*n)
	dim := 2 * n
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a.At(i, j)
			re, im := real(v), imag(v)
			data[i*dim+j] = re
			data[i*dim+n+j] = -im
			data[(n+i)*dim+j] = im
			data[(n+i)*dim+n+j] = re
		}
	}
	return mat.NewSymDense(dim, data)
}

// stackRHS splits a complex right-hand side n×k into the stacked real
// 2n×k form [Re B; Im B] matching the embedding's first block column.
func stackRHS(b *mat.CDense) *mat.Dense {
	n, k := b.Dims()
	s := mat.NewDense(2*n, k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			v := b.At(i, j)
			s.Set(i, j, real(v))
			s.Set(n+i, j, imag(v))
		}
	}
	return s
}

// unstackSolution rebuilds the complex n×k solution from its stacked
// real 2n×k form.
func unstackSolution(x *mat.Dense, n, k int) *mat.CDense {
	c := mat.NewCDense(n, k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			c.Set(i, j, complex(x.At(i, j), x.At(n+i, j)))
		}
	}
	return c
}

// norm2 returns the Euclidean norm of a complex vector.
func norm2(v []complex128) float64 {
	sum := 0.0
	for _, z := range v {
		re, im := real(z), imag(z)
		sum += re*re + im*im
	}
	return math.Sqrt(sum)
}

// canonicalizePhase rotates v in place so its largest-magnitude component
// is real and positive, the LAPACK eigenvector convention. The rotation is
// a unit scalar, so norms and quadratic forms are unchanged.
func canonicalizePhase(v []complex128) {
	maxAbs := 0.0
	arg := complex128(0)
	for _, z := range v {
		if a := cmplx.Abs(z); a > maxAbs {
			maxAbs = a
			arg = z
		}
	}
	if maxAbs == 0 {
		return
	}
	rot := complex(real(arg)/maxAbs, -imag(arg)/maxAbs)
	for i := range v {
		v[i] *= rot
	}
}
