// Package beamform derives beamforming vectors from power spectral
// density matrices and applies them to multi-channel observations.
package beamform

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// hermitized returns ½(A + Aᴴ) of the leading n×n block as a fresh
// matrix, leaving the input untouched.
func hermitized(a []complex128, n int) *mat.CDense {
	out := mat.NewCDense(n, n, nil)
	for i := range n {
		for j := range n {
			out.Set(i, j, 0.5*(a[i*n+j]+cmplx.Conj(a[j*n+i])))
		}
	}
	return out
}

// firstError returns the first non-nil error of a batch, keeping error
// reporting deterministic regardless of worker scheduling.
func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
