package linalg

import "errors"

// Package-level errors. Callers classify failures with errors.Is; the
// beamforming solvers wrap these with per-bin context.
var (
	// ErrShape indicates mismatched or non-square matrix dimensions
	ErrShape = errors.New("linalg: dimension mismatch")
	// ErrSingular indicates a singular or near-singular system matrix
	ErrSingular = errors.New("linalg: matrix is singular to working precision")
	// ErrNotPositiveDefinite indicates a Hermitian matrix with a
	// non-positive pivot, so no Cholesky factorization exists
	ErrNotPositiveDefinite = errors.New("linalg: matrix is not positive definite")
	// ErrEigenFailed indicates the eigensolver failed to converge
	ErrEigenFailed = errors.New("linalg: eigendecomposition failed")
)
