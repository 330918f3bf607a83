package beamform

import (
	"fmt"

	"github.com/RyanBlaney/sonido-beam/algorithms/common"
	"github.com/RyanBlaney/sonido-beam/algorithms/linalg"
	"github.com/RyanBlaney/sonido-beam/algorithms/tensor"
)

// GEVVector returns the generalized eigenvalue beamforming vector per
// bin: the eigenvector of Φ_target·v = λ·Φ_noise·v with the largest
// eigenvalue, which maximizes the output SNR.
//
// Both PSD batches must have shape (bins, sensors, sensors) and are
// symmetrized on private copies. Each bin first runs the
// Cholesky-whitened Hermitian-definite solver; if that fails, typically
// because the noise matrix is not positive definite, the bin falls back
// to the general solver ordered by largest real eigenvalue part.
// Primary-path vectors satisfy vᴴ·Φ_noise·v = 1, fallback vectors are
// unit-norm.
func GEVVector(targetPSD, noisePSD *tensor.CDense) (*tensor.CDense, error) {
	if targetPSD.NDim() != 3 || targetPSD.Dim(1) != targetPSD.Dim(2) {
		return nil, fmt.Errorf("beamform: target psd must be (bins, sensors, sensors), got %v: %w",
			targetPSD.Shape(), tensor.ErrShape)
	}
	if !noisePSD.Shape().Equal(targetPSD.Shape()) {
		return nil, fmt.Errorf("beamform: noise psd shape %v does not match target psd shape %v: %w",
			noisePSD.Shape(), targetPSD.Shape(), tensor.ErrShape)
	}
	bins := targetPSD.Dim(0)
	sensors := targetPSD.Dim(1)

	out := tensor.NewCDense(tensor.Shape{bins, sensors}, nil)
	td := targetPSD.Data()
	nd := noisePSD.Data()
	od := out.Data()

	errs := make([]error, bins)
	common.ParallelFor(bins, func(f int) {
		a := hermitized(td[f*sensors*sensors:], sensors)
		b := hermitized(nd[f*sensors*sensors:], sensors)

		vec, _, err := linalg.DominantHermitianDefinite(a, b)
		if err != nil {
			vec, _, err = linalg.DominantGeneral(a, b)
		}
		if err != nil {
			errs[f] = fmt.Errorf("beamform: gev bin %d: %w", f, err)
			return
		}
		copy(od[f*sensors:], vec)
	})

	if err := firstError(errs); err != nil {
		return nil, err
	}
	return out, nil
}
