package beamform

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-beam/algorithms/common"
	"github.com/RyanBlaney/sonido-beam/algorithms/linalg"
	"github.com/RyanBlaney/sonido-beam/algorithms/tensor"
)

// PCAVector returns the principal-component beamforming vector for
// every matrix in a batch of target PSD matrices: the unit-norm
// dominant eigenvector, shape (..., sensors, sensors) to (..., sensors).
func PCAVector(targetPSD *tensor.CDense) (*tensor.CDense, error) {
	ndim := targetPSD.NDim()
	if ndim < 2 || targetPSD.Dim(ndim-1) != targetPSD.Dim(ndim-2) {
		return nil, fmt.Errorf("beamform: target psd must be square on its trailing axes, got %v: %w",
			targetPSD.Shape(), tensor.ErrShape)
	}
	sensors := targetPSD.Dim(ndim - 1)
	batch := targetPSD.Len() / (sensors * sensors)

	out := tensor.NewCDense(targetPSD.Shape()[:ndim-1], nil)

	pd := targetPSD.Data()
	od := out.Data()
	errs := make([]error, batch)

	common.ParallelFor(batch, func(b int) {
		a := mat.NewCDense(sensors, sensors, pd[b*sensors*sensors:(b+1)*sensors*sensors])

		var eig linalg.HermEigen
		if err := eig.Factorize(a); err != nil {
			errs[b] = fmt.Errorf("beamform: pca matrix %d: %w", b, err)
			return
		}
		vec, _ := eig.Dominant()
		copy(od[b*sensors:], vec)
	})

	if err := firstError(errs); err != nil {
		return nil, err
	}
	return out, nil
}
