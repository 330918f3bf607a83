package beamform

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-beam/algorithms/common"
	"github.com/RyanBlaney/sonido-beam/algorithms/linalg"
	"github.com/RyanBlaney/sonido-beam/algorithms/tensor"
)

// LCMVVector returns the linearly constrained minimum variance
// beamforming vector per bin. Each target contributes one constraint
// Hᴴ·w = response, so with response (1, 0, ...) the first source passes
// undistorted while the remaining sources are nulled.
//
// atf has shape (targets, bins, sensors), response length targets and
// noisePSD (bins, sensors, sensors); the result is (bins, sensors).
// The noise matrix is used as given, without symmetrization.
func LCMVVector(atf *tensor.CDense, response []complex128, noisePSD *tensor.CDense) (*tensor.CDense, error) {
	if atf.NDim() != 3 {
		return nil, fmt.Errorf("beamform: atf must be (targets, bins, sensors), got %v: %w",
			atf.Shape(), tensor.ErrShape)
	}
	if noisePSD.NDim() != 3 || noisePSD.Dim(1) != noisePSD.Dim(2) {
		return nil, fmt.Errorf("beamform: noise psd must be (bins, sensors, sensors), got %v: %w",
			noisePSD.Shape(), tensor.ErrShape)
	}

	targets := atf.Dim(0)
	bins := atf.Dim(1)
	sensors := atf.Dim(2)
	if targets == 0 {
		return nil, fmt.Errorf("beamform: lcmv needs at least one target: %w", tensor.ErrShape)
	}
	if len(response) != targets {
		return nil, fmt.Errorf("beamform: response has %d entries for %d targets: %w",
			len(response), targets, tensor.ErrShape)
	}
	if noisePSD.Dim(0) != bins || noisePSD.Dim(1) != sensors {
		return nil, fmt.Errorf("beamform: atf shape %v does not match noise psd shape %v: %w",
			atf.Shape(), noisePSD.Shape(), tensor.ErrShape)
	}

	out := tensor.NewCDense(tensor.Shape{bins, sensors}, nil)
	ad := atf.Data()
	nd := noisePSD.Data()
	od := out.Data()

	errs := make([]error, bins)
	common.ParallelFor(bins, func(f int) {
		noise := mat.NewCDense(sensors, sensors, nd[f*sensors*sensors:(f+1)*sensors*sensors])

		// Φ·X = H for all targets at once.
		rhs := mat.NewCDense(sensors, targets, nil)
		for k := range targets {
			base := (k*bins + f) * sensors
			for d := range sensors {
				rhs.Set(d, k, ad[base+d])
			}
		}

		x, err := linalg.Solve(noise, rhs)
		if err != nil {
			errs[f] = fmt.Errorf("beamform: lcmv bin %d: %w", f, err)
			return
		}

		// Gram matrix of the constraints, G[k][l] = h_kᴴ·(Φ⁻¹h_l).
		gram := mat.NewCDense(targets, targets, nil)
		for k := range targets {
			base := (k*bins + f) * sensors
			for l := range targets {
				var sum complex128
				for d := range sensors {
					sum += cmplx.Conj(ad[base+d]) * x.At(d, l)
				}
				gram.Set(k, l, sum)
			}
		}

		weights, err := linalg.SolveVec(gram, response)
		if err != nil {
			errs[f] = fmt.Errorf("beamform: lcmv bin %d: %w", f, err)
			return
		}

		for d := range sensors {
			var sum complex128
			for k := range targets {
				sum += x.At(d, k) * weights[k]
			}
			od[f*sensors+d] = sum
		}
	})

	if err := firstError(errs); err != nil {
		return nil, err
	}
	return out, nil
}
