package beamform

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-beam/algorithms/common"
	"github.com/RyanBlaney/sonido-beam/algorithms/linalg"
	"github.com/RyanBlaney/sonido-beam/algorithms/tensor"
)

// MVDRVector returns the minimum variance distortionless response
// beamforming vector w = Φ⁻¹a / (aᴴΦ⁻¹a) for every bin, broadcasting
// the noise PSD across any leading batch axes of the transfer function.
//
// atf has shape (..., bins, sensors) and noisePSD (bins, sensors,
// sensors); the result matches the atf shape. The noise matrix is
// symmetrized on a private copy before solving. The distortionless
// denominator aᴴΦ⁻¹a is not guarded: a transfer function orthogonal to
// the whitened space propagates NaN/Inf into the affected bin.
func MVDRVector(atf, noisePSD *tensor.CDense) (*tensor.CDense, error) {
	if noisePSD.NDim() != 3 || noisePSD.Dim(1) != noisePSD.Dim(2) {
		return nil, fmt.Errorf("beamform: noise psd must be (bins, sensors, sensors), got %v: %w",
			noisePSD.Shape(), tensor.ErrShape)
	}
	bins := noisePSD.Dim(0)
	sensors := noisePSD.Dim(1)

	ndim := atf.NDim()
	if ndim < 2 || atf.Dim(ndim-1) != sensors || atf.Dim(ndim-2) != bins {
		return nil, fmt.Errorf("beamform: atf shape %v does not match noise psd shape %v: %w",
			atf.Shape(), noisePSD.Shape(), tensor.ErrShape)
	}
	batch := atf.Len() / (bins * sensors)

	out := tensor.NewCDense(atf.Shape(), nil)
	ad := atf.Data()
	od := out.Data()
	nd := noisePSD.Data()

	errs := make([]error, bins)
	common.ParallelFor(bins, func(f int) {
		noise := hermitized(nd[f*sensors*sensors:], sensors)

		// One factorization per bin, shared by all batch entries.
		rhs := mat.NewCDense(sensors, batch, nil)
		for c := range batch {
			base := (c*bins + f) * sensors
			for d := range sensors {
				rhs.Set(d, c, ad[base+d])
			}
		}

		x, err := linalg.Solve(noise, rhs)
		if err != nil {
			errs[f] = fmt.Errorf("beamform: mvdr bin %d: %w", f, err)
			return
		}

		for c := range batch {
			base := (c*bins + f) * sensors
			var denom complex128
			for d := range sensors {
				denom += cmplx.Conj(ad[base+d]) * x.At(d, c)
			}
			for d := range sensors {
				od[base+d] = x.At(d, c) / denom
			}
		}
	})

	if err := firstError(errs); err != nil {
		return nil, err
	}
	return out, nil
}
