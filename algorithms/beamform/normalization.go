package beamform

import (
	"fmt"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-beam/algorithms/tensor"
)

// BlindAnalyticNormalization rescales a beamforming vector per bin by
// |sqrt(vᴴΦΦv)| / |vᴴΦv| against the noise PSD, trading the arbitrary
// gain of an SNR-maximizing vector for a flat target response without
// needing the true transfer function.
//
// vector has shape (bins, sensors) and noisePSD (bins, sensors,
// sensors). The denominator is not guarded: a vector annihilated by the
// noise PSD propagates NaN/Inf into its bin. A new tensor is returned.
func BlindAnalyticNormalization(vector, noisePSD *tensor.CDense) (*tensor.CDense, error) {
	if vector.NDim() != 2 {
		return nil, fmt.Errorf("beamform: vector must be (bins, sensors), got %v: %w",
			vector.Shape(), tensor.ErrShape)
	}
	bins := vector.Dim(0)
	sensors := vector.Dim(1)
	if noisePSD.NDim() != 3 || noisePSD.Dim(0) != bins || noisePSD.Dim(1) != sensors || noisePSD.Dim(2) != sensors {
		return nil, fmt.Errorf("beamform: vector shape %v does not match noise psd shape %v: %w",
			vector.Shape(), noisePSD.Shape(), tensor.ErrShape)
	}

	out := tensor.NewCDense(tensor.Shape{bins, sensors}, nil)
	vd := vector.Data()
	nd := noisePSD.Data()
	od := out.Data()

	u := make([]complex128, sensors)
	w := make([]complex128, sensors)
	for f := range bins {
		v := vd[f*sensors : (f+1)*sensors]
		noise := nd[f*sensors*sensors:]

		for d := range sensors {
			var sum complex128
			for e := range sensors {
				sum += noise[d*sensors+e] * v[e]
			}
			u[d] = sum
		}
		for d := range sensors {
			var sum complex128
			for e := range sensors {
				sum += noise[d*sensors+e] * u[e]
			}
			w[d] = sum
		}

		var numerator, denominator complex128
		for d := range sensors {
			numerator += cmplx.Conj(v[d]) * w[d]
			denominator += cmplx.Conj(v[d]) * u[d]
		}

		scale := complex(cmplx.Abs(cmplx.Sqrt(numerator))/cmplx.Abs(denominator), 0)
		for d := range sensors {
			od[f*sensors+d] = v[d] * scale
		}
	}

	return out, nil
}
