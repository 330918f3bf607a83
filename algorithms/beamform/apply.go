package beamform

import (
	"fmt"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-beam/algorithms/tensor"
)

// ApplyVector beamforms the mix so the sensor axis disappears:
// out[..., t] = Σ_d conj(v[..., d])·mix[..., d, t], with vector
// (..., sensors) and mix (..., sensors, frames) giving (..., frames).
func ApplyVector(vector, mix *tensor.CDense) (*tensor.CDense, error) {
	mndim := mix.NDim()
	if mndim < 2 || vector.NDim() != mndim-1 || !vector.Shape().Equal(mix.Shape()[:mndim-1]) {
		return nil, fmt.Errorf("beamform: vector shape %v does not match mix shape %v: %w",
			vector.Shape(), mix.Shape(), tensor.ErrShape)
	}

	sensors := mix.Dim(mndim - 2)
	frames := mix.Dim(mndim - 1)
	batch := mix.Len() / (sensors * frames)

	outShape := append(mix.Shape()[:mndim-2], frames)
	out := tensor.NewCDense(outShape, nil)

	vd := vector.Data()
	md := mix.Data()
	od := out.Data()

	for b := range batch {
		oRow := od[b*frames : (b+1)*frames]
		for d := range sensors {
			w := cmplx.Conj(vd[b*sensors+d])
			xRow := md[(b*sensors+d)*frames:]
			for t := range frames {
				oRow[t] += w * xRow[t]
			}
		}
	}

	return out, nil
}
