package beamform

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"

	"github.com/RyanBlaney/sonido-beam/algorithms/tensor"
)

// randHermitianPSD builds (bins, n, n) Hermitian positive definite
// matrices MᴴM + n·I.
func randHermitianPSD(rnd *rand.Rand, bins, n int) *tensor.CDense {
	out := tensor.NewCDense(tensor.Shape{bins, n, n}, nil)
	data := out.Data()
	m := make([]complex128, n*n)

	for f := range bins {
		for i := range m {
			m[i] = complex(rnd.NormFloat64(), rnd.NormFloat64())
		}
		block := data[f*n*n:]
		for i := range n {
			for j := range n {
				var sum complex128
				for k := range n {
					sum += cmplx.Conj(m[k*n+i]) * m[k*n+j]
				}
				if i == j {
					sum += complex(float64(n), 0)
				}
				block[i*n+j] = sum
			}
		}
	}
	return out
}

// randVectorBatch builds a (bins, n) batch of random complex vectors.
func randVectorBatch(rnd *rand.Rand, bins, n int) *tensor.CDense {
	out := tensor.NewCDense(tensor.Shape{bins, n}, nil)
	data := out.Data()
	for i := range data {
		data[i] = complex(rnd.NormFloat64(), rnd.NormFloat64())
	}
	return out
}

// binRow returns the f-th length-n row of a (bins, n) tensor.
func binRow(t *tensor.CDense, f, n int) []complex128 {
	return t.Data()[f*n : (f+1)*n]
}

// mulBin multiplies the f-th n×n matrix of a (bins, n, n) tensor with v.
func mulBin(t *tensor.CDense, f int, v []complex128) []complex128 {
	n := len(v)
	block := t.Data()[f*n*n:]
	out := make([]complex128, n)
	for i := range n {
		var sum complex128
		for j := range n {
			sum += block[i*n+j] * v[j]
		}
		out[i] = sum
	}
	return out
}

func dotConj(x, y []complex128) complex128 {
	var sum complex128
	for i := range x {
		sum += cmplx.Conj(x[i]) * y[i]
	}
	return sum
}

func vecNorm(v []complex128) float64 {
	var sum float64
	for _, c := range v {
		sum += real(c)*real(c) + imag(c)*imag(c)
	}
	return math.Sqrt(sum)
}

func assertComplexInDelta(t *testing.T, want, got complex128, delta float64) {
	t.Helper()
	assert.InDelta(t, real(want), real(got), delta)
	assert.InDelta(t, imag(want), imag(got), delta)
}
