package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/mat"
)

func randComplexMatrix(rnd *rand.Rand, n int) *mat.CDense {
	m := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, complex(rnd.NormFloat64(), rnd.NormFloat64()))
		}
	}
	return m
}

// randHermitian returns ½(M + Mᴴ) for random M.
func randHermitian(rnd *rand.Rand, n int) *mat.CDense {
	m := randComplexMatrix(rnd, n)
	h := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := 0.5 * (m.At(i, j) + conj(m.At(j, i)))
			h.Set(i, j, v)
		}
	}
	return h
}

// randHPD returns Mᴴ·M + n·I, Hermitian positive definite.
func randHPD(rnd *rand.Rand, n int) *mat.CDense {
	m := randComplexMatrix(rnd, n)
	h := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var s complex128
			for k := 0; k < n; k++ {
				s += conj(m.At(k, i)) * m.At(k, j)
			}
			if i == j {
				s += complex(float64(n), 0)
			}
			h.Set(i, j, s)
		}
	}
	return h
}

func conj(z complex128) complex128 {
	return complex(real(z), -imag(z))
}

// matVec computes a·v for square a.
func matVec(a *mat.CDense, v []complex128) []complex128 {
	n, _ := a.Dims()
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		var s complex128
		for j := 0; j < n; j++ {
			s += a.At(i, j) * v[j]
		}
		out[i] = s
	}
	return out
}

func TestSolveKnownSystem(t *testing.T) {
	a := mat.NewCDense(2, 2, []complex128{
		1, 1i,
		-1i, 2,
	})
	want := []complex128{1 - 1i, 1i}
	b := mat.NewCDense(2, 1, []complex128{-1i, -1 + 1i})

	x, err := Solve(a, b)
	require.NoError(t, err)

	got := []complex128{x.At(0, 0), x.At(1, 0)}
	assert.True(t, cmplxs.EqualApprox(want, got, 1e-12), "got %v want %v", got, want)
}

func TestSolveMultiRHS(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	a := randHPD(rnd, 4)
	b := mat.NewCDense(4, 3, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			b.Set(i, j, complex(rnd.NormFloat64(), rnd.NormFloat64()))
		}
	}

	x, err := Solve(a, b)
	require.NoError(t, err)

	// residual a·x - b should vanish column by column
	for j := 0; j < 3; j++ {
		col := make([]complex128, 4)
		for i := range col {
			col[i] = x.At(i, j)
		}
		ax := matVec(a, col)
		for i := range ax {
			assert.InDelta(t, real(b.At(i, j)), real(ax[i]), 1e-10)
			assert.InDelta(t, imag(b.At(i, j)), imag(ax[i]), 1e-10)
		}
	}
}

func TestSolveSingular(t *testing.T) {
	a := mat.NewCDense(2, 2, []complex128{
		1 + 1i, 2 + 2i,
		2 + 2i, 4 + 4i,
	})
	b := mat.NewCDense(2, 1, []complex128{1, 1})

	_, err := Solve(a, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSingular)
}

func TestSolveShapeErrors(t *testing.T) {
	square := mat.NewCDense(2, 2, nil)
	tall := mat.NewCDense(3, 2, nil)

	_, err := Solve(tall, square)
	assert.ErrorIs(t, err, ErrShape)

	_, err = Solve(square, tall)
	assert.ErrorIs(t, err, ErrShape)

	_, err = SolveVec(square, []complex128{1, 2, 3})
	assert.ErrorIs(t, err, ErrShape)
}

func TestSolveVec(t *testing.T) {
	a := mat.NewCDense(2, 2, []complex128{
		2, 0,
		0, 1i,
	})
	x, err := SolveVec(a, []complex128{6 + 2i, 1i * 3})
	require.NoError(t, err)
	assert.True(t, cmplxs.EqualApprox([]complex128{3 + 1i, 3}, x, 1e-12), "got %v", x)
}
