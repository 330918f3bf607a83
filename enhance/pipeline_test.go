package enhance

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/RyanBlaney/sonido-beam/algorithms/common"
	"github.com/RyanBlaney/sonido-beam/algorithms/linalg"
	"github.com/RyanBlaney/sonido-beam/algorithms/tensor"
)

// scene is a synthetic two-sensor mixture in the caller layout. A
// target source with steering vector (1, e^{-i*theta}) is active in
// alternating frame blocks, an interferer from the spatially orthogonal
// direction (1, -e^{-i*theta}) is always on, and a weak diffuse noise
// floor covers everything.
type scene struct {
	mix        *tensor.CDense // (frames, sensors, bins)
	targetMask *tensor.Dense  // (frames, bins)
	noiseMask  *tensor.Dense  // (frames, bins)
	clean      *tensor.Dense  // target magnitudes, (frames, bins)
	active     []bool
}

func makeScene(seed uint64) *scene {
	const (
		sensors = 2
		bins    = 6
		frames  = 60
		block   = 10
	)
	rng := rand.New(rand.NewSource(seed))

	active := make([]bool, frames)
	for t := range frames {
		active[t] = (t/block)%2 == 0
	}

	internal := tensor.NewCDense(tensor.Shape{bins, sensors, frames}, nil)
	clean := tensor.NewDense(tensor.Shape{frames, bins}, nil)
	targetMask := tensor.NewDense(tensor.Shape{frames, bins}, nil)
	noiseMask := tensor.NewDense(tensor.Shape{frames, bins}, nil)

	for f := range bins {
		phase := cmplx.Exp(complex(0, -0.4*float64(f)-0.3))
		steer := []complex128{1, phase}
		interf := []complex128{1, -phase}
		for t := range frames {
			var s complex128
			if active[t] {
				s = complex(rng.NormFloat64(), rng.NormFloat64()) * 3
			}
			clean.Set(cmplx.Abs(s), t, f)
			iv := complex(rng.NormFloat64(), rng.NormFloat64())
			for d := range sensors {
				diffuse := complex(rng.NormFloat64(), rng.NormFloat64()) * 0.1
				internal.Set(steer[d]*s+interf[d]*iv+diffuse, f, d, t)
			}
			if active[t] {
				targetMask.Set(1, t, f)
			} else {
				noiseMask.Set(1, t, f)
			}
		}
	}

	return &scene{
		mix:        internal.Rev(),
		targetMask: targetMask,
		noiseMask:  noiseMask,
		clean:      clean,
		active:     active,
	}
}

// channelSpectrogram extracts one sensor of the mix as (frames, bins).
func channelSpectrogram(mix *tensor.CDense, sensor int) *tensor.CDense {
	frames, bins := mix.Dim(0), mix.Dim(2)
	out := tensor.NewCDense(tensor.Shape{frames, bins}, nil)
	for t := range frames {
		for f := range bins {
			out.Set(mix.At(t, sensor, f), t, f)
		}
	}
	return out
}

// leakRatio is the mean energy in noise-only frames over the mean
// energy in target frames. Smaller means better noise suppression.
func leakRatio(spec *tensor.CDense, active []bool) float64 {
	frames, bins := spec.Dim(0), spec.Dim(1)
	var noiseE, activeE float64
	var noiseN, activeN int
	for t := range frames {
		for f := range bins {
			v := spec.At(t, f)
			e := real(v)*real(v) + imag(v)*imag(v)
			if active[t] {
				activeE += e
				activeN++
			} else {
				noiseE += e
				noiseN++
			}
		}
	}
	return (noiseE / float64(noiseN)) / (activeE / float64(activeN))
}

// meanBinCorrelation correlates output magnitudes against the clean
// target magnitudes per bin and averages over bins. Per-bin correlation
// ignores the arbitrary scaling of each beamforming vector.
func meanBinCorrelation(spec *tensor.CDense, clean *tensor.Dense) float64 {
	frames, bins := spec.Dim(0), spec.Dim(1)
	var sum float64
	for f := range bins {
		xs := make([]float64, frames)
		ys := make([]float64, frames)
		for t := range frames {
			xs[t] = cmplx.Abs(spec.At(t, f))
			ys[t] = clean.At(t, f)
		}
		sum += common.Correlation(xs, ys)
	}
	return sum / float64(bins)
}

func TestPipelineRequiresMask(t *testing.T) {
	s := makeScene(3)
	p := NewPipeline(nil)

	methods := []struct {
		name string
		call func() (*tensor.CDense, error)
	}{
		{"gev", func() (*tensor.CDense, error) { return p.GEV(s.mix, nil, nil) }},
		{"pca", func() (*tensor.CDense, error) { return p.PCA(s.mix, nil, nil) }},
		{"pca_mvdr", func() (*tensor.CDense, error) { return p.PCAMVDR(s.mix, nil, nil) }},
	}
	for _, m := range methods {
		t.Run(m.name, func(t *testing.T) {
			out, err := m.call()
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrNoMask)
		})
	}
}

func TestPipelineOutputShape(t *testing.T) {
	s := makeScene(11)
	p := NewPipeline(nil)
	frames, bins := s.mix.Dim(0), s.mix.Dim(2)
	want := tensor.Shape{frames, bins}

	outGEV, err := p.GEV(s.mix, s.targetMask, s.noiseMask)
	require.NoError(t, err)
	assert.Equal(t, want, outGEV.Shape())

	outPCA, err := p.PCA(s.mix, s.targetMask, nil)
	require.NoError(t, err)
	assert.Equal(t, want, outPCA.Shape())

	outMVDR, err := p.PCAMVDR(s.mix, s.targetMask, s.noiseMask)
	require.NoError(t, err)
	assert.Equal(t, want, outMVDR.Shape())
}

func TestPipelineEnhancesTarget(t *testing.T) {
	s := makeScene(7)
	p := NewPipeline(nil)

	outGEV, err := p.GEV(s.mix, s.targetMask, s.noiseMask)
	require.NoError(t, err)
	outPCA, err := p.PCA(s.mix, s.targetMask, s.noiseMask)
	require.NoError(t, err)
	outMVDR, err := p.PCAMVDR(s.mix, s.targetMask, s.noiseMask)
	require.NoError(t, err)

	// The raw channels leak the always-on interferer into the
	// noise-only frames. The beamformers steer a null onto it.
	chan0 := channelSpectrogram(s.mix, 0)
	chan1 := channelSpectrogram(s.mix, 1)
	baseline := leakRatio(chan0, s.active)
	assert.Less(t, leakRatio(outGEV, s.active), baseline/5)
	assert.Less(t, leakRatio(outMVDR, s.active), baseline/5)

	pcaCorr := meanBinCorrelation(outPCA, s.clean)
	assert.Greater(t, pcaCorr, meanBinCorrelation(chan0, s.clean))
	assert.Greater(t, pcaCorr, meanBinCorrelation(chan1, s.clean))

	assert.Greater(t, meanBinCorrelation(outGEV, s.clean), 0.7)
	assert.Greater(t, meanBinCorrelation(outMVDR, s.clean), 0.7)
	assert.Greater(t, pcaCorr, 0.6)
}

func TestPipelineMasksNotModified(t *testing.T) {
	s := makeScene(5)
	p := NewPipeline(nil)
	targetBefore := append([]float64(nil), s.targetMask.Data()...)
	noiseBefore := append([]float64(nil), s.noiseMask.Data()...)

	_, err := p.GEV(s.mix, s.targetMask, s.noiseMask)
	require.NoError(t, err)
	_, err = p.PCAMVDR(s.mix, s.targetMask, s.noiseMask)
	require.NoError(t, err)
	_, err = p.PCA(s.mix, s.targetMask, s.noiseMask)
	require.NoError(t, err)

	assert.Equal(t, targetBefore, s.targetMask.Data())
	assert.Equal(t, noiseBefore, s.noiseMask.Data())
}

func TestPipelineDerivedMaskMatchesExplicitComplement(t *testing.T) {
	s := makeScene(13)
	p := NewPipeline(nil)

	complement := s.targetMask.Clone()
	data := complement.Data()
	for i, v := range data {
		data[i] = common.Clamp(1-v, 1e-6, 1)
	}

	derived, err := p.GEV(s.mix, s.targetMask, nil)
	require.NoError(t, err)
	explicit, err := p.GEV(s.mix, s.targetMask, complement)
	require.NoError(t, err)

	assert.Equal(t, explicit.Data(), derived.Data())
}

func TestPipelineGEVNormalization(t *testing.T) {
	s := makeScene(17)
	plain, err := NewPipeline(nil).GEV(s.mix, s.targetMask, s.noiseMask)
	require.NoError(t, err)
	normalized, err := NewPipeline(&Config{Normalization: true}).GEV(s.mix, s.targetMask, s.noiseMask)
	require.NoError(t, err)

	assert.NotEqual(t, plain.Data(), normalized.Data())

	// Normalization rescales each bin by a real positive gain, so the
	// ratio between the two outputs is constant over frames within a
	// bin and has no imaginary part.
	bins := plain.Dim(1)
	for f := range bins {
		r0 := normalized.At(2, f) / plain.At(2, f)
		r1 := normalized.At(7, f) / plain.At(7, f)
		assert.InDelta(t, real(r0), real(r1), 1e-9)
		assert.InDelta(t, 0, imag(r0), 1e-9)
		assert.Greater(t, real(r0), 0.0)
	}
}

func TestPipelinePCAMVDRRegularization(t *testing.T) {
	const (
		sensors = 2
		bins    = 4
		frames  = 20
		block   = 5
	)
	rng := rand.New(rand.NewSource(29))

	// Target-only scene with exactly silent noise frames. The noise PSD
	// estimate is the zero matrix, so the plain MVDR solve cannot work
	// and diagonal regularization has to step in.
	internal := tensor.NewCDense(tensor.Shape{bins, sensors, frames}, nil)
	targetMask := tensor.NewDense(tensor.Shape{frames, bins}, nil)
	noiseMask := tensor.NewDense(tensor.Shape{frames, bins}, nil)
	for f := range bins {
		phase := cmplx.Exp(complex(0, -0.5*float64(f)))
		for t := range frames {
			if (t/block)%2 == 0 {
				s := complex(rng.NormFloat64(), rng.NormFloat64())
				internal.Set(s, f, 0, t)
				internal.Set(phase*s, f, 1, t)
				targetMask.Set(1, t, f)
			} else {
				noiseMask.Set(1, t, f)
			}
		}
	}
	mix := internal.Rev()

	_, err := NewPipeline(nil).PCAMVDR(mix, targetMask, noiseMask)
	require.Error(t, err)
	assert.ErrorIs(t, err, linalg.ErrSingular)

	out, err := NewPipeline(&Config{Regularization: 0.1}).PCAMVDR(mix, targetMask, noiseMask)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{frames, bins}, out.Shape())
	for _, v := range out.Data() {
		assert.False(t, cmplx.IsNaN(v))
		assert.False(t, cmplx.IsInf(v))
	}
}

func TestPipelineShapeErrors(t *testing.T) {
	s := makeScene(19)
	p := NewPipeline(nil)

	flat := tensor.NewCDense(tensor.Shape{4, 3}, nil)
	mask := tensor.NewDense(tensor.Shape{4, 3}, nil)
	_, err := p.GEV(flat, mask, nil)
	assert.ErrorIs(t, err, tensor.ErrShape)

	frames, bins := s.mix.Dim(0), s.mix.Dim(2)
	badMask := tensor.NewDense(tensor.Shape{frames + 1, bins}, nil)
	_, err = p.GEV(s.mix, badMask, nil)
	assert.ErrorIs(t, err, tensor.ErrShape)
	_, err = p.PCA(s.mix, badMask, nil)
	assert.ErrorIs(t, err, tensor.ErrShape)
	_, err = p.PCAMVDR(s.mix, badMask, nil)
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Normalization)
	assert.Zero(t, cfg.Regularization)
}
