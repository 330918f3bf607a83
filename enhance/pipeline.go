// Package enhance composes mask-based speech enhancement pipelines from
// the PSD estimator and the beamforming vector solvers.
//
// The caller-facing layout follows spectrogram convention: the mix is
// (frames, sensors, bins) and masks are (frames, bins). Internally all
// computation runs on the reversed layout (bins, sensors, frames), and
// the enhanced output is returned as (frames, bins).
package enhance

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-beam/algorithms/beamform"
	"github.com/RyanBlaney/sonido-beam/algorithms/common"
	"github.com/RyanBlaney/sonido-beam/algorithms/psd"
	"github.com/RyanBlaney/sonido-beam/algorithms/tensor"
	"github.com/RyanBlaney/sonido-beam/logging"
)

// ErrNoMask is returned when a pipeline method is called without a
// target or a noise mask.
var ErrNoMask = errors.New("enhance: at least one mask needs to be present")

// maskFloor bounds masks derived as the complement of a given one away
// from zero, so a silent bin never collapses a PSD estimate.
const maskFloor = 1e-6

// Pipeline runs mask-based beamforming over multi-channel
// time-frequency observations.
type Pipeline struct {
	config *Config
	logger logging.Logger
}

// NewPipeline creates a pipeline. A nil config selects the defaults.
func NewPipeline(config *Config) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pipeline{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "enhance_pipeline",
		}),
	}
}

// GEV enhances the mix with a generalized eigenvector beamformer. The
// missing mask, if any, is derived as the clipped complement of the
// given one. When the config enables normalization, the beamforming
// vector is rescaled by blind analytic normalization before use.
func (p *Pipeline) GEV(mix *tensor.CDense, targetMask, noiseMask *tensor.Dense) (*tensor.CDense, error) {
	logger := p.logger.WithFields(logging.Fields{
		"function":  "GEV",
		"mix_shape": mix.Shape(),
	})
	logger.Debug("Running GEV beamforming pipeline...")

	targetMask, noiseMask, err := completeMaskPair(targetMask, noiseMask)
	if err != nil {
		logger.Error(err, "Mask validation failed")
		return nil, err
	}
	if err := checkMixLayout(mix); err != nil {
		logger.Error(err, "Mix validation failed")
		return nil, err
	}

	internalMix := mix.Rev()
	targetPSD, err := psd.Estimate(internalMix, targetMask.Rev(), psd.DefaultOptions())
	if err != nil {
		logger.Error(err, "Target PSD estimation failed")
		return nil, fmt.Errorf("gev pipeline: target psd: %w", err)
	}
	noisePSD, err := psd.Estimate(internalMix, noiseMask.Rev(), psd.DefaultOptions())
	if err != nil {
		logger.Error(err, "Noise PSD estimation failed")
		return nil, fmt.Errorf("gev pipeline: noise psd: %w", err)
	}

	vector, err := beamform.GEVVector(targetPSD, noisePSD)
	if err != nil {
		logger.Error(err, "GEV vector computation failed")
		return nil, fmt.Errorf("gev pipeline: %w", err)
	}
	if p.config.Normalization {
		vector, err = beamform.BlindAnalyticNormalization(vector, noisePSD)
		if err != nil {
			logger.Error(err, "Blind analytic normalization failed")
			return nil, fmt.Errorf("gev pipeline: normalization: %w", err)
		}
	}

	output, err := beamform.ApplyVector(vector, internalMix)
	if err != nil {
		logger.Error(err, "Beamforming vector application failed")
		return nil, fmt.Errorf("gev pipeline: %w", err)
	}

	enhanced := output.Rev()
	logger.Debug("GEV beamforming pipeline complete", logging.Fields{
		"output_shape": enhanced.Shape(),
	})
	return enhanced, nil
}

// PCA enhances the mix with a principal component beamformer. Only the
// target mask feeds the PSD estimate; when it is absent it is derived
// as the clipped complement of the noise mask.
func (p *Pipeline) PCA(mix *tensor.CDense, targetMask, noiseMask *tensor.Dense) (*tensor.CDense, error) {
	logger := p.logger.WithFields(logging.Fields{
		"function":  "PCA",
		"mix_shape": mix.Shape(),
	})
	logger.Debug("Running PCA beamforming pipeline...")

	if targetMask == nil && noiseMask == nil {
		logger.Error(ErrNoMask, "Mask validation failed")
		return nil, ErrNoMask
	}
	if targetMask == nil {
		targetMask = complementMask(noiseMask)
	}
	if err := checkMixLayout(mix); err != nil {
		logger.Error(err, "Mix validation failed")
		return nil, err
	}

	internalMix := mix.Rev()
	targetPSD, err := psd.Estimate(internalMix, targetMask.Rev(), psd.DefaultOptions())
	if err != nil {
		logger.Error(err, "Target PSD estimation failed")
		return nil, fmt.Errorf("pca pipeline: target psd: %w", err)
	}

	vector, err := beamform.PCAVector(targetPSD)
	if err != nil {
		logger.Error(err, "PCA vector computation failed")
		return nil, fmt.Errorf("pca pipeline: %w", err)
	}

	output, err := beamform.ApplyVector(vector, internalMix)
	if err != nil {
		logger.Error(err, "Beamforming vector application failed")
		return nil, fmt.Errorf("pca pipeline: %w", err)
	}

	enhanced := output.Rev()
	logger.Debug("PCA beamforming pipeline complete", logging.Fields{
		"output_shape": enhanced.Shape(),
	})
	return enhanced, nil
}

// PCAMVDR enhances the mix with an MVDR beamformer steered by the
// principal component of the target PSD. The missing mask, if any, is
// derived as the clipped complement of the given one. A positive
// Regularization in the config is added to the noise PSD diagonal
// before the solve.
func (p *Pipeline) PCAMVDR(mix *tensor.CDense, targetMask, noiseMask *tensor.Dense) (*tensor.CDense, error) {
	logger := p.logger.WithFields(logging.Fields{
		"function":  "PCAMVDR",
		"mix_shape": mix.Shape(),
	})
	logger.Debug("Running PCA-MVDR beamforming pipeline...")

	targetMask, noiseMask, err := completeMaskPair(targetMask, noiseMask)
	if err != nil {
		logger.Error(err, "Mask validation failed")
		return nil, err
	}
	if err := checkMixLayout(mix); err != nil {
		logger.Error(err, "Mix validation failed")
		return nil, err
	}

	internalMix := mix.Rev()
	targetPSD, err := psd.Estimate(internalMix, targetMask.Rev(), psd.DefaultOptions())
	if err != nil {
		logger.Error(err, "Target PSD estimation failed")
		return nil, fmt.Errorf("pca-mvdr pipeline: target psd: %w", err)
	}
	noisePSD, err := psd.Estimate(internalMix, noiseMask.Rev(), psd.DefaultOptions())
	if err != nil {
		logger.Error(err, "Noise PSD estimation failed")
		return nil, fmt.Errorf("pca-mvdr pipeline: noise psd: %w", err)
	}
	if p.config.Regularization > 0 {
		regularizeDiagonal(noisePSD, p.config.Regularization)
	}

	atf, err := beamform.PCAVector(targetPSD)
	if err != nil {
		logger.Error(err, "PCA steering vector computation failed")
		return nil, fmt.Errorf("pca-mvdr pipeline: %w", err)
	}
	vector, err := beamform.MVDRVector(atf, noisePSD)
	if err != nil {
		logger.Error(err, "MVDR vector computation failed")
		return nil, fmt.Errorf("pca-mvdr pipeline: %w", err)
	}

	output, err := beamform.ApplyVector(vector, internalMix)
	if err != nil {
		logger.Error(err, "Beamforming vector application failed")
		return nil, fmt.Errorf("pca-mvdr pipeline: %w", err)
	}

	enhanced := output.Rev()
	logger.Debug("PCA-MVDR beamforming pipeline complete", logging.Fields{
		"output_shape": enhanced.Shape(),
	})
	return enhanced, nil
}

// checkMixLayout rejects observations that are not (frames, sensors, bins).
func checkMixLayout(mix *tensor.CDense) error {
	if mix.NDim() != 3 {
		return fmt.Errorf("enhance: mix must be (frames, sensors, bins), got %v: %w",
			mix.Shape(), tensor.ErrShape)
	}
	return nil
}

// completeMaskPair fills in whichever mask is missing as the clipped
// complement of the other. Given masks pass through untouched.
func completeMaskPair(targetMask, noiseMask *tensor.Dense) (*tensor.Dense, *tensor.Dense, error) {
	if targetMask == nil && noiseMask == nil {
		return nil, nil, ErrNoMask
	}
	if targetMask == nil {
		targetMask = complementMask(noiseMask)
	}
	if noiseMask == nil {
		noiseMask = complementMask(targetMask)
	}
	return targetMask, noiseMask, nil
}

// complementMask returns clip(1-mask, maskFloor, 1) as a fresh tensor.
func complementMask(mask *tensor.Dense) *tensor.Dense {
	out := mask.Clone()
	data := out.Data()
	for i, v := range data {
		data[i] = common.Clamp(1-v, maskFloor, 1)
	}
	return out
}

// regularizeDiagonal adds r to every diagonal entry of each bin matrix
// of a (bins, sensors, sensors) PSD batch in place.
func regularizeDiagonal(psdBatch *tensor.CDense, r float64) {
	bins := psdBatch.Dim(0)
	sensors := psdBatch.Dim(1)
	data := psdBatch.Data()
	for f := range bins {
		base := f * sensors * sensors
		for d := range sensors {
			data[base+d*sensors+d] += complex(r, 0)
		}
	}
}
