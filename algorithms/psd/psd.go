// Package psd estimates power spectral density matrices from
// multi-channel time-frequency observations, optionally weighted by
// time-frequency masks.
package psd

import (
	"fmt"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-beam/algorithms/common"
	"github.com/RyanBlaney/sonido-beam/algorithms/tensor"
)

// denominatorFloor keeps the frame-weight normalization finite for
// masks that are zero everywhere along the time axis.
const denominatorFloor = 1e-10

// Options selects which observation axes carry the sensor, source and
// time dimensions. Axes may be negative (counted from the last axis) or
// non-negative (counted from the first).
type Options struct {
	SensorAxis int `json:"sensor_axis"`
	SourceAxis int `json:"source_axis"`
	TimeAxis   int `json:"time_axis"`
}

// DefaultOptions returns the conventional (..., sensors, frames) layout
// with mask sources in the same position as the sensors.
func DefaultOptions() Options {
	return Options{
		SensorAxis: -2,
		SourceAxis: -2,
		TimeAxis:   -1,
	}
}

// Estimate calculates the weighted power spectral density matrix, also
// called the spatial covariance matrix, of a complex observation.
//
// Without a mask the result is the sample covariance over frames with
// shape (..., sensors, sensors). A mask of one rank less than the
// observation weights the frames of every batch entry and keeps the same
// output shape. A mask of the observation's rank carries an independent
// source axis and yields (..., sources, sensors, sensors); when
// opts.SourceAxis addresses an axis in front of the matrix block the
// source axis of the result is moved to that position.
//
// The mask is normalized to unit frame weight before accumulation with
// the denominator floored at 1e-10. The caller's observation and mask
// are never modified.
func Estimate(observation *tensor.CDense, mask *tensor.Dense, opts Options) (*tensor.CDense, error) {
	ndim := observation.NDim()
	if ndim < 2 {
		return nil, fmt.Errorf("psd: observation needs sensor and time axes, got %d dimensions: %w", ndim, tensor.ErrShape)
	}

	sensor, err := tensor.NormalizeAxis(opts.SensorAxis, ndim)
	if err != nil {
		return nil, fmt.Errorf("psd: sensor axis: %w", err)
	}
	timeAxis, err := tensor.NormalizeAxis(opts.TimeAxis, ndim)
	if err != nil {
		return nil, fmt.Errorf("psd: time axis: %w", err)
	}

	// Bring the observation to (..., sensors, frames).
	perm, err := tensor.TrailingAxesPerm(ndim, sensor, timeAxis)
	if err != nil {
		return nil, fmt.Errorf("psd: %w", err)
	}
	obs, err := observation.Transpose(perm...)
	if err != nil {
		return nil, fmt.Errorf("psd: %w", err)
	}

	if mask == nil {
		return unweightedPSD(obs), nil
	}

	switch {
	case mask.NDim()+1 == ndim:
		return weightedPSD(observation, obs, mask, sensor, timeAxis)
	case mask.NDim() == ndim:
		return multiSourcePSD(observation, obs, mask, opts.SourceAxis, timeAxis)
	default:
		return nil, fmt.Errorf("psd: mask rank %d does not fit observation rank %d: %w", mask.NDim(), ndim, tensor.ErrShape)
	}
}

// unweightedPSD accumulates the sample covariance over frames.
func unweightedPSD(obs *tensor.CDense) *tensor.CDense {
	ndim := obs.NDim()
	sensors := obs.Dim(ndim - 2)
	frames := obs.Dim(ndim - 1)
	batch := obs.Len() / (sensors * frames)

	outShape := obs.Shape()
	outShape[ndim-1] = sensors
	out := tensor.NewCDense(outShape, nil)

	od := out.Data()
	xd := obs.Data()
	frameCount := complex(float64(frames), 0)

	common.ParallelFor(batch, func(b int) {
		xBase := b * sensors * frames
		oBase := b * sensors * sensors
		for d := range sensors {
			xRow := xd[xBase+d*frames:]
			for e := 0; e <= d; e++ {
				yRow := xd[xBase+e*frames:]
				var sum complex128
				for t := range frames {
					sum += xRow[t] * cmplx.Conj(yRow[t])
				}
				sum /= frameCount
				od[oBase+d*sensors+e] = sum
				od[oBase+e*sensors+d] = cmplx.Conj(sum)
			}
		}
	})

	return out
}

// weightedPSD handles masks without a source axis: one weight sequence
// per batch entry, output shape (..., sensors, sensors).
func weightedPSD(observation, obs *tensor.CDense, mask *tensor.Dense, sensor, timeAxis int) (*tensor.CDense, error) {
	ndim := observation.NDim()

	expected := observation.Shape()
	expected = append(expected[:ndim+sensor], expected[ndim+sensor+1:]...)
	if !mask.Shape().Equal(expected) {
		return nil, fmt.Errorf("psd: mask shape %v does not match observation shape %v without its sensor axis: %w",
			mask.Shape(), observation.Shape(), tensor.ErrShape)
	}

	// Removing the sensor axis shifts the time axis by one when the
	// sensors come after it.
	maskTime := timeAxis
	if timeAxis < sensor {
		maskTime = timeAxis + 1
	}

	m := mask.Clone()
	normalizeFrames(m, maskTime)

	perm, err := tensor.TrailingAxesPerm(m.NDim(), maskTime)
	if err != nil {
		return nil, fmt.Errorf("psd: %w", err)
	}
	mt, err := m.Transpose(perm...)
	if err != nil {
		return nil, fmt.Errorf("psd: %w", err)
	}

	sensors := obs.Dim(ndim - 2)
	frames := obs.Dim(ndim - 1)
	batch := obs.Len() / (sensors * frames)

	outShape := obs.Shape()
	outShape[ndim-1] = sensors
	out := tensor.NewCDense(outShape, nil)

	od := out.Data()
	xd := obs.Data()
	md := mt.Data()

	common.ParallelFor(batch, func(b int) {
		mRow := md[b*frames:]
		xBase := b * sensors * frames
		oBase := b * sensors * sensors
		for d := range sensors {
			xRow := xd[xBase+d*frames:]
			for e := 0; e <= d; e++ {
				yRow := xd[xBase+e*frames:]
				var sum complex128
				for t := range frames {
					sum += complex(mRow[t], 0) * xRow[t] * cmplx.Conj(yRow[t])
				}
				od[oBase+d*sensors+e] = sum
				od[oBase+e*sensors+d] = cmplx.Conj(sum)
			}
		}
	})

	return out, nil
}

// multiSourcePSD handles masks with an independent source axis, one PSD
// matrix per source: output shape (..., sources, sensors, sensors).
func multiSourcePSD(observation, obs *tensor.CDense, mask *tensor.Dense, sourceAxis, timeAxis int) (*tensor.CDense, error) {
	ndim := observation.NDim()

	source, err := tensor.NormalizeAxis(sourceAxis, ndim)
	if err != nil {
		return nil, fmt.Errorf("psd: source axis: %w", err)
	}

	m := mask.Clone()
	normalizeFrames(m, timeAxis)

	// Bring the mask to (..., sources, frames).
	perm, err := tensor.TrailingAxesPerm(ndim, source, timeAxis)
	if err != nil {
		return nil, fmt.Errorf("psd: %w", err)
	}
	mt, err := m.Transpose(perm...)
	if err != nil {
		return nil, fmt.Errorf("psd: %w", err)
	}

	sensors := obs.Dim(ndim - 2)
	frames := obs.Dim(ndim - 1)
	if mt.Dim(ndim-1) != frames {
		return nil, fmt.Errorf("psd: mask has %d frames, observation has %d: %w", mt.Dim(ndim-1), frames, tensor.ErrShape)
	}
	for i := range ndim - 2 {
		if mt.Dim(i) != obs.Dim(i) {
			return nil, fmt.Errorf("psd: mask shape %v does not match observation shape %v on the batch axes: %w",
				mask.Shape(), observation.Shape(), tensor.ErrShape)
		}
	}
	numSources := mt.Dim(ndim - 2)

	batch := 1
	for i := range ndim - 2 {
		batch *= obs.Dim(i)
	}

	outShape := make(tensor.Shape, 0, ndim+1)
	outShape = append(outShape, obs.Shape()[:ndim-2]...)
	outShape = append(outShape, numSources, sensors, sensors)
	out := tensor.NewCDense(outShape, nil)

	od := out.Data()
	xd := obs.Data()
	md := mt.Data()

	common.ParallelFor(batch*numSources, func(i int) {
		b := i / numSources
		mRow := md[i*frames:]
		xBase := b * sensors * frames
		oBase := i * sensors * sensors
		for d := range sensors {
			xRow := xd[xBase+d*frames:]
			for e := 0; e <= d; e++ {
				yRow := xd[xBase+e*frames:]
				var sum complex128
				for t := range frames {
					sum += complex(mRow[t], 0) * xRow[t] * cmplx.Conj(yRow[t])
				}
				od[oBase+d*sensors+e] = sum
				od[oBase+e*sensors+d] = cmplx.Conj(sum)
			}
		}
	})

	if source < -2 {
		moved, err := out.MoveAxis(out.NDim()-3, ndim+source)
		if err != nil {
			return nil, fmt.Errorf("psd: %w", err)
		}
		return moved, nil
	}
	return out, nil
}

// normalizeFrames scales the mask in place so its weights along the
// given axis sum to one, flooring the denominator at denominatorFloor.
// The axis index is canonical negative.
func normalizeFrames(m *tensor.Dense, axis int) {
	ndim := m.NDim()
	p := ndim + axis
	shape := m.Shape()

	length := shape[p]
	post := 1
	for i := p + 1; i < ndim; i++ {
		post *= shape[i]
	}
	pre := m.Len() / (length * post)

	data := m.Data()
	for a := range pre {
		base := a * length * post
		for b := range post {
			sum := 0.0
			for l := range length {
				sum += data[base+l*post+b]
			}
			if sum < denominatorFloor {
				sum = denominatorFloor
			}
			for l := range length {
				data[base+l*post+b] /= sum
			}
		}
	}
}
