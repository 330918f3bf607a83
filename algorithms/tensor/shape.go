package tensor

import (
	"errors"
	"fmt"
)

// Package-level errors returned by shape and axis operations
var (
	// ErrShape indicates an invalid or incompatible tensor shape
	ErrShape = errors.New("tensor: invalid shape")
	// ErrAxis indicates an axis index outside the tensor's rank
	ErrAxis = errors.New("tensor: axis out of range")
)

// Shape describes the size of each tensor dimension
type Shape []int

// NumElements returns the total number of elements a tensor of this shape holds
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that every dimension is non-negative
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("dimension %d is %d: %w", i, dim, ErrShape)
		}
	}
	return nil
}

// Equal reports whether two shapes have identical dimensions
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// ComputeStrides returns row-major strides for the shape: the last axis is
// contiguous and each stride is the element count of the trailing axes
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return strides
}
