package tensor

import "fmt"

// NormalizeAxis converts an axis index that may be positive or negative into
// its canonical negative form, so that -1 always names the last axis of a
// tensor with ndim dimensions. The result lies in [-ndim, -1].
func NormalizeAxis(axis, ndim int) (int, error) {
	if axis < -ndim || axis >= ndim {
		return 0, fmt.Errorf("axis %d for rank %d: %w", axis, ndim, ErrAxis)
	}
	if axis >= 0 {
		return axis - ndim, nil
	}
	return axis, nil
}

// positiveAxis converts an axis index that may be negative into the
// equivalent non-negative index for a tensor with ndim dimensions.
func positiveAxis(axis, ndim int) (int, error) {
	if axis < -ndim || axis >= ndim {
		return 0, fmt.Errorf("axis %d for rank %d: %w", axis, ndim, ErrAxis)
	}
	if axis < 0 {
		return axis + ndim, nil
	}
	return axis, nil
}

// TrailingAxesPerm builds the permutation that moves the given canonical
// negative axes to the final positions, in the given order, while keeping
// every other axis in its original relative order. This is the shared
// axis-reordering step used before covariance accumulation: the sensor and
// time axes (or source and time axes for a mask) are sent to the end so the
// contraction runs over contiguous trailing data.
func TrailingAxesPerm(ndim int, last ...int) ([]int, error) {
	for _, ax := range last {
		if ax < -ndim || ax > -1 {
			return nil, fmt.Errorf("axis %d for rank %d: %w", ax, ndim, ErrAxis)
		}
	}
	perm := make([]int, 0, ndim)
	for ax := -ndim; ax < 0; ax++ {
		skip := false
		for _, l := range last {
			if ax == l {
				skip = true
				break
			}
		}
		if !skip {
			perm = append(perm, ax)
		}
	}
	perm = append(perm, last...)
	if len(perm) != ndim {
		return nil, fmt.Errorf("axes %v are not distinct: %w", last, ErrAxis)
	}
	return perm, nil
}

// normalizePerm validates a full axis permutation, which may mix positive and
// negative indices, and returns it in non-negative form.
func normalizePerm(perm []int, ndim int) ([]int, error) {
	if len(perm) != ndim {
		return nil, fmt.Errorf("permutation length %d for rank %d: %w", len(perm), ndim, ErrAxis)
	}
	out := make([]int, ndim)
	seen := make([]bool, ndim)
	for i, ax := range perm {
		p, err := positiveAxis(ax, ndim)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			return nil, fmt.Errorf("axis %d repeated in permutation: %w", ax, ErrAxis)
		}
		seen[p] = true
		out[i] = p
	}
	return out, nil
}

// moveAxisPerm builds the permutation realizing a move of axis from to
// position to, with every other axis keeping its relative order.
func moveAxisPerm(ndim, from, to int) ([]int, error) {
	f, err := positiveAxis(from, ndim)
	if err != nil {
		return nil, err
	}
	t, err := positiveAxis(to, ndim)
	if err != nil {
		return nil, err
	}
	rest := make([]int, 0, ndim)
	for i := 0; i < ndim; i++ {
		if i != f {
			rest = append(rest, i)
		}
	}
	perm := make([]int, 0, ndim)
	perm = append(perm, rest[:t]...)
	perm = append(perm, f)
	perm = append(perm, rest[t:]...)
	return perm, nil
}

// reversePerm returns the permutation that reverses all axes.
func reversePerm(ndim int) []int {
	perm := make([]int, ndim)
	for i := range perm {
		perm[i] = ndim - 1 - i
	}
	return perm
}

// permuteIndexSetup precomputes the output shape and the source strides,
// reordered to output-axis order, for a materializing transpose. Walking the
// output in row-major order with an odometer counter and advancing a source
// offset by these strides visits the source elements in transposed order.
func permuteIndexSetup(shape Shape, strides, perm []int) (Shape, []int) {
	outShape := make(Shape, len(perm))
	srcStrides := make([]int, len(perm))
	for i, ax := range perm {
		outShape[i] = shape[ax]
		srcStrides[i] = strides[ax]
	}
	return outShape, srcStrides
}

// odometer iterates multi-indices of shape in row-major order while tracking
// the corresponding offset into a source buffer laid out with the given
// strides. Calling next advances to the following index.
type odometer struct {
	shape   Shape
	strides []int
	index   []int
	offset  int
}

func newOdometer(shape Shape, strides []int) *odometer {
	return &odometer{
		shape:   shape,
		strides: strides,
		index:   make([]int, len(shape)),
	}
}

func (o *odometer) next() {
	for ax := len(o.shape) - 1; ax >= 0; ax-- {
		o.index[ax]++
		o.offset += o.strides[ax]
		if o.index[ax] < o.shape[ax] {
			return
		}
		o.index[ax] = 0
		o.offset -= o.shape[ax] * o.strides[ax]
	}
}
