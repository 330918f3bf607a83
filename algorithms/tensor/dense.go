package tensor

import "fmt"

// Dense is a real-valued tensor with row-major storage. It is the mask and
// weight carrier: shapes follow the observation's non-sensor axes.
type Dense struct {
	shape   Shape
	strides []int
	data    []float64
}

// NewDense creates a tensor of the given shape backed by data. A nil data
// slice allocates zeroed storage; otherwise the slice is used directly and
// its length must match the shape. Invalid construction panics, mirroring
// gonum's constructors: shape errors at build time are programmer errors.
func NewDense(shape Shape, data []float64) *Dense {
	if err := shape.Validate(); err != nil {
		panic(err.Error())
	}
	n := shape.NumElements()
	if data == nil {
		data = make([]float64, n)
	} else if len(data) != n {
		panic(fmt.Sprintf("tensor: data length %d does not match shape %v", len(data), shape))
	}
	return &Dense{shape: shape.Clone(), strides: shape.ComputeStrides(), data: data}
}

// NewDenseFromBools creates a {0, 1}-valued tensor from boolean values,
// the coercion applied to boolean masks before weighting.
func NewDenseFromBools(shape Shape, vals []bool) *Dense {
	t := NewDense(shape, nil)
	if len(vals) != len(t.data) {
		panic(fmt.Sprintf("tensor: bool length %d does not match shape %v", len(vals), shape))
	}
	for i, v := range vals {
		if v {
			t.data[i] = 1
		}
	}
	return t
}

// Shape returns a copy of the tensor's shape
func (t *Dense) Shape() Shape { return t.shape.Clone() }

// NDim returns the number of axes
func (t *Dense) NDim() int { return len(t.shape) }

// Dim returns the size of axis i
func (t *Dense) Dim(i int) int { return t.shape[i] }

// Len returns the total element count
func (t *Dense) Len() int { return len(t.data) }

// Data returns the backing slice in row-major order. The slice is shared
// with the tensor, not copied.
func (t *Dense) Data() []float64 { return t.data }

// Strides returns a copy of the row-major strides
func (t *Dense) Strides() []int {
	out := make([]int, len(t.strides))
	copy(out, t.strides)
	return out
}

func (t *Dense) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank %d", len(idx), len(t.shape)))
	}
	off := 0
	for ax, i := range idx {
		if i < 0 || i >= t.shape[ax] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d with size %d", i, ax, t.shape[ax]))
		}
		off += i * t.strides[ax]
	}
	return off
}

// At returns the element at the given multi-index
func (t *Dense) At(idx ...int) float64 { return t.data[t.offset(idx)] }

// Set stores v at the given multi-index
func (t *Dense) Set(v float64, idx ...int) { t.data[t.offset(idx)] = v }

// Clone returns a deep copy
func (t *Dense) Clone() *Dense {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return NewDense(t.shape, data)
}

// Reshape returns a tensor of the new shape sharing this tensor's backing
// data. The element count must be unchanged.
func (t *Dense) Reshape(shape Shape) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(t.data) {
		return nil, fmt.Errorf("cannot reshape %v to %v: %w", t.shape, shape, ErrShape)
	}
	return NewDense(shape, t.data), nil
}

// Transpose returns a new tensor with axes reordered by perm, which may use
// negative axis indices. The result owns fresh storage.
func (t *Dense) Transpose(perm ...int) (*Dense, error) {
	p, err := normalizePerm(perm, len(t.shape))
	if err != nil {
		return nil, err
	}
	outShape, srcStrides := permuteIndexSetup(t.shape, t.strides, p)
	out := NewDense(outShape, nil)
	odo := newOdometer(outShape, srcStrides)
	for i := range out.data {
		out.data[i] = t.data[odo.offset]
		odo.next()
	}
	return out, nil
}

// MoveAxis returns a new tensor with axis from moved to position to, other
// axes keeping their relative order.
func (t *Dense) MoveAxis(from, to int) (*Dense, error) {
	perm, err := moveAxisPerm(len(t.shape), from, to)
	if err != nil {
		return nil, err
	}
	return t.Transpose(perm...)
}

// Rev returns a new tensor with all axes reversed, the boundary transpose
// between caller-facing (frames, ...) layout and internal (..., frames)
// layout.
func (t *Dense) Rev() *Dense {
	out, err := t.Transpose(reversePerm(len(t.shape))...)
	if err != nil {
		panic(err.Error())
	}
	return out
}
