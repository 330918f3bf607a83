package tensor

import "fmt"

// CDense is a complex-valued tensor with row-major storage. Observations,
// covariance matrices, transfer functions, beamforming vectors and
// beamformed outputs are all CDense values.
type CDense struct {
	shape   Shape
	strides []int
	data    []complex128
}

// NewCDense creates a tensor of the given shape backed by data. A nil data
// slice allocates zeroed storage; otherwise the slice is used directly and
// its length must match the shape.
func NewCDense(shape Shape, data []complex128) *CDense {
	if err := shape.Validate(); err != nil {
		panic(err.Error())
	}
	n := shape.NumElements()
	if data == nil {
		data = make([]complex128, n)
	} else if len(data) != n {
		panic(fmt.Sprintf("tensor: data length %d does not match shape %v", len(data), shape))
	}
	return &CDense{shape: shape.Clone(), strides: shape.ComputeStrides(), data: data}
}

// Shape returns a copy of the tensor's shape
func (t *CDense) Shape() Shape { return t.shape.Clone() }

// NDim returns the number of axes
func (t *CDense) NDim() int { return len(t.shape) }

// Dim returns the size of axis i
func (t *CDense) Dim(i int) int { return t.shape[i] }

// Len returns the total element count
func (t *CDense) Len() int { return len(t.data) }

// Data returns the backing slice in row-major order. The slice is shared
// with the tensor, not copied.
func (t *CDense) Data() []complex128 { return t.data }

// Strides returns a copy of the row-major strides
func (t *CDense) Strides() []int {
	out := make([]int, len(t.strides))
	copy(out, t.strides)
	return out
}

func (t *CDense) offset(idx []int) int {
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
func (t *CDense) At(idx ...int) complex128 { return t.data[t.offset(idx)] }

// Set stores v at the given multi-index
func (t *CDense) Set(v complex128, idx ...int) { t.data[t.offset(idx)] = v }

// Clone returns a deep copy
func (t *CDense) Clone() *CDense {
	data := make([]complex128, len(t.data))
	copy(data, t.data)
	return NewCDense(t.shape, data)
}

// Conj returns a new tensor with every element conjugated
func (t *CDense) Conj() *CDense {
	out := NewCDense(t.shape, nil)
	for i, v := range t.data {
		out.data[i] = complex(real(v), -imag(v))
	}
	return out
}

// Reshape returns a tensor of the new shape sharing this tensor's backing
// data. The element count must be unchanged.
func (t *CDense) Reshape(shape Shape) (*CDense, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(t.data) {
		return nil, fmt.Errorf("cannot reshape %v to %v: %w", t.shape, shape, ErrShape)
	}
	return NewCDense(shape, t.data), nil
}

// Transpose returns a new tensor with axes reordered by perm, which may use
// negative axis indices. The result owns fresh storage.
func (t *CDense) Transpose(perm ...int) (*CDense, error) {
	p, err := normalizePerm(perm, len(t.shape))
	if err != nil {
		return nil, err
	}
	outShape, srcStrides := permuteIndexSetup(t.shape, t.strides, p)
	out := NewCDense(outShape, nil)
	odo := newOdometer(outShape, srcStrides)
	for i := range out.data {
		out.data[i] = t.data[odo.offset]
		odo.next()
	}
	return out, nil
}

// MoveAxis returns a new tensor with axis from moved to position to, other
// axes keeping their relative order.
func (t *CDense) MoveAxis(from, to int) (*CDense, error) {
	perm, err := moveAxisPerm(len(t.shape), from, to)
	if err != nil {
		return nil, err
	}
	return t.Transpose(perm...)
}

// Rev returns a new tensor with all axes reversed, the boundary transpose
// between caller-facing (frames, ...) layout and internal (..., frames)
// layout.
func (t *CDense) Rev() *CDense {
	out, err := t.Transpose(reversePerm(len(t.shape))...)
	if err != nil {
		panic(err.Error())
	}
	return out
}
