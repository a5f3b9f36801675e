package numeric

import (
	"fmt"
	"reflect"
	"slices"
)

// Elem is the set of element types an array can hold.
type Elem interface {
	Number | ~bool
}

// Number is the set of numeric element types.
type Number interface {
	~float64 | ~float32 |
		~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~complex128 | ~complex64
}

// Array is an N-dimensional array whose elements can be read and written
// through reflection. *Dense implements it.
type Array interface {
	Kind() Kind
	Dims() []int
	// Elems returns the backing slice in row-major order.
	Elems() any
	// Resize sets the dimensions and reallocates zeroed storage.
	Resize(dims []int)
}

// Dense is an N-dimensional array stored in row-major order: the last
// index varies fastest.
type Dense[T Elem] struct {
	Shape []int
	Data  []T
}

func NewDense[T Elem](shape ...int) *Dense[T] {
	d := &Dense[T]{}
	d.Resize(shape)
	return d
}

func (d *Dense[T]) Kind() Kind {
	k, _ := KindOfType(reflect.TypeFor[T]())
	return k
}

func (d *Dense[T]) Dims() []int { return slices.Clone(d.Shape) }
func (d *Dense[T]) Elems() any  { return d.Data }
func (d *Dense[T]) Len() int    { return len(d.Data) }

func (d *Dense[T]) Resize(dims []int) {
	d.Shape = slices.Clone(dims)
	d.Data = make([]T, Count(dims))
}

func (d *Dense[T]) offset(idx []int) int {
	if len(idx) != len(d.Shape) {
		panic(fmt.Sprintf("numeric: %d indices for %d dimensions", len(idx), len(d.Shape)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= d.Shape[i] {
			panic(fmt.Sprintf("numeric: index %d out of range [0,%d)", x, d.Shape[i]))
		}
		off = off*d.Shape[i] + x
	}
	return off
}

func (d *Dense[T]) At(idx ...int) T {
	return d.Data[d.offset(idx)]
}

func (d *Dense[T]) Set(v T, idx ...int) {
	d.Data[d.offset(idx)] = v
}

// Count is the number of elements of an array with the given dimensions.
func Count(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// NewArray allocates a *Dense of the canonical Go type for k.
func NewArray(k Kind, dims []int) (Array, error) {
	var a Array
	switch k {
	case Double:
		a = &Dense[float64]{}
	case Single:
		a = &Dense[float32]{}
	case Int8:
		a = &Dense[int8]{}
	case Int16:
		a = &Dense[int16]{}
	case Int32:
		a = &Dense[int32]{}
	case Int64:
		a = &Dense[int64]{}
	case Uint8:
		a = &Dense[uint8]{}
	case Uint16:
		a = &Dense[uint16]{}
	case Uint32:
		a = &Dense[uint32]{}
	case Uint64:
		a = &Dense[uint64]{}
	case CDouble:
		a = &Dense[complex128]{}
	case CSingle:
		a = &Dense[complex64]{}
	case Logical:
		a = &Dense[bool]{}
	default:
		return nil, fmt.Errorf("numeric: no array for %s", k)
	}
	a.Resize(dims)
	return a, nil
}

// ColumnMajor returns the permutation between the column-major (first
// index fastest) order used on the wire and row-major storage: position c
// in column-major order is row-major offset perm[c].
func ColumnMajor(dims []int) []int {
	n := Count(dims)
	perm := make([]int, n)
	if len(dims) < 2 {
		for i := range perm {
			perm[i] = i
		}
		return perm
	}
	idx := make([]int, len(dims))
	for c := range n {
		off := 0
		for i, x := range idx {
			off = off*dims[i] + x
		}
		perm[c] = off
		for i := range idx {
			idx[i]++
			if idx[i] < dims[i] {
				break
			}
			idx[i] = 0
		}
	}
	return perm
}
