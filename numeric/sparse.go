package numeric

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
)

// SparseArray is a two-dimensional array holding only its non-zero
// entries. *Sparse implements it.
type SparseArray interface {
	Kind() Kind
	Dims() []int
	// Elems returns the stored values, ordered by column then row.
	Elems() any
	Coords() (rows, cols []int)
	// Init replaces the contents with zeroed values at the given
	// coordinates.
	Init(rows, cols int, ri, ci []int)
}

// Sparse stores (row, col, value) triplets sorted by column then row.
type Sparse[T Number] struct {
	Rows, Cols int
	RowIdx     []int
	ColIdx     []int
	Vals       []T
}

func NewSparse[T Number](rows, cols int) *Sparse[T] {
	return &Sparse[T]{Rows: rows, Cols: cols}
}

func (s *Sparse[T]) Kind() Kind {
	k, _ := KindOfType(reflect.TypeFor[T]())
	return k
}

func (s *Sparse[T]) Dims() []int { return []int{s.Rows, s.Cols} }
func (s *Sparse[T]) Elems() any  { return s.Vals }
func (s *Sparse[T]) NNZ() int    { return len(s.Vals) }

func (s *Sparse[T]) Coords() (rows, cols []int) {
	return s.RowIdx, s.ColIdx
}

func (s *Sparse[T]) Init(rows, cols int, ri, ci []int) {
	s.Rows, s.Cols = rows, cols
	s.RowIdx = slices.Clone(ri)
	s.ColIdx = slices.Clone(ci)
	s.Vals = make([]T, len(ri))
}

func (s *Sparse[T]) find(i, j int) (int, bool) {
	lo, hi := 0, len(s.Vals)
	for lo < hi {
		m := (lo + hi) / 2
		c := cmp.Or(cmp.Compare(s.ColIdx[m], j), cmp.Compare(s.RowIdx[m], i))
		switch {
		case c == 0:
			return m, true
		case c < 0:
			lo = m + 1
		default:
			hi = m
		}
	}
	return lo, false
}

// At returns the value at (i, j), zero if none is stored.
func (s *Sparse[T]) At(i, j int) T {
	s.check(i, j)
	if k, ok := s.find(i, j); ok {
		return s.Vals[k]
	}
	var zero T
	return zero
}

// Set stores v at (i, j). Setting zero removes the entry.
func (s *Sparse[T]) Set(i, j int, v T) {
	s.check(i, j)
	k, ok := s.find(i, j)
	var zero T
	switch {
	case ok && v == zero:
		s.RowIdx = slices.Delete(s.RowIdx, k, k+1)
		s.ColIdx = slices.Delete(s.ColIdx, k, k+1)
		s.Vals = slices.Delete(s.Vals, k, k+1)
	case ok:
		s.Vals[k] = v
	case v != zero:
		s.RowIdx = slices.Insert(s.RowIdx, k, i)
		s.ColIdx = slices.Insert(s.ColIdx, k, j)
		s.Vals = slices.Insert(s.Vals, k, v)
	}
}

func (s *Sparse[T]) check(i, j int) {
	if i < 0 || i >= s.Rows || j < 0 || j >= s.Cols {
		panic(fmt.Sprintf("numeric: (%d,%d) out of range %dx%d", i, j, s.Rows, s.Cols))
	}
}

// Dense scatters the stored entries into a new row-major array.
func (s *Sparse[T]) Dense() *Dense[T] {
	d := NewDense[T](s.Rows, s.Cols)
	for k, v := range s.Vals {
		d.Data[s.RowIdx[k]*s.Cols+s.ColIdx[k]] = v
	}
	return d
}

// NewSparseArray allocates a *Sparse of the canonical Go type for k.
func NewSparseArray(k Kind) (SparseArray, error) {
	switch k {
	case Double:
		return &Sparse[float64]{}, nil
	case Single:
		return &Sparse[float32]{}, nil
	case Int8:
		return &Sparse[int8]{}, nil
	case Int16:
		return &Sparse[int16]{}, nil
	case Int32:
		return &Sparse[int32]{}, nil
	case Int64:
		return &Sparse[int64]{}, nil
	case Uint8:
		return &Sparse[uint8]{}, nil
	case Uint16:
		return &Sparse[uint16]{}, nil
	case Uint32:
		return &Sparse[uint32]{}, nil
	case Uint64:
		return &Sparse[uint64]{}, nil
	case CDouble:
		return &Sparse[complex128]{}, nil
	case CSingle:
		return &Sparse[complex64]{}, nil
	}
	return nil, fmt.Errorf("numeric: no sparse array for %s", k)
}

// Scatter assigns the entries of s into d, which is resized to the
// dimensions of s. Element kinds must match.
func Scatter(s SparseArray, d Array) error {
	if s.Kind() != d.Kind() {
		return fmt.Errorf("numeric: scatter %s into %s", s.Kind(), d.Kind())
	}
	dims := s.Dims()
	d.Resize(dims)
	dst := reflect.ValueOf(d.Elems())
	src := reflect.ValueOf(s.Elems())
	rows, cols := s.Coords()
	for k := range src.Len() {
		dst.Index(rows[k]*dims[1] + cols[k]).Set(src.Index(k).Convert(dst.Type().Elem()))
	}
	return nil
}
