package gomap

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"reflect"

	"github.com/signadot/objgraph/ir"
	"github.com/signadot/objgraph/numeric"
)

// Array encoding thresholds. Each applies to arrays strictly longer than
// the given length.
const (
	ConstantMinLen    = 10
	RangeMinLenDouble = 20
	RangeMinLenOther  = 10
	Base64MinLen      = 50
)

// elems is an array's elements in wire order, widened to one slice per
// element category.
type elems struct {
	kind numeric.Kind
	dims []int
	f    []float64
	i    []int64
	u    []uint64
	c    []complex128
	b    []bool
}

func (el *elems) len() int {
	switch {
	case el.kind.IsFloat():
		return len(el.f)
	case el.kind.IsSigned():
		return len(el.i)
	case el.kind.IsUnsigned():
		return len(el.u)
	case el.kind.IsComplex():
		return len(el.c)
	}
	return len(el.b)
}

// collect reads n elements of v; element c on the wire is v.Index(perm[c])
// when perm is not nil.
func collect(k numeric.Kind, dims []int, v reflect.Value, perm []int) *elems {
	el := &elems{kind: k, dims: dims}
	n := v.Len()
	at := func(c int) reflect.Value {
		if perm != nil {
			return v.Index(perm[c])
		}
		return v.Index(c)
	}
	switch {
	case k.IsFloat():
		el.f = make([]float64, n)
		for c := range n {
			el.f[c] = at(c).Float()
		}
	case k.IsSigned():
		el.i = make([]int64, n)
		for c := range n {
			el.i[c] = at(c).Int()
		}
	case k.IsUnsigned():
		el.u = make([]uint64, n)
		for c := range n {
			el.u[c] = at(c).Uint()
		}
	case k.IsComplex():
		el.c = make([]complex128, n)
		for c := range n {
			el.c[c] = at(c).Complex()
		}
	default:
		el.b = make([]bool, n)
		for c := range n {
			el.b[c] = at(c).Bool()
		}
	}
	return el
}

// chooseEncoding picks the encoding of a dense array. It depends only on
// the elements, their kind and dims, and whether base64 is allowed.
func chooseEncoding(el *elems, allowBase64 bool) ir.Encoding {
	n := el.len()
	k := el.kind
	if k == numeric.Logical {
		if n > ConstantMinLen && allEqual(el.b) {
			return ir.Constant
		}
		return ir.Plain
	}
	if n > ConstantMinLen && isConstant(el) {
		return ir.Constant
	}
	if k.IsComplex() || (k.IsFloat() && !allFinite(el.f)) {
		return ir.Textual
	}
	if len(el.dims) == 1 && isRange(el) {
		return ir.Range
	}
	if allowBase64 && n > Base64MinLen {
		return ir.Base64
	}
	return ir.Plain
}

func allEqual[T comparable](xs []T) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

func allFinite(fs []float64) bool {
	for _, f := range fs {
		if !numeric.IsFinite(f) {
			return false
		}
	}
	return true
}

// isConstant reports bit-identical finite real elements, or all NaN.
func isConstant(el *elems) bool {
	switch {
	case el.kind.IsFloat():
		if math.IsNaN(el.f[0]) {
			for _, f := range el.f {
				if !math.IsNaN(f) {
					return false
				}
			}
			return true
		}
		if !numeric.IsFinite(el.f[0]) {
			return false
		}
		b0 := math.Float64bits(el.f[0])
		for _, f := range el.f[1:] {
			if math.Float64bits(f) != b0 {
				return false
			}
		}
		return true
	case el.kind.IsSigned():
		return allEqual(el.i)
	case el.kind.IsUnsigned():
		return allEqual(el.u)
	}
	return false
}

// isRange reports a vector with one successive difference that
// regenerates every element exactly.
func isRange(el *elems) bool {
	n := el.len()
	switch {
	case el.kind == numeric.Double:
		if n <= RangeMinLenDouble {
			return false
		}
		step := el.f[1] - el.f[0]
		for i := 1; i < n; i++ {
			if math.Float64bits(el.f[i]-el.f[i-1]) != math.Float64bits(step) {
				return false
			}
		}
		for i, f := range el.f {
			if math.Float64bits(rangeDouble(el.f[0], step, i)) != math.Float64bits(f) {
				return false
			}
		}
		return true
	case el.kind == numeric.Single:
		if n <= RangeMinLenOther {
			return false
		}
		step := float32(el.f[1]) - float32(el.f[0])
		for i := 1; i < n; i++ {
			if math.Float32bits(float32(el.f[i])-float32(el.f[i-1])) != math.Float32bits(step) {
				return false
			}
		}
		for i, f := range el.f {
			if math.Float32bits(rangeSingle(float32(el.f[0]), step, i)) != math.Float32bits(float32(f)) {
				return false
			}
		}
		return true
	case el.kind.IsSigned():
		if n <= RangeMinLenOther {
			return false
		}
		step := el.i[1] - el.i[0]
		for i := 1; i < n; i++ {
			if el.i[i]-el.i[i-1] != step {
				return false
			}
		}
		return true
	case el.kind.IsUnsigned():
		if n <= RangeMinLenOther {
			return false
		}
		step := el.u[1] - el.u[0]
		for i := 1; i < n; i++ {
			if el.u[i]-el.u[i-1] != step {
				return false
			}
		}
		return true
	}
	return false
}

func rangeDouble(start, step float64, i int) float64 {
	return start + float64(i)*step
}

func rangeSingle(start, step float32, i int) float32 {
	return start + float32(i)*step
}

// arrayNode builds the node for el with the chosen encoding.
func arrayNode(el *elems, enc ir.Encoding) *ir.Node {
	k := el.kind
	node := ir.NewObject().
		Add(ir.KeyType, ir.FromString(k.Tag())).
		Add(ir.KeySize, ir.FromSize(el.dims))
	if enc != ir.Plain {
		node.Add(ir.KeyEncoding, ir.FromString(string(enc)))
	}
	n := el.len()
	switch enc {
	case ir.Constant:
		node.Add(ir.KeyValue, elemNode(el, 0, false))
	case ir.Textual:
		data := make([]*ir.Node, n)
		for i := range n {
			data[i] = elemNode(el, i, true)
		}
		node.Add(ir.KeyData, ir.FromSlice(data))
	case ir.Range:
		node.Add(ir.KeyStart, elemNode(el, 0, false))
		node.Add(ir.KeyEnd, elemNode(el, n-1, false))
		node.Add(ir.KeyStep, stepNode(el))
	case ir.Base64:
		node.Add(ir.KeyData, ir.FromString(base64.StdEncoding.EncodeToString(packLE(el))))
	default:
		data := make([]*ir.Node, n)
		for i := range n {
			data[i] = elemNode(el, i, false)
		}
		node.Add(ir.KeyData, ir.FromSlice(data))
	}
	return node
}

// elemNode writes element i as a number, or as text when textual is set
// or the value has no JSON number form.
func elemNode(el *elems, i int, textual bool) *ir.Node {
	k := el.kind
	switch {
	case k.IsFloat():
		f := el.f[i]
		if textual || !numeric.IsFinite(f) {
			return ir.FromString(numeric.FormatReal(f, k.BitSize()))
		}
		return ir.FromFloat(f, k.BitSize())
	case k.IsSigned():
		if textual {
			return ir.FromString(ir.FromInt(el.i[i]).Number)
		}
		return ir.FromInt(el.i[i])
	case k.IsUnsigned():
		if textual {
			return ir.FromString(ir.FromUint(el.u[i]).Number)
		}
		return ir.FromUint(el.u[i])
	case k.IsComplex():
		return ir.FromString(numeric.FormatComplex(el.c[i], k.BitSize()))
	}
	return ir.FromBool(el.b[i])
}

func stepNode(el *elems) *ir.Node {
	switch {
	case el.kind == numeric.Single:
		return ir.FromFloat(float64(float32(el.f[1])-float32(el.f[0])), 32)
	case el.kind.IsFloat():
		return ir.FromFloat(el.f[1]-el.f[0], 64)
	case el.kind.IsSigned():
		return ir.FromInt(el.i[1] - el.i[0])
	}
	return ir.FromInt(int64(el.u[1] - el.u[0]))
}

// packLE returns the raw little-endian bytes of the elements.
func packLE(el *elems) []byte {
	size := el.kind.Size()
	buf := make([]byte, el.len()*size)
	for i := range el.len() {
		b := buf[i*size : (i+1)*size]
		switch el.kind {
		case numeric.Double:
			binary.LittleEndian.PutUint64(b, math.Float64bits(el.f[i]))
		case numeric.Single:
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(el.f[i])))
		case numeric.Int8:
			b[0] = byte(el.i[i])
		case numeric.Int16:
			binary.LittleEndian.PutUint16(b, uint16(el.i[i]))
		case numeric.Int32:
			binary.LittleEndian.PutUint32(b, uint32(el.i[i]))
		case numeric.Int64:
			binary.LittleEndian.PutUint64(b, uint64(el.i[i]))
		case numeric.Uint8:
			b[0] = byte(el.u[i])
		case numeric.Uint16:
			binary.LittleEndian.PutUint16(b, uint16(el.u[i]))
		case numeric.Uint32:
			binary.LittleEndian.PutUint32(b, uint32(el.u[i]))
		case numeric.Uint64:
			binary.LittleEndian.PutUint64(b, el.u[i])
		}
	}
	return buf
}

// vectorNode encodes a Go slice or array of numeric or bool elements.
func (e *Encoder) vectorNode(k numeric.Kind, v reflect.Value) *ir.Node {
	el := collect(k, []int{v.Len()}, v, nil)
	return e.finishArray(el)
}

// denseNode encodes a numeric.Array, permuting row-major storage into
// column-major wire order.
func (e *Encoder) denseNode(a numeric.Array) *ir.Node {
	dims := a.Dims()
	data := reflect.ValueOf(a.Elems())
	var perm []int
	if len(dims) > 1 {
		perm = numeric.ColumnMajor(dims)
	}
	el := collect(a.Kind(), dims, data, perm)
	return e.finishArray(el)
}

func (e *Encoder) finishArray(el *elems) *ir.Node {
	if el.len() == 0 {
		return arrayNode(el, ir.Plain)
	}
	return arrayNode(el, chooseEncoding(el, e.cfg.base64))
}

// Sparse value types.
const (
	sparseInteger = "integer"
	sparseReal    = "real"
	sparseTextual = "textual"
)

// sparseNode writes the stored triplets of s, ordered by column then row.
func (e *Encoder) sparseNode(s numeric.SparseArray) *ir.Node {
	k := s.Kind()
	rows, cols := s.Coords()
	vals := reflect.ValueOf(s.Elems())
	el := collect(k, s.Dims(), vals, nil)
	vt := sparseReal
	switch {
	case k.IsInteger():
		vt = sparseInteger
	case k.IsComplex() || !allFinite(el.f):
		vt = sparseTextual
	}
	ri := make([]*ir.Node, len(rows))
	ci := make([]*ir.Node, len(cols))
	for i := range rows {
		ri[i] = ir.FromInt(int64(rows[i]))
		ci[i] = ir.FromInt(int64(cols[i]))
	}
	data := make([]*ir.Node, el.len())
	for i := range data {
		data[i] = elemNode(el, i, vt == sparseTextual)
	}
	return ir.FromKeyVals([]ir.KeyVal{
		{Key: ir.KeyType, Val: ir.FromString(k.Tag())},
		{Key: ir.KeySize, Val: ir.FromSize(s.Dims())},
		{Key: ir.KeyEncoding, Val: ir.FromString(string(ir.Sparse))},
		{Key: ir.KeyValueType, Val: ir.FromString(vt)},
		{Key: ir.KeyRows, Val: ir.FromSlice(ri)},
		{Key: ir.KeyCols, Val: ir.FromSlice(ci)},
		{Key: ir.KeyData, Val: ir.FromSlice(data)},
	})
}
