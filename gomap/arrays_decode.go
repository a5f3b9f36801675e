package gomap

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/signadot/objgraph/ir"
	"github.com/signadot/objgraph/numeric"
)

// arrayKind returns the element kind named by an array node's tag.
func arrayKind(n *ir.Node) (numeric.Kind, error) {
	tag := ir.TypeTag(n)
	if tag == "" {
		return numeric.Double, nil
	}
	k, ok := numeric.KindOf(tag)
	if !ok {
		return numeric.Invalid, fmt.Errorf("unknown element type %q", tag)
	}
	return k, nil
}

func (d *Decoder) array(n *ir.Node, dst reflect.Value, path string) error {
	tag := ir.TypeTag(n)
	k, err := arrayKind(n)
	if err != nil {
		return &FormatError{Path: path, Type: tag, Message: "bad array", Err: err}
	}
	dims, err := ir.SizeOf(n)
	if err != nil {
		return &FormatError{Path: path, Type: tag, Message: "bad array", Err: err}
	}
	if !dst.CanAddr() {
		return formatErrorf(path, tag, nil, "array into unaddressable %s", dst.Type())
	}
	enc := ir.EncodingOf(n)
	if enc == ir.Sparse {
		return d.sparse(n, k, dims, dst, path)
	}
	count, err := ir.ElementCount(dims)
	if err != nil {
		return &FormatError{Path: path, Type: k.Tag(), Message: "bad array", Err: err}
	}
	flat, err := readDense(n, k, count, enc)
	if err != nil {
		return &FormatError{Path: path, Type: k.Tag(), Message: fmt.Sprintf("bad %s array", enc), Err: err}
	}
	return storeDense(flat, k, dims, dst, path)
}

// readDense returns the elements of a dense array node in wire order as a
// slice of the canonical Go type of k. Payload lengths are checked before
// anything is allocated.
func readDense(n *ir.Node, k numeric.Kind, count int, enc ir.Encoding) (reflect.Value, error) {
	alloc := func() reflect.Value {
		return reflect.MakeSlice(reflect.SliceOf(k.Type()), count, count)
	}
	switch enc {
	case ir.Plain, ir.Textual:
		data := ir.Get(n, ir.KeyData)
		if data == nil || data.Type != ir.ArrayType {
			return reflect.Value{}, fmt.Errorf("%s must be an array", ir.KeyData)
		}
		if len(data.Values) != count {
			return reflect.Value{}, fmt.Errorf("%w: %d elements for size %d", ir.ErrSize, len(data.Values), count)
		}
		out := alloc()
		for i, e := range data.Values {
			v, err := parseElem(k, e)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(v)
		}
		return out, nil
	case ir.Constant:
		v, err := parseElem(k, ir.Get(n, ir.KeyValue))
		if err != nil {
			return reflect.Value{}, err
		}
		out := alloc()
		for i := range count {
			out.Index(i).Set(v)
		}
		return out, nil
	case ir.Range:
		out := alloc()
		if err := readRange(n, k, out); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	case ir.Base64:
		data := ir.Get(n, ir.KeyData)
		if data == nil || data.Type != ir.StringType {
			return reflect.Value{}, fmt.Errorf("%s must be a string", ir.KeyData)
		}
		if k.Size() == 0 {
			return reflect.Value{}, fmt.Errorf("no binary form for %s", k)
		}
		if want := count * k.Size(); base64.StdEncoding.DecodedLen(len(data.String)) < want {
			return reflect.Value{}, fmt.Errorf("%w: %d base64 characters for %d %s elements", ir.ErrSize, len(data.String), count, k)
		}
		raw, err := base64.StdEncoding.DecodeString(data.String)
		if err != nil {
			return reflect.Value{}, err
		}
		if len(raw) != count*k.Size() {
			return reflect.Value{}, fmt.Errorf("%w: %d bytes for %d %s elements", ir.ErrSize, len(raw), count, k)
		}
		out := alloc()
		if err := unpackLE(k, raw, out); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("unknown encoding %q", enc)
}

// readRange regenerates start + i*step. Integer ranges wrap like the
// element type does.
func readRange(n *ir.Node, k numeric.Kind, out reflect.Value) error {
	count := out.Len()
	startNode, stepNode := ir.Get(n, ir.KeyStart), ir.Get(n, ir.KeyStep)
	switch {
	case k == numeric.Double:
		start, err := parseElem(k, startNode)
		if err != nil {
			return err
		}
		step, err := parseElem(k, stepNode)
		if err != nil {
			return err
		}
		for i := range count {
			out.Index(i).SetFloat(rangeDouble(start.Float(), step.Float(), i))
		}
	case k == numeric.Single:
		start, err := parseElem(k, startNode)
		if err != nil {
			return err
		}
		step, err := parseElem(k, stepNode)
		if err != nil {
			return err
		}
		for i := range count {
			out.Index(i).SetFloat(float64(rangeSingle(float32(start.Float()), float32(step.Float()), i)))
		}
	case k.IsInteger():
		step, err := parseElem(numeric.Int64, stepNode)
		if err != nil {
			return err
		}
		if k.IsSigned() {
			start, err := parseElem(k, startNode)
			if err != nil {
				return err
			}
			for i := range count {
				out.Index(i).SetInt(start.Int() + int64(i)*step.Int())
			}
			break
		}
		start, err := parseElem(k, startNode)
		if err != nil {
			return err
		}
		for i := range count {
			out.Index(i).SetUint(start.Uint() + uint64(i)*uint64(step.Int()))
		}
	default:
		return fmt.Errorf("no range form for %s", k)
	}
	if count > 0 {
		if end := ir.Get(n, ir.KeyEnd); end != nil {
			v, err := parseElem(k, end)
			if err != nil {
				return err
			}
			if !v.Equal(out.Index(count - 1)) {
				return fmt.Errorf("range end %s does not match regenerated %v", end.Number, out.Index(count-1))
			}
		}
	}
	return nil
}

func unpackLE(k numeric.Kind, raw []byte, out reflect.Value) error {
	size := k.Size()
	for i := range out.Len() {
		b := raw[i*size : (i+1)*size]
		el := out.Index(i)
		switch k {
		case numeric.Double:
			el.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(b)))
		case numeric.Single:
			el.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
		case numeric.Int8:
			el.SetInt(int64(int8(b[0])))
		case numeric.Int16:
			el.SetInt(int64(int16(binary.LittleEndian.Uint16(b))))
		case numeric.Int32:
			el.SetInt(int64(int32(binary.LittleEndian.Uint32(b))))
		case numeric.Int64:
			el.SetInt(int64(binary.LittleEndian.Uint64(b)))
		case numeric.Uint8:
			el.SetUint(uint64(b[0]))
		case numeric.Uint16:
			el.SetUint(uint64(binary.LittleEndian.Uint16(b)))
		case numeric.Uint32:
			el.SetUint(uint64(binary.LittleEndian.Uint32(b)))
		case numeric.Uint64:
			el.SetUint(binary.LittleEndian.Uint64(b))
		default:
			return fmt.Errorf("no binary form for %s", k)
		}
	}
	return nil
}

// storeDense delivers wire-ordered elements into dst: a numeric.Array
// receives them in row-major order, a Go slice or array receives a vector.
func storeDense(flat reflect.Value, k numeric.Kind, dims []int, dst reflect.Value, path string) error {
	t := dst.Type()
	switch {
	case dst.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(arrayIface):
		a := dst.Addr().Interface().(numeric.Array)
		a.Resize(dims)
		data := reflect.ValueOf(a.Elems())
		perm := numeric.ColumnMajor(dims)
		for c := range flat.Len() {
			if err := assignScalar(data.Index(perm[c]), flat.Index(c), path); err != nil {
				return err
			}
		}
		return nil
	case len(dims) > 1:
		return formatErrorf(path, k.Tag(), nil, "%d-dimensional array into %s", len(dims), t)
	case dst.Kind() == reflect.Slice:
		if flat.Type() == t {
			dst.Set(flat)
			return nil
		}
		out := reflect.MakeSlice(t, flat.Len(), flat.Len())
		dst.Set(out)
		return assignAll(out, flat, path)
	case dst.Kind() == reflect.Array:
		if dst.Len() != flat.Len() {
			return formatErrorf(path, k.Tag(), nil, "%d elements into %s", flat.Len(), t)
		}
		return assignAll(dst, flat, path)
	}
	return formatErrorf(path, k.Tag(), nil, "cannot decode array into %s", t)
}

func assignAll(dst, src reflect.Value, path string) error {
	for i := range src.Len() {
		if err := assignScalar(dst.Index(i), src.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// sparse decodes a sparse node into a numeric.SparseArray, or scatters it
// into a numeric.Array.
func (d *Decoder) sparse(n *ir.Node, k numeric.Kind, dims []int, dst reflect.Value, path string) error {
	bad := func(err error) error {
		return &FormatError{Path: path, Type: k.Tag(), Message: "bad sparse array", Err: err}
	}
	if len(dims) != 2 {
		return bad(fmt.Errorf("%w: sparse arrays have 2 dimensions, got %d", ir.ErrSize, len(dims)))
	}
	switch vt := ir.Get(n, ir.KeyValueType); {
	case vt == nil:
	case vt.Type == ir.StringType && (vt.String == sparseInteger || vt.String == sparseReal || vt.String == sparseTextual):
	default:
		return bad(fmt.Errorf("unknown %s", ir.KeyValueType))
	}
	ri, err := indexList(ir.Get(n, ir.KeyRows), dims[0])
	if err != nil {
		return bad(fmt.Errorf("%s: %w", ir.KeyRows, err))
	}
	ci, err := indexList(ir.Get(n, ir.KeyCols), dims[1])
	if err != nil {
		return bad(fmt.Errorf("%s: %w", ir.KeyCols, err))
	}
	data := ir.Get(n, ir.KeyData)
	if data == nil || data.Type != ir.ArrayType {
		return bad(fmt.Errorf("%s must be an array", ir.KeyData))
	}
	if len(ri) != len(ci) || len(ri) != len(data.Values) {
		return bad(fmt.Errorf("%w: %d rows, %d cols, %d values", ir.ErrSize, len(ri), len(ci), len(data.Values)))
	}
	for i := 1; i < len(ri); i++ {
		if ci[i] < ci[i-1] || (ci[i] == ci[i-1] && ri[i] <= ri[i-1]) {
			return bad(fmt.Errorf("entry %d out of column-major order", i))
		}
	}

	t := dst.Type()
	var s numeric.SparseArray
	switch {
	case dst.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(sparseIface):
		s = dst.Addr().Interface().(numeric.SparseArray)
	case dst.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(arrayIface):
		if _, err := ir.ElementCount(dims); err != nil {
			return bad(err)
		}
		s, err = numeric.NewSparseArray(k)
		if err != nil {
			return bad(err)
		}
	default:
		return formatErrorf(path, k.Tag(), nil, "cannot decode sparse array into %s", t)
	}
	s.Init(dims[0], dims[1], ri, ci)
	vals := reflect.ValueOf(s.Elems())
	for i, e := range data.Values {
		v, err := parseElem(k, e)
		if err != nil {
			return bad(fmt.Errorf("element %d: %w", i, err))
		}
		if err := assignScalar(vals.Index(i), v, path); err != nil {
			return err
		}
	}
	if a, ok := dst.Addr().Interface().(numeric.Array); ok {
		if err := numeric.Scatter(s, a); err != nil {
			return bad(err)
		}
	}
	return nil
}

func indexList(n *ir.Node, limit int) ([]int, error) {
	if n == nil || n.Type != ir.ArrayType {
		return nil, fmt.Errorf("must be an array")
	}
	res := make([]int, len(n.Values))
	for i, v := range n.Values {
		x, err := ir.Int(v)
		if err != nil {
			return nil, err
		}
		if x < 0 || x >= int64(limit) {
			return nil, fmt.Errorf("index %d out of range [0,%d)", x, limit)
		}
		res[i] = int(x)
	}
	return res, nil
}
