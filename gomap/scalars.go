package gomap

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/signadot/objgraph/ir"
	"github.com/signadot/objgraph/numeric"
)

// scalarNode writes a bool, string or number. Only a finite float64 that
// is not -0 is written bare; every other number carries its type tag.
func scalarNode(v reflect.Value) (*ir.Node, bool) {
	switch v.Kind() {
	case reflect.Bool:
		return ir.FromBool(v.Bool()), true
	case reflect.String:
		return ir.FromString(v.String()), true
	}
	k, ok := numeric.KindOfType(v.Type())
	if !ok || k == numeric.Logical {
		return nil, false
	}
	switch {
	case k == numeric.Double:
		f := v.Float()
		if numeric.IsFinite(f) && !numeric.IsNegZero(f) {
			return ir.FromFloat(f, 64), true
		}
		return ir.TypedScalar(k.Tag(), ir.FromString(numeric.FormatReal(f, 64))), true
	case k == numeric.Single:
		f := v.Float()
		if numeric.IsFinite(f) && !numeric.IsNegZero(f) {
			return ir.TypedScalar(k.Tag(), ir.FromFloat(f, 32)), true
		}
		return ir.TypedScalar(k.Tag(), ir.FromString(numeric.FormatReal(f, 32))), true
	case k.IsSigned():
		return ir.TypedScalar(k.Tag(), ir.FromInt(v.Int())), true
	case k.IsUnsigned():
		return ir.TypedScalar(k.Tag(), ir.FromUint(v.Uint())), true
	case k.IsComplex():
		return ir.TypedScalar(k.Tag(), ir.FromString(numeric.FormatComplex(v.Complex(), k.BitSize()))), true
	}
	return nil, false
}

// parseElem reads one number, string or bool node as a value of the
// canonical Go type of k.
func parseElem(k numeric.Kind, n *ir.Node) (reflect.Value, error) {
	if n == nil {
		return reflect.Value{}, fmt.Errorf("missing value")
	}
	var lit string
	switch n.Type {
	case ir.NumberType:
		lit = n.Number
	case ir.StringType:
		lit = n.String
	case ir.BoolType:
		if k == numeric.Logical {
			return reflect.ValueOf(n.Bool), nil
		}
		return reflect.Value{}, fmt.Errorf("bool for %s", k)
	default:
		return reflect.Value{}, fmt.Errorf("%s for %s", n.Type, k)
	}
	t := k.Type()
	switch {
	case k == numeric.Logical:
		switch lit {
		case "0", "false":
			return reflect.ValueOf(false), nil
		case "1", "true":
			return reflect.ValueOf(true), nil
		}
		return reflect.Value{}, fmt.Errorf("invalid logical %q", lit)
	case k.IsFloat():
		f, err := numeric.ParseReal(lit, k.BitSize())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(f).Convert(t), nil
	case k.IsComplex():
		c, err := numeric.ParseComplex(lit, k.BitSize())
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(c).Convert(t), nil
	case k.IsSigned():
		i, err := strconv.ParseInt(lit, 10, k.Size()*8)
		if err != nil {
			f, ferr := strconv.ParseFloat(lit, 64)
			if ferr != nil || f != math.Trunc(f) {
				return reflect.Value{}, fmt.Errorf("invalid %s %q", k, lit)
			}
			i = int64(f)
			if reflect.New(t).Elem().OverflowInt(i) || f < math.MinInt64 || f >= math.MaxInt64 {
				return reflect.Value{}, fmt.Errorf("%s overflows %s", lit, k)
			}
		}
		return reflect.ValueOf(i).Convert(t), nil
	case k.IsUnsigned():
		u, err := strconv.ParseUint(lit, 10, k.Size()*8)
		if err != nil {
			f, ferr := strconv.ParseFloat(lit, 64)
			if ferr != nil || f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return reflect.Value{}, fmt.Errorf("invalid %s %q", k, lit)
			}
			u = uint64(f)
			if reflect.New(t).Elem().OverflowUint(u) {
				return reflect.Value{}, fmt.Errorf("%s overflows %s", lit, k)
			}
		}
		return reflect.ValueOf(u).Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("unsupported kind %s", k)
}

// assignScalar stores src into dst, converting between numeric widths.
// Conversions that lose integer range are errors.
func assignScalar(dst, src reflect.Value, path string) error {
	dt := dst.Type()
	if src.Type().AssignableTo(dt) {
		dst.Set(src)
		return nil
	}
	fail := func(msg string) error {
		return &FormatError{Path: path, Type: src.Type().String(), Message: fmt.Sprintf("%s into %s", msg, dt)}
	}
	switch dst.Kind() {
	case reflect.Interface:
		if src.Type().Implements(dt) {
			dst.Set(src)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		switch src.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i = src.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u := src.Uint()
			if u > math.MaxInt64 {
				return fail("overflow")
			}
			i = int64(u)
		case reflect.Float32, reflect.Float64:
			f := src.Float()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return fail("non-integer")
			}
			i = int64(f)
		default:
			return fail("cannot assign")
		}
		if dst.OverflowInt(i) {
			return fail("overflow")
		}
		dst.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		var u uint64
		switch src.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i := src.Int()
			if i < 0 {
				return fail("negative")
			}
			u = uint64(i)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u = src.Uint()
		case reflect.Float32, reflect.Float64:
			f := src.Float()
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return fail("non-integer")
			}
			u = uint64(f)
		default:
			return fail("cannot assign")
		}
		if dst.OverflowUint(u) {
			return fail("overflow")
		}
		dst.SetUint(u)
		return nil
	case reflect.Float32, reflect.Float64:
		var f float64
		switch src.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(src.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f = float64(src.Uint())
		case reflect.Float32, reflect.Float64:
			f = src.Float()
		default:
			return fail("cannot assign")
		}
		if dst.OverflowFloat(f) {
			return fail("overflow")
		}
		dst.SetFloat(f)
		return nil
	case reflect.Complex64, reflect.Complex128:
		switch src.Kind() {
		case reflect.Complex64, reflect.Complex128:
			dst.SetComplex(src.Complex())
			return nil
		case reflect.Float32, reflect.Float64:
			dst.SetComplex(complex(src.Float(), 0))
			return nil
		}
	case reflect.Bool:
		if src.Kind() == reflect.Bool {
			dst.SetBool(src.Bool())
			return nil
		}
	case reflect.String:
		if src.Kind() == reflect.String {
			dst.SetString(src.String())
			return nil
		}
	}
	return fail("cannot assign")
}

// Assign stores v into the value dst points to. Numbers convert between
// kinds as they do while decoding, and slices of numbers convert element
// by element.
func Assign(dst, v any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("assign: destination must be a non-nil pointer, got %T", dst)
	}
	slot := rv.Elem()
	if v == nil {
		slot.SetZero()
		return nil
	}
	src := reflect.ValueOf(v)
	switch {
	case src.Type().AssignableTo(slot.Type()):
		slot.Set(src)
		return nil
	case src.Kind() == reflect.Pointer && !src.IsNil() && src.Elem().Type() == slot.Type():
		slot.Set(src.Elem())
		return nil
	case src.Kind() == reflect.Slice && slot.Kind() == reflect.Slice:
		out := reflect.MakeSlice(slot.Type(), src.Len(), src.Len())
		for i := range src.Len() {
			el := src.Index(i)
			if el.Kind() == reflect.Interface {
				el = el.Elem()
			}
			if !el.IsValid() {
				continue
			}
			if err := assignScalar(out.Index(i), el, fmt.Sprintf("[%d]", i)); err != nil {
				return err
			}
		}
		slot.Set(out)
		return nil
	}
	return assignScalar(slot, src, "")
}
