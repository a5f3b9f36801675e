package numeric

import (
	"fmt"
	"reflect"
)

// Kind is the element type of a numeric or logical array, or of a typed
// scalar.
type Kind int

const (
	Invalid Kind = iota
	Double
	Single
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	CDouble
	CSingle
	Logical
)

var kindTags = [...]string{
	Invalid: "",
	Double:  "double",
	Single:  "single",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	CDouble: "cdouble",
	CSingle: "csingle",
	Logical: "logical",
}

var kindTypes = [...]reflect.Type{
	Double:  reflect.TypeFor[float64](),
	Single:  reflect.TypeFor[float32](),
	Int8:    reflect.TypeFor[int8](),
	Int16:   reflect.TypeFor[int16](),
	Int32:   reflect.TypeFor[int32](),
	Int64:   reflect.TypeFor[int64](),
	Uint8:   reflect.TypeFor[uint8](),
	Uint16:  reflect.TypeFor[uint16](),
	Uint32:  reflect.TypeFor[uint32](),
	Uint64:  reflect.TypeFor[uint64](),
	CDouble: reflect.TypeFor[complex128](),
	CSingle: reflect.TypeFor[complex64](),
	Logical: reflect.TypeFor[bool](),
}

// Tag is the wire type tag of k.
func (k Kind) Tag() string {
	if k < 0 || int(k) >= len(kindTags) {
		return ""
	}
	return kindTags[k]
}

func (k Kind) String() string {
	if t := k.Tag(); t != "" {
		return t
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindOf returns the kind for a wire tag.
func KindOf(tag string) (Kind, bool) {
	for k, t := range kindTags {
		if t != "" && t == tag {
			return Kind(k), true
		}
	}
	return Invalid, false
}

// KindOfType maps a Go element type to its kind by reflect.Kind, so named
// types such as `type Volt float64` are numeric too. int and uint map to
// the 64 bit kinds.
func KindOfType(t reflect.Type) (Kind, bool) {
	switch t.Kind() {
	case reflect.Float64:
		return Double, true
	case reflect.Float32:
		return Single, true
	case reflect.Int8:
		return Int8, true
	case reflect.Int16:
		return Int16, true
	case reflect.Int32:
		return Int32, true
	case reflect.Int64, reflect.Int:
		return Int64, true
	case reflect.Uint8:
		return Uint8, true
	case reflect.Uint16:
		return Uint16, true
	case reflect.Uint32:
		return Uint32, true
	case reflect.Uint64, reflect.Uint:
		return Uint64, true
	case reflect.Complex128:
		return CDouble, true
	case reflect.Complex64:
		return CSingle, true
	case reflect.Bool:
		return Logical, true
	}
	return Invalid, false
}

// Type is the canonical Go type of k.
func (k Kind) Type() reflect.Type {
	if k <= Invalid || int(k) >= len(kindTypes) {
		return nil
	}
	return kindTypes[k]
}

// Size is the element width in bytes.
func (k Kind) Size() int {
	if t := k.Type(); t != nil {
		return int(t.Size())
	}
	return 0
}

func (k Kind) IsFloat() bool   { return k == Double || k == Single }
func (k Kind) IsComplex() bool { return k == CDouble || k == CSingle }
func (k Kind) IsSigned() bool  { return k >= Int8 && k <= Int64 }
func (k Kind) IsUnsigned() bool {
	return k >= Uint8 && k <= Uint64
}
func (k Kind) IsInteger() bool { return k.IsSigned() || k.IsUnsigned() }

// BitSize is the precision used when formatting or parsing one real
// component of k.
func (k Kind) BitSize() int {
	switch k {
	case Single, CSingle:
		return 32
	}
	return 64
}

// Kinds lists every valid kind.
func Kinds() []Kind {
	res := make([]Kind, 0, len(kindTags)-1)
	for k := Double; k <= Logical; k++ {
		res = append(res, k)
	}
	return res
}
