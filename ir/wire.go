package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reserved object keys of the wire format.
const (
	KeyType      = "_type"
	KeyValue     = "_value"
	KeyHandle    = "_handle"
	KeySize      = "_size"
	KeyEncoding  = "_encoding"
	KeyData      = "_data"
	KeyStart     = "_start"
	KeyEnd       = "_end"
	KeyStep      = "_step"
	KeyRows      = "_rows"
	KeyCols      = "_cols"
	KeyValueType = "_valuetype"
	KeyKeyType   = "_keytype"
	KeySource    = "_source"
	KeyCaptures  = "_captures"
)

// Reserved type tags for object nodes.
const (
	TagHandle   = "handle"
	TagMap      = "map"
	TagList     = "list"
	TagString   = "string"
	TagCallback = "callback"
)

// Encoding names the payload layout of an array node.
type Encoding string

const (
	Plain    Encoding = "plain"
	Constant Encoding = "constant"
	Range    Encoding = "range"
	Sparse   Encoding = "sparse"
	Base64   Encoding = "base64"
	Textual  Encoding = "textual"
)

func Encodings() []Encoding {
	return []Encoding{Plain, Constant, Range, Sparse, Base64, Textual}
}

// Shape classifies a wire node.
type Shape int

const (
	ScalarShape Shape = iota
	TypedScalarShape
	ArrayShape
	ObjectShape
	ReferenceShape
)

func (s Shape) String() string {
	switch s {
	case ScalarShape:
		return "scalar"
	case TypedScalarShape:
		return "typed-scalar"
	case ArrayShape:
		return "array"
	case ObjectShape:
		return "object"
	case ReferenceShape:
		return "reference"
	}
	return "<unknown shape>"
}

// ShapeOf classifies n. The classification is structural: a typed scalar
// carries _type and _value but no _size, an array carries _size together
// with a payload key, a reference is tagged "handle". Everything else that
// is an object is an ObjectShape; leaves and bare JSON arrays are scalars.
func ShapeOf(n *Node) Shape {
	if n == nil || n.Type != ObjectType {
		return ScalarShape
	}
	tag := TypeTag(n)
	if tag == TagHandle {
		return ReferenceShape
	}
	hasSize := Get(n, KeySize) != nil
	if !hasSize {
		if tag != "" && Get(n, KeyValue) != nil {
			return TypedScalarShape
		}
		return ObjectShape
	}
	if Get(n, KeyData) != nil || Get(n, KeyEncoding) != nil || Get(n, KeyValue) != nil {
		return ArrayShape
	}
	return ObjectShape
}

// TypeTag returns the _type of an object node, or "" if there is none.
func TypeTag(n *Node) string {
	t := Get(n, KeyType)
	if t == nil || t.Type != StringType {
		return ""
	}
	return t.String
}

// EncodingOf returns the _encoding of an array node, Plain if absent.
func EncodingOf(n *Node) Encoding {
	e := Get(n, KeyEncoding)
	if e == nil || e.Type != StringType {
		return Plain
	}
	return Encoding(e.String)
}

// Reference builds {"_type":"handle","_value":id}.
func Reference(id int64) *Node {
	return NewObject().Set(KeyType, FromString(TagHandle)).Set(KeyValue, FromInt(id))
}

// ReferenceID returns the handle a reference node points to.
func ReferenceID(n *Node) (int64, error) {
	if TypeTag(n) != TagHandle {
		return 0, fmt.Errorf("%w: not a reference", ErrShape)
	}
	return Int(Get(n, KeyValue))
}

// HandleOf returns the _handle of an object node.
func HandleOf(n *Node) (int64, bool, error) {
	h := Get(n, KeyHandle)
	if h == nil {
		return 0, false, nil
	}
	id, err := Int(h)
	if err != nil {
		return 0, false, err
	}
	if id <= 0 {
		return 0, false, fmt.Errorf("%w: handle %d", ErrShape, id)
	}
	return id, true, nil
}

// TypedScalar builds {"_type":tag,"_value":v}.
func TypedScalar(tag string, v *Node) *Node {
	return NewObject().Set(KeyType, FromString(tag)).Set(KeyValue, v)
}

// FromSize encodes dimensions, outermost first.
func FromSize(dims []int) *Node {
	res := &Node{Type: ArrayType, Values: make([]*Node, len(dims))}
	for i, d := range dims {
		res.Values[i] = FromInt(int64(d))
	}
	return res
}

// MaxElements bounds the element count of a dense array or list read
// from the wire.
const MaxElements = 1 << 27

// SizeOf decodes the _size of n. Dimensions whose product overflows are
// rejected.
func SizeOf(n *Node) ([]int, error) {
	s := Get(n, KeySize)
	if s == nil {
		return nil, fmt.Errorf("%w: missing", ErrSize)
	}
	if s.Type != ArrayType {
		return nil, fmt.Errorf("%w: %s", ErrSize, s.Type)
	}
	dims := make([]int, len(s.Values))
	total := int64(1)
	for i, v := range s.Values {
		d, err := Int(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSize, err)
		}
		if d < 0 || d > math.MaxInt32 {
			return nil, fmt.Errorf("%w: dimension %d", ErrSize, d)
		}
		if d != 0 && total > math.MaxInt64/d {
			return nil, fmt.Errorf("%w: element count overflows", ErrSize)
		}
		total *= d
		dims[i] = int(d)
	}
	return dims, nil
}

// ElementCount is the number of elements of dims. Counts above
// MaxElements are an ErrSize error.
func ElementCount(dims []int) (int, error) {
	n := 1
	for _, d := range dims {
		if d < 0 {
			return 0, fmt.Errorf("%w: dimension %d", ErrSize, d)
		}
		if d != 0 && n > MaxElements/d {
			return 0, fmt.Errorf("%w: more than %d elements", ErrSize, MaxElements)
		}
		n *= d
	}
	return n, nil
}

// Int reads an integer from a number node. Integral literals written in
// exponent or decimal form are accepted.
func Int(n *Node) (int64, error) {
	if n == nil || n.Type != NumberType {
		return 0, fmt.Errorf("%w: expected number", ErrShape)
	}
	if i, err := strconv.ParseInt(n.Number, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(n.Number, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrShape, n.Number)
	}
	return int64(f), nil
}

// IsReservedKey reports whether k is one of the engine's own keys rather
// than an escaped user key.
func IsReservedKey(k string) bool {
	return len(k) > 0 && k[0] == '_' && (len(k) == 1 || k[1] != '_')
}

// EscapeKey prefixes user keys starting with '_' with one more '_'.
func EscapeKey(k string) string {
	if strings.HasPrefix(k, "_") {
		return "_" + k
	}
	return k
}

// UnescapeKey reverses EscapeKey.
func UnescapeKey(k string) string {
	if strings.HasPrefix(k, "__") {
		return k[1:]
	}
	return k
}

// UserFields returns the non-reserved fields of an object node with their
// keys unescaped, in order.
func UserFields(n *Node) []KeyVal {
	if n == nil || n.Type != ObjectType {
		return nil
	}
	res := make([]KeyVal, 0, len(n.Fields))
	for i, f := range n.Fields {
		if IsReservedKey(f.String) {
			continue
		}
		res = append(res, KeyVal{Key: UnescapeKey(f.String), Val: n.Values[i]})
	}
	return res
}

// ElementKey is the synthetic key of position i, "[i]".
func ElementKey(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// ParseElementKey parses a synthetic "[i]" key.
func ParseElementKey(k string) (int, bool) {
	if len(k) < 3 || k[0] != '[' || k[len(k)-1] != ']' {
		return 0, false
	}
	i, err := strconv.Atoi(k[1 : len(k)-1])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
