package ir

import (
	"strconv"
)

// Node is one JSON value. Objects keep their keys in insertion order:
// Fields[i] is the key (a StringType node) of Values[i].
type Node struct {
	Type   Type
	Fields []*Node
	Values []*Node

	String string
	Bool   bool
	// Number holds the literal text of a NumberType node so that decoding
	// can parse it at the width it was written for.
	Number string
}

func FromString(v string) *Node {
	return &Node{Type: StringType, String: v}
}

func FromBool(v bool) *Node {
	return &Node{Type: BoolType, Bool: v}
}

// FromNumber wraps a literal that is already valid JSON number text.
func FromNumber(lit string) *Node {
	return &Node{Type: NumberType, Number: lit}
}

func FromInt(v int64) *Node {
	return FromNumber(strconv.FormatInt(v, 10))
}

func FromUint(v uint64) *Node {
	return FromNumber(strconv.FormatUint(v, 10))
}

// FromFloat formats a finite float with the shortest text that parses
// back to the same value at the given bit size.
func FromFloat(f float64, bitSize int) *Node {
	return FromNumber(strconv.FormatFloat(f, 'g', -1, bitSize))
}

func Null() *Node {
	return &Node{Type: NullType}
}

func FromSlice(ySlice []*Node) *Node {
	res := &Node{Type: ArrayType}
	res.Values = make([]*Node, len(ySlice))
	copy(res.Values, ySlice)
	return res
}

type KeyVal struct {
	Key string
	Val *Node
}

func FromKeyVals(kvs []KeyVal) *Node {
	res := &Node{Type: ObjectType}
	res.Fields = make([]*Node, 0, len(kvs))
	res.Values = make([]*Node, 0, len(kvs))
	for _, kv := range kvs {
		res.Set(kv.Key, kv.Val)
	}
	return res
}

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{Type: ObjectType}
}

// Set appends key/val to an object, or replaces the value if the key is
// already present.
func (y *Node) Set(key string, val *Node) *Node {
	for i, f := range y.Fields {
		if f.String == key {
			y.Values[i] = val
			return y
		}
	}
	y.Fields = append(y.Fields, FromString(key))
	y.Values = append(y.Values, val)
	return y
}

// Add appends key/val to an object without checking for an existing key.
func (y *Node) Add(key string, val *Node) *Node {
	y.Fields = append(y.Fields, FromString(key))
	y.Values = append(y.Values, val)
	return y
}

// Append adds a value to an array node.
func (y *Node) Append(val *Node) *Node {
	y.Values = append(y.Values, val)
	return y
}

func Get(y *Node, field string) *Node {
	if y == nil || y.Type != ObjectType {
		return nil
	}
	n := len(y.Fields)
	for i := range n {
		if y.Fields[i].String == field {
			return y.Values[i]
		}
	}
	return nil
}

func (y *Node) Visit(f func(y *Node, isPost bool) (bool, error)) error {
	dive, err := f(y, false)
	if err != nil {
		return err
	}
	if dive {
		for _, yy := range y.Values {
			if err := yy.Visit(f); err != nil {
				return err
			}
		}
	}
	if _, err := f(y, true); err != nil {
		return err
	}
	return nil
}
