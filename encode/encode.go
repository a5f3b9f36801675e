package encode

import (
	"errors"
	"fmt"
	"io"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/signadot/objgraph/format"
	"github.com/signadot/objgraph/ir"
)

var ErrEncoding = errors.New("encoding error")

type EncState struct {
	depth, indent int

	format format.Format
	wire   bool

	Color func(ir.Type, ColorAttr, string) string
}

// Encode writes node to w. By default the output is indented JSON
// followed by a newline; EncodeWire(true) writes the compact form with no
// trailing newline.
func Encode(node *ir.Node, w io.Writer, opts ...EncodeOption) error {
	es := &EncState{
		indent: 2,
	}
	for _, opt := range opts {
		opt(es)
	}
	if es.format.IsYAML() {
		return encodeYAML(node, w, es)
	}
	if err := encode(node, w, es); err != nil {
		return err
	}
	if es.wire {
		return nil
	}
	return writeString(w, "\n")
}

// Helper functions for writing
func writeNL(w io.Writer, es *EncState) error {
	if es.wire {
		return nil
	}
	indentString := strings.Repeat(strings.Repeat(" ", es.indent), es.depth)
	if err := writeString(w, "\n"+indentString); err != nil {
		return err
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	_, err := w.Write([]byte(s))
	return err
}

func quoteString(v string) (string, error) {
	d, err := gojson.MarshalNoEscape(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return string(d), nil
}

func applyColor(es *EncState, nodeType ir.Type, attr ColorAttr, v string) string {
	if es.Color == nil {
		return v
	}
	return es.Color(nodeType, attr, v)
}

func encode(node *ir.Node, w io.Writer, es *EncState) error {
	if node == nil {
		return writeString(w, applyColor(es, ir.NullType, ValueColor, "null"))
	}
	switch node.Type {
	case ir.ObjectType:
		return encodeObject(node, w, es)
	case ir.ArrayType:
		return encodeArray(node, w, es)
	case ir.StringType:
		q, err := quoteString(node.String)
		if err != nil {
			return err
		}
		return writeString(w, applyColor(es, ir.StringType, ValueColor, q))
	case ir.NumberType:
		if node.Number == "" {
			return fmt.Errorf("%w: empty number literal", ErrEncoding)
		}
		return writeString(w, applyColor(es, ir.NumberType, ValueColor, node.Number))
	case ir.BoolType:
		v := "false"
		if node.Bool {
			v = "true"
		}
		return writeString(w, applyColor(es, ir.BoolType, ValueColor, v))
	case ir.NullType:
		return writeString(w, applyColor(es, ir.NullType, ValueColor, "null"))
	}
	return fmt.Errorf("%w: unknown node type %s", ErrEncoding, node.Type)
}

func encodeObject(node *ir.Node, w io.Writer, es *EncState) error {
	n := len(node.Fields)
	if err := writeString(w, applyColor(es, ir.ObjectType, SepColor, "{")); err != nil {
		return err
	}
	if n == 0 {
		return writeString(w, applyColor(es, ir.ObjectType, SepColor, "}"))
	}
	es.depth++
	for i, yField := range node.Fields {
		if err := writeNL(w, es); err != nil {
			return err
		}
		q, err := quoteString(yField.String)
		if err != nil {
			return err
		}
		attr := FieldColor
		if ir.IsReservedKey(yField.String) {
			attr = TagColor
		}
		sep := ":"
		if !es.wire {
			sep = ": "
		}
		if err := writeString(w, applyColor(es, ir.ObjectType, attr, q)+sep); err != nil {
			return err
		}
		if err := encode(node.Values[i], w, es); err != nil {
			return err
		}
		if i < n-1 {
			if err := writeString(w, ","); err != nil {
				return err
			}
		}
	}
	es.depth--
	if err := writeNL(w, es); err != nil {
		return err
	}
	return writeString(w, applyColor(es, ir.ObjectType, SepColor, "}"))
}

// encodeArray writes arrays of leaves on one line and arrays holding
// containers one element per line.
func encodeArray(node *ir.Node, w io.Writer, es *EncState) error {
	n := len(node.Values)
	if err := writeString(w, applyColor(es, ir.ArrayType, SepColor, "[")); err != nil {
		return err
	}
	inline := true
	for _, v := range node.Values {
		if v != nil && !v.Type.IsLeaf() {
			inline = false
			break
		}
	}
	if !inline {
		es.depth++
	}
	for i, v := range node.Values {
		if !inline {
			if err := writeNL(w, es); err != nil {
				return err
			}
		}
		if err := encode(v, w, es); err != nil {
			return err
		}
		if i < n-1 {
			sep := ","
			if inline && !es.wire {
				sep = ", "
			}
			if err := writeString(w, sep); err != nil {
				return err
			}
		}
	}
	if !inline {
		es.depth--
		if err := writeNL(w, es); err != nil {
			return err
		}
	}
	return writeString(w, applyColor(es, ir.ArrayType, SepColor, "]"))
}
