package encode

import (
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/signadot/objgraph/ir"
)

func encodeYAML(node *ir.Node, w io.Writer, es *EncState) error {
	v, err := yamlValue(node)
	if err != nil {
		return err
	}
	d, err := yaml.MarshalWithOptions(v, yaml.Indent(es.indent))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return writeString(w, string(d))
}

// yamlValue converts node to values goccy/go-yaml renders in order.
func yamlValue(node *ir.Node) (any, error) {
	if node == nil {
		return nil, nil
	}
	switch node.Type {
	case ir.NullType:
		return nil, nil
	case ir.BoolType:
		return node.Bool, nil
	case ir.StringType:
		return node.String, nil
	case ir.NumberType:
		if i, err := strconv.ParseInt(node.Number, 10, 64); err == nil {
			return i, nil
		}
		if u, err := strconv.ParseUint(node.Number, 10, 64); err == nil {
			return u, nil
		}
		f, err := strconv.ParseFloat(node.Number, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrEncoding, node.Number)
		}
		return f, nil
	case ir.ArrayType:
		res := make([]any, len(node.Values))
		for i, v := range node.Values {
			yv, err := yamlValue(v)
			if err != nil {
				return nil, err
			}
			res[i] = yv
		}
		return res, nil
	case ir.ObjectType:
		res := make(yaml.MapSlice, len(node.Fields))
		for i, f := range node.Fields {
			yv, err := yamlValue(node.Values[i])
			if err != nil {
				return nil, err
			}
			res[i] = yaml.MapItem{Key: f.String, Value: yv}
		}
		return res, nil
	}
	return nil, fmt.Errorf("%w: unknown node type %s", ErrEncoding, node.Type)
}
