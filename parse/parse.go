package parse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/signadot/objgraph/ir"
)

// Parse parses one JSON document.
func Parse(d []byte, opts ...ParseOption) (*ir.Node, error) {
	return ParseReader(bytes.NewReader(d), opts...)
}

// ParseReader parses one JSON document from r. Trailing content after the
// document is an error.
func ParseReader(r io.Reader, opts ...ParseOption) (*ir.Node, error) {
	pOpts := &parseOpts{maxDepth: DefaultMaxDepth}
	for _, f := range opts {
		f(pOpts)
	}
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	p := &parser{dec: dec, opts: pOpts}
	tok, err := p.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrParse)
		}
		return nil, err
	}
	res, err := p.value(tok, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrParse)
	}
	return res, nil
}

type parser struct {
	dec  *gojson.Decoder
	opts *parseOpts
}

func (p *parser) next() (gojson.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return tok, nil
}

func (p *parser) value(tok gojson.Token, depth int) (*ir.Node, error) {
	if depth > p.opts.maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrParse, p.opts.maxDepth)
	}
	switch v := tok.(type) {
	case gojson.Delim:
		switch v {
		case '{':
			return p.object(depth)
		case '[':
			return p.array(depth)
		}
		return nil, fmt.Errorf("%w: unexpected %q", ErrParse, v)
	case nil:
		return ir.Null(), nil
	case bool:
		return ir.FromBool(v), nil
	case string:
		return ir.FromString(v), nil
	case gojson.Number:
		return ir.FromNumber(string(v)), nil
	case float64:
		return ir.FromNumber(strconv.FormatFloat(v, 'g', -1, 64)), nil
	}
	return nil, fmt.Errorf("%w: unexpected token %T", ErrParse, tok)
}

func (p *parser) object(depth int) (*ir.Node, error) {
	res := ir.NewObject()
	seen := map[string]bool{}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if d, ok := tok.(gojson.Delim); ok && d == '}' {
			return res, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: object key %v", ErrParse, tok)
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrParse, key)
		}
		seen[key] = true
		tok, err = p.next()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		val, err := p.value(tok, depth+1)
		if err != nil {
			return nil, err
		}
		res.Add(key, val)
	}
}

func (p *parser) array(depth int) (*ir.Node, error) {
	res := &ir.Node{Type: ir.ArrayType, Values: []*ir.Node{}}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if d, ok := tok.(gojson.Delim); ok && d == ']' {
			return res, nil
		}
		val, err := p.value(tok, depth+1)
		if err != nil {
			return nil, err
		}
		res.Append(val)
	}
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrParse, io.ErrUnexpectedEOF)
	}
	return err
}
