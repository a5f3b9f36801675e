package gomap

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"

	"github.com/signadot/objgraph/debug"
	"github.com/signadot/objgraph/ir"
)

// Callback is a listener stored as expression source plus the variables
// it captured. Captured pointers to registered structs and *Object values
// are written as handle references and reattached after decoding, so a
// restored Callback sees the restored objects.
type Callback struct {
	Source   string
	Captures map[string]any

	program *vm.Program
}

// NewCallback compiles source. Names that are neither captures nor
// passed to Call evaluate to nil.
func NewCallback(source string, captures map[string]any) (*Callback, error) {
	cb := &Callback{Source: source, Captures: captures}
	if err := cb.Compile(); err != nil {
		return nil, err
	}
	return cb, nil
}

func (c *Callback) Compile() error {
	p, err := expr.Compile(c.Source, expr.AllowUndefinedVariables())
	if err != nil {
		return fmt.Errorf("compile callback: %w", err)
	}
	c.program = p
	return nil
}

// Call runs the callback. args are visible next to the captures and take
// precedence over them.
func (c *Callback) Call(args map[string]any) (any, error) {
	if c.program == nil {
		if err := c.Compile(); err != nil {
			return nil, err
		}
	}
	env := make(map[string]any, len(c.Captures)+len(args))
	for k, v := range c.Captures {
		env[k] = v
	}
	for k, v := range args {
		env[k] = v
	}
	return expr.Run(c.program, env)
}

var (
	callbackType    = reflect.TypeFor[Callback]()
	callbackPtrType = reflect.TypeFor[*Callback]()
)

// callbackNode writes a callback. Aliasable captures are always
// references, never expanded in place.
func (e *Encoder) callbackNode(cb *Callback, path string) *ir.Node {
	node := ir.NewObject().
		Add(ir.KeyType, ir.FromString(ir.TagCallback)).
		Add(ir.KeySource, ir.FromString(cb.Source))
	caps := ir.NewObject()
	names := make([]string, 0, len(cb.Captures))
	for k := range cb.Captures {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		p := path + "." + k
		v := reflect.ValueOf(cb.Captures[k])
		if ptr, ok := e.aliasable(v); ok {
			caps.Add(ir.EscapeKey(k), ir.Reference(e.handles.Reserve(ptr)))
			continue
		}
		child, err := e.walk(v, p)
		if err != nil {
			e.warning(err)
			continue
		}
		caps.Add(ir.EscapeKey(k), child)
	}
	return node.Add(ir.KeyCaptures, caps)
}

type pendingCallback struct {
	binding string
	path    string
	source  string
	names   []string
	values  []reflect.Value // decoded captures; invalid where refs[i] > 0
	refs    []int64
	set     func(*Callback) error
}

// CallbackRelinker holds callbacks read during decoding. They are built
// only once every object in the document exists.
type CallbackRelinker struct {
	pending []*pendingCallback
}

func (r *CallbackRelinker) add(p *pendingCallback) {
	r.pending = append(r.pending, p)
}

func (r *CallbackRelinker) Len() int {
	return len(r.pending)
}

// relink resolves captured handles through handles and attaches each
// callback. A callback with an unresolved capture is not attached.
func (r *CallbackRelinker) relink(d *Decoder) {
	pending := r.pending
	r.pending = nil
	for _, p := range pending {
		cb := &Callback{Source: p.source, Captures: make(map[string]any, len(p.names))}
		ok := true
		for i, name := range p.names {
			if id := p.refs[i]; id > 0 {
				v, found := d.handles.Resolve(id)
				if !found {
					d.warning(&ReferenceError{
						Binding: p.binding,
						Path:    p.path + "." + name,
						Handle:  id,
						Message: "captured object never decoded",
					})
					ok = false
					continue
				}
				cb.Captures[name] = v.Interface()
				continue
			}
			if p.values[i].IsValid() {
				cb.Captures[name] = p.values[i].Interface()
			} else {
				cb.Captures[name] = nil
			}
		}
		if !ok {
			continue
		}
		if err := cb.Compile(); err != nil {
			d.warning(formatErrorf(p.path, ir.TagCallback, err, "bad source"))
			continue
		}
		if debug.Relink() {
			d.log.Debug("relink", zap.String("binding", p.binding), zap.String("path", p.path), zap.Int("captures", len(p.names)))
		}
		if err := p.set(cb); err != nil {
			d.warning(err)
		}
	}
}

// callback reads a callback node and queues it for relinking.
func (d *Decoder) callback(n *ir.Node, dst reflect.Value, path string) error {
	src := ir.Get(n, ir.KeySource)
	if src == nil || src.Type != ir.StringType {
		return formatErrorf(path, ir.TagCallback, nil, "missing %s", ir.KeySource)
	}
	var set func(*Callback) error
	switch {
	case dst.Type() == callbackPtrType:
		set = func(cb *Callback) error { dst.Set(reflect.ValueOf(cb)); return nil }
	case dst.Type() == callbackType:
		set = func(cb *Callback) error { dst.Set(reflect.ValueOf(cb).Elem()); return nil }
	case dst.Kind() == reflect.Interface && callbackPtrType.Implements(dst.Type()):
		set = func(cb *Callback) error { dst.Set(reflect.ValueOf(cb)); return nil }
	default:
		return formatErrorf(path, ir.TagCallback, nil, "cannot decode into %s", dst.Type())
	}
	p := &pendingCallback{binding: d.binding, path: path, source: src.String, set: set}
	if caps := ir.Get(n, ir.KeyCaptures); caps != nil {
		if caps.Type != ir.ObjectType {
			return formatErrorf(path, ir.TagCallback, nil, "%s is %s", ir.KeyCaptures, caps.Type)
		}
		for _, kv := range ir.UserFields(caps) {
			p.names = append(p.names, kv.Key)
			cp := path + "." + kv.Key
			if ir.ShapeOf(kv.Val) == ir.ReferenceShape {
				id, err := ir.ReferenceID(kv.Val)
				if err != nil {
					return formatErrorf(cp, ir.TagHandle, err, "bad capture")
				}
				p.refs = append(p.refs, id)
				p.values = append(p.values, reflect.Value{})
				continue
			}
			slot := reflect.New(anyType).Elem()
			if err := d.decodeInto(kv.Val, slot, cp); err != nil {
				d.warning(err)
			}
			p.refs = append(p.refs, 0)
			p.values = append(p.values, slot)
		}
	}
	d.relinker.add(p)
	return nil
}
